package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreBestFitTransitiveTriple(t *testing.T) {
	ranker := createTestRanker(t)

	ranking, err := ranker.Rank(ModeBestFit, nil, buildLog("a>b", "a>c", "b>c"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, scoreOrder(ranking.Scores))
	assert.Equal(t, 2.0, ranking.Scores[0].Score)
	assert.Equal(t, 0.0, ranking.Scores[1].Score)
	assert.Equal(t, -2.0, ranking.Scores[2].Score)
}

func TestScoreBestFitHeadToHeadTieBreak(t *testing.T) {
	ranker := createTestRanker(t)

	// a and b both sit at net zero, but a beat b directly
	ranking, err := ranker.Rank(ModeBestFit, nil, buildLog("a>b", "b>c", "d>a"))
	require.NoError(t, err)

	assert.Equal(t, []string{"d", "a", "b", "c"}, scoreOrder(ranking.Scores))
}

func TestScoreBestFitPlayedTieBreak(t *testing.T) {
	ranker := createTestRanker(t)

	// a and c both sit at net +1 without meeting; c earned it over more games
	ranking, err := ranker.Rank(ModeBestFit, nil, buildLog("a>b", "c>d", "c>e", "e>c"))
	require.NoError(t, err)

	assert.Equal(t, []string{"c", "a", "e", "b", "d"}, scoreOrder(ranking.Scores))
}

func TestScoreBestFitIDTieBreak(t *testing.T) {
	ranker := createTestRanker(t)

	// Two disjoint pairs: winners tie, losers tie, ids settle both
	ranking, err := ranker.Rank(ModeBestFit, nil, buildLog("d>c", "a>b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "d", "b", "c"}, scoreOrder(ranking.Scores))
}

func TestScoreBestFitCycleStaysDeterministic(t *testing.T) {
	ranker := createTestRanker(t)

	// In a 3-cycle every head-to-head points somewhere, yet the result
	// must come out the same on every run
	first, err := ranker.Rank(ModeBestFit, nil, buildLog("a>b", "b>c", "c>a"))
	require.NoError(t, err)

	second, err := ranker.Rank(ModeBestFit, nil, buildLog("a>b", "b>c", "c>a"))
	require.NoError(t, err)

	assert.Equal(t, first.Scores, second.Scores)
	require.Len(t, first.Scores, 3)
	for _, s := range first.Scores {
		assert.Equal(t, 0.0, s.Score)
	}
}

func TestScoreBestFitUncomparedTrackScoresZero(t *testing.T) {
	ranker := createTestRanker(t)

	ranking, err := ranker.Rank(ModeBestFit, []string{"a", "b", "idle"}, buildLog("a>b", "a>b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "idle", "b"}, scoreOrder(ranking.Scores))
	assert.True(t, ranking.Scores[1].Scored)
	assert.Equal(t, 0.0, ranking.Scores[1].Score)
}
