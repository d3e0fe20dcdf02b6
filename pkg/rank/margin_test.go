package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreMarginValues(t *testing.T) {
	ranker := createTestRanker(t)

	ranking, err := ranker.Rank(ModeMargin, nil, buildLog("a>b", "a>c", "b>c"))
	require.NoError(t, err)

	require.Len(t, ranking.Scores, 3)
	assert.Equal(t, []string{"a", "b", "c"}, scoreOrder(ranking.Scores))
	assert.InDelta(t, 1.0, ranking.Scores[0].Score, testTolerance)
	assert.InDelta(t, 0.0, ranking.Scores[1].Score, testTolerance)
	assert.InDelta(t, -1.0, ranking.Scores[2].Score, testTolerance)
}

func TestScoreMarginNormalizesByGamesPlayed(t *testing.T) {
	ranker := createTestRanker(t)

	// b is 4-2 while a is 2-1: identical margins despite different volume
	log := buildLog(
		"a>x", "a>x", "x>a",
		"b>y", "b>y", "b>y", "b>y", "y>b", "y>b",
	)

	ranking, err := ranker.Rank(ModeMargin, nil, log)
	require.NoError(t, err)

	byID := make(map[string]float64, 4)
	for _, s := range ranking.Scores {
		byID[s.ID] = s.Score
	}
	assert.InDelta(t, byID["a"], byID["b"], testTolerance)

	// Equal margins fall back to games played, so the busier track leads
	assert.Equal(t, []string{"b", "a", "y", "x"}, scoreOrder(ranking.Scores))
}

func TestScoreMarginUnplayedTrackSitsAtZero(t *testing.T) {
	ranker := createTestRanker(t)

	ranking, err := ranker.Rank(ModeMargin, []string{"a", "b", "idle"}, buildLog("a>b"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "idle", "b"}, scoreOrder(ranking.Scores))
	assert.True(t, ranking.Scores[1].Scored)
	assert.Equal(t, 0.0, ranking.Scores[1].Score)
}

func TestScoreMarginIDTieBreak(t *testing.T) {
	ranker := createTestRanker(t)

	ranking, err := ranker.Rank(ModeMargin, nil, buildLog("b>c", "a>d"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, scoreOrder(ranking.Scores))
}
