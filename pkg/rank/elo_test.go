package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectedScore(t *testing.T) {
	testCases := []struct {
		name     string
		ratingA  float64
		ratingB  float64
		expected float64
	}{
		{"equal ratings", 1500.0, 1500.0, 0.5},
		{"400 point advantage", 1900.0, 1500.0, 0.9091},
		{"400 point disadvantage", 1500.0, 1900.0, 0.0909},
		{"200 point advantage", 1700.0, 1500.0, 0.7597},
		{"small gap", 1516.0, 1484.0, 0.5460},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual := expectedScore(tc.ratingA, tc.ratingB)
			assert.InDelta(t, tc.expected, actual, testTolerance)

			// Expected scores of both sides always sum to one
			complement := expectedScore(tc.ratingB, tc.ratingA)
			assert.InDelta(t, 1.0, actual+complement, testTolerance)
		})
	}
}

func TestScoreEloSingleComparison(t *testing.T) {
	ranker := createTestRanker(t)

	ranking, err := ranker.Rank(ModeElo, nil, buildLog("a>b"))
	require.NoError(t, err)

	require.Len(t, ranking.Scores, 2)
	assert.Equal(t, "a", ranking.Scores[0].ID)
	assert.InDelta(t, 1516.0, ranking.Scores[0].Score, testTolerance)
	assert.Equal(t, "b", ranking.Scores[1].ID)
	assert.InDelta(t, 1484.0, ranking.Scores[1].Score, testTolerance)
}

func TestScoreEloZeroSum(t *testing.T) {
	g, err := BuildGraph(nil, buildLog("a>b"))
	require.NoError(t, err)

	scores := scoreElo(g, buildLog("a>b"), DefaultEloOptions())
	require.Len(t, scores, 2)

	var deltaSum float64
	for _, s := range scores {
		deltaSum += s.Score - testInitialRating
	}
	// Winner gain and loser loss cancel exactly, not merely within tolerance
	assert.Equal(t, 0.0, deltaSum)
}

func TestScoreEloConservesRatingPool(t *testing.T) {
	ranker := createTestRanker(t)
	log := buildLog("a>b", "b>c", "c>a", "a>b", "d>a", "c>d")

	ranking, err := ranker.Rank(ModeElo, nil, log)
	require.NoError(t, err)

	var total float64
	for _, s := range ranking.Scores {
		total += s.Score
	}
	assert.InDelta(t, 4*testInitialRating, total, testTolerance)
}

func TestScoreEloUncomparedTrackKeepsInitialRating(t *testing.T) {
	ranker := createTestRanker(t)

	ranking, err := ranker.Rank(ModeElo, []string{"a", "b", "idle"}, buildLog("a>b"))
	require.NoError(t, err)

	var found bool
	for _, s := range ranking.Scores {
		if s.ID == "idle" {
			found = true
			assert.True(t, s.Scored)
			assert.Equal(t, testInitialRating, s.Score)
		}
	}
	assert.True(t, found)
}

func TestScoreEloCycleProducesDistinctRatings(t *testing.T) {
	ranker := createTestRanker(t)

	// Replay order matters: the later a win happens, the more it is worth
	// against an already weakened opponent, so a 3-cycle never lands on
	// three equal ratings.
	ranking, err := ranker.Rank(ModeElo, nil, buildLog("a>b", "b>c", "c>a"))
	require.NoError(t, err)

	require.Len(t, ranking.Scores, 3)
	byID := make(map[string]float64, 3)
	for _, s := range ranking.Scores {
		byID[s.ID] = s.Score
	}

	assert.NotEqual(t, byID["a"], byID["b"])
	assert.NotEqual(t, byID["b"], byID["c"])
	assert.NotEqual(t, byID["a"], byID["c"])

	assert.InDelta(t, 1498.4969, byID["a"], 0.001)
	assert.InDelta(t, 1500.7363, byID["b"], 0.001)
	assert.InDelta(t, 1500.7668, byID["c"], 0.001)

	assert.Equal(t, []string{"c", "b", "a"}, scoreOrder(ranking.Scores))
}

func TestScoreEloCustomOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Elo.InitialRating = 1200.0
	opts.Elo.KFactor = 16

	ranker, err := NewRanker(opts)
	require.NoError(t, err)

	ranking, err := ranker.Rank(ModeElo, nil, buildLog("a>b"))
	require.NoError(t, err)

	require.Len(t, ranking.Scores, 2)
	assert.InDelta(t, 1208.0, ranking.Scores[0].Score, testTolerance)
	assert.InDelta(t, 1192.0, ranking.Scores[1].Score, testTolerance)
}

func TestScoreEloEqualRatingsTieBreakByID(t *testing.T) {
	ranker := createTestRanker(t)

	// Two disjoint pairs produce pairwise identical ratings
	ranking, err := ranker.Rank(ModeElo, nil, buildLog("b>c", "a>d"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, scoreOrder(ranking.Scores))
}
