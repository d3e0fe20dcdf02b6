package rank

import (
	"math"
	"sort"

	"github.com/pashagolub/trackelo/pkg/data"
)

// EloOptions holds settings for the Elo scoring mode.
type EloOptions struct {
	InitialRating float64 // Starting rating for every track (default 1500)
	KFactor       int     // Rating change sensitivity (default 32)
}

// DefaultEloOptions returns standard Elo parameters.
func DefaultEloOptions() EloOptions {
	return EloOptions{
		InitialRating: 1500.0,
		KFactor:       32,
	}
}

// expectedScore calculates the probability that the first rating beats the
// second under the Elo model, using the standard logistic formula with a
// 400-point scale.
func expectedScore(a, b float64) float64 {
	return 1.0 / (1.0 + math.Pow(10.0, (b-a)/400.0))
}

// scoreElo replays the comparison log in snapshot order and returns the
// resulting ratings, highest first.
//
// Every track in the graph starts at the initial rating. Each comparison
// moves the winner up and the loser down by the same amount,
// K * (1 - expected), so the rating sum is conserved exactly across the
// whole replay. Tracks that never appear in the log keep the initial
// rating and are still present in the output. Equal ratings are ordered
// by ascending id.
//
// Results depend on log order: the same set of outcomes in a different
// sequence can produce different ratings. That is inherent to sequential
// Elo and is why the log snapshot carries a total order.
func scoreElo(g *Graph, comparisons []data.Comparison, opts EloOptions) []ScoredTrack {
	ratings := make(map[string]float64, g.Size())
	for _, id := range g.ids {
		ratings[id] = opts.InitialRating
	}

	k := float64(opts.KFactor)
	for _, c := range comparisons {
		winner := ratings[c.WinnerID]
		loser := ratings[c.LoserID]

		expectedWin := expectedScore(winner, loser)
		delta := k * (1.0 - expectedWin)

		ratings[c.WinnerID] = winner + delta
		ratings[c.LoserID] = loser - delta
	}

	scores := make([]ScoredTrack, 0, g.Size())
	for _, id := range g.ids {
		scores = append(scores, ScoredTrack{ID: id, Score: ratings[id], Scored: true})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})

	return scores
}
