package rank

import (
	"math"
	"sort"
)

// BradleyTerryOptions holds settings for the Bradley-Terry scoring mode.
type BradleyTerryOptions struct {
	Tolerance     float64 // Convergence threshold on relative strength change (default 1e-6)
	MaxIterations int     // Hard cap on MM iterations (default 1000)
}

// DefaultBradleyTerryOptions returns standard iteration parameters.
func DefaultBradleyTerryOptions() BradleyTerryOptions {
	return BradleyTerryOptions{
		Tolerance:     1e-6,
		MaxIterations: 1000,
	}
}

// minStrength floors strengths so the geometric mean stays defined when a
// track loses every game it played.
const minStrength = 1e-9

type btOutcome struct {
	scores     []ScoredTrack
	degraded   bool
	iterations int
}

// scoreBradleyTerry fits Bradley-Terry strengths with the
// minorization-maximization update
//
//	s_i <- wins_i / sum_j games_ij / (s_i + s_j)
//
// normalizing by the geometric mean after every pass to pin the scale.
// Iteration stops when the largest relative strength change drops below
// the tolerance, or at the iteration cap. Hitting the cap is not an error:
// the last iterate is returned with the degraded flag set.
//
// Only tracks with at least one game receive a strength. Zero-game tracks
// carry no score and rank after every scored track, in ascending id order.
// Scored tracks are ordered by strength descending, ascending id on exact
// ties.
func scoreBradleyTerry(g *Graph, opts BradleyTerryOptions) btOutcome {
	n := g.Size()

	players := make([]int, 0, n)
	for u := 0; u < n; u++ {
		if g.playedIdx(u) > 0 {
			players = append(players, u)
		}
	}

	// Opponent lists cover both directions and are sorted, so every
	// floating-point accumulation below runs in a fixed order.
	opponents := make([][]int, n)
	for u := 0; u < n; u++ {
		for _, v := range g.successors(u) {
			if g.beatCount(v, u) == 0 {
				// one-directional pair, add both sides here
				opponents[u] = append(opponents[u], v)
				opponents[v] = append(opponents[v], u)
			} else if u < v {
				// mutual pair, added once from the lower index
				opponents[u] = append(opponents[u], v)
				opponents[v] = append(opponents[v], u)
			}
		}
	}
	for u := 0; u < n; u++ {
		sort.Ints(opponents[u])
	}

	strengths := make([]float64, n)
	for _, u := range players {
		strengths[u] = 1.0
	}

	degraded := false
	iterations := 0

	for len(players) > 0 {
		iterations++

		next := make([]float64, n)
		for _, u := range players {
			var denom float64
			for _, v := range opponents[u] {
				games := float64(g.gamesIdx(u, v))
				denom += games / (strengths[u] + strengths[v])
			}

			s := 0.0
			if denom > 0 {
				s = float64(g.wins[u]) / denom
			}
			if s < minStrength {
				s = minStrength
			}
			next[u] = s
		}

		// Normalize by the geometric mean to prevent scale drift
		var logSum float64
		for _, u := range players {
			logSum += math.Log(next[u])
		}
		mean := math.Exp(logSum / float64(len(players)))
		for _, u := range players {
			next[u] /= mean
		}

		maxChange := 0.0
		for _, u := range players {
			change := math.Abs(next[u]-strengths[u]) / strengths[u]
			if change > maxChange {
				maxChange = change
			}
		}

		copy(strengths, next)

		if maxChange < opts.Tolerance {
			break
		}
		if iterations >= opts.MaxIterations {
			degraded = true
			break
		}
	}

	scores := make([]ScoredTrack, 0, n)
	for _, u := range players {
		scores = append(scores, ScoredTrack{ID: g.ids[u], Score: strengths[u], Scored: true})
	}
	sort.SliceStable(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].ID < scores[j].ID
	})

	for u := 0; u < n; u++ {
		if g.playedIdx(u) == 0 {
			scores = append(scores, ScoredTrack{ID: g.ids[u], Scored: false})
		}
	}

	return btOutcome{scores: scores, degraded: degraded, iterations: iterations}
}
