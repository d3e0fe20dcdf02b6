package rank

import "sort"

// scoreMargin ranks by normalized win margin,
//
//	(wins - losses) / max(1, wins + losses)
//
// highest first. A track winning every game scores 1.0, an even record
// scores 0, a track losing every game scores -1.0. The denominator floor
// keeps unplayed tracks at exactly zero instead of dividing by zero, and
// the normalization stops a single lucky win from outranking a long
// winning record. Ties are ordered by total comparisons played descending,
// then ascending id.
//
// This mode is a documented heuristic: it favors consistent winners over
// busy ones, and the tie-break chain is a pragmatic choice rather than a
// statistical model.
func scoreMargin(g *Graph) []ScoredTrack {
	n := g.Size()

	scores := make([]ScoredTrack, 0, n)
	for u := 0; u < n; u++ {
		denom := g.playedIdx(u)
		if denom < 1 {
			denom = 1
		}
		margin := float64(g.netIdx(u)) / float64(denom)
		scores = append(scores, ScoredTrack{ID: g.ids[u], Score: margin, Scored: true})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if pa, pb := g.Played(a.ID), g.Played(b.ID); pa != pb {
			return pa > pb
		}
		return a.ID < b.ID
	})

	return scores
}
