package rank

import "sort"

// scoreBestFit ranks by net score (wins minus losses), highest first.
// Tracks tied on net score are ordered by their direct head-to-head
// result when one exists, then by total comparisons played descending,
// then by ascending id.
//
// The head-to-head tie-break is not transitive when equally-netted tracks
// beat each other in a cycle. The sort is stable over the ascending id
// base order, so even that case resolves identically on every run.
func scoreBestFit(g *Graph) []ScoredTrack {
	n := g.Size()

	scores := make([]ScoredTrack, 0, n)
	for u := 0; u < n; u++ {
		scores = append(scores, ScoredTrack{ID: g.ids[u], Score: float64(g.netIdx(u)), Scored: true})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if h := g.HeadToHead(a.ID, b.ID); h != 0 {
			return h > 0
		}
		if pa, pb := g.Played(a.ID), g.Played(b.ID); pa != pb {
			return pa > pb
		}
		return a.ID < b.ID
	})

	return scores
}
