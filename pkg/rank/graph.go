package rank

import (
	"sort"

	"github.com/pashagolub/trackelo/pkg/data"
)

// Graph is the preference graph derived from a comparison log snapshot.
// Nodes are track ids (the union of the supplied catalog ids and every id
// referenced by the log), held in an arena indexed by position in the
// sorted id list. Each comparison contributes one winner-to-loser edge;
// repeated results raise the edge multiplicity instead of adding parallel
// edges.
type Graph struct {
	ids    []string      // sorted ascending; the index is the node handle
	index  map[string]int
	beats  []map[int]int // beats[u][v] = number of u-over-v results
	wins   []int         // total wins, multiplicity counted
	losses []int         // total losses, multiplicity counted
}

// BuildGraph constructs the preference graph for trackIDs and comparisons.
// Every comparison is re-validated: a result pairing a track against itself
// or carrying an empty id returns data.ErrInvalidComparison. Build cost is
// linear in the number of ids plus comparisons.
func BuildGraph(trackIDs []string, comparisons []data.Comparison) (*Graph, error) {
	universe := make(map[string]bool, len(trackIDs))
	for _, id := range trackIDs {
		if id != "" {
			universe[id] = true
		}
	}
	for _, c := range comparisons {
		if err := data.ValidateOutcome(c.WinnerID, c.LoserID); err != nil {
			return nil, err
		}
		universe[c.WinnerID] = true
		universe[c.LoserID] = true
	}

	ids := make([]string, 0, len(universe))
	for id := range universe {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	g := &Graph{
		ids:    ids,
		index:  make(map[string]int, len(ids)),
		beats:  make([]map[int]int, len(ids)),
		wins:   make([]int, len(ids)),
		losses: make([]int, len(ids)),
	}
	for i, id := range ids {
		g.index[id] = i
	}

	for _, c := range comparisons {
		w := g.index[c.WinnerID]
		l := g.index[c.LoserID]
		if g.beats[w] == nil {
			g.beats[w] = make(map[int]int)
		}
		g.beats[w][l]++
		g.wins[w]++
		g.losses[l]++
	}

	return g, nil
}

// Size returns the number of nodes.
func (g *Graph) Size() int {
	return len(g.ids)
}

// IDs returns the node ids sorted ascending. The slice is a copy.
func (g *Graph) IDs() []string {
	out := make([]string, len(g.ids))
	copy(out, g.ids)
	return out
}

// Contains reports whether id is a node of the graph.
func (g *Graph) Contains(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Wins returns the total number of wins for id, zero for unknown ids.
func (g *Graph) Wins(id string) int {
	if u, ok := g.index[id]; ok {
		return g.wins[u]
	}
	return 0
}

// Losses returns the total number of losses for id, zero for unknown ids.
func (g *Graph) Losses(id string) int {
	if u, ok := g.index[id]; ok {
		return g.losses[u]
	}
	return 0
}

// Played returns the total number of comparisons id participated in.
func (g *Graph) Played(id string) int {
	return g.Wins(id) + g.Losses(id)
}

// Games returns the number of comparisons between a and b in either
// direction.
func (g *Graph) Games(a, b string) int {
	u, ok := g.index[a]
	if !ok {
		return 0
	}
	v, ok := g.index[b]
	if !ok {
		return 0
	}
	return g.gamesIdx(u, v)
}

// HeadToHead returns the net a-over-b result count: positive when a beat b
// more often than b beat a.
func (g *Graph) HeadToHead(a, b string) int {
	u, ok := g.index[a]
	if !ok {
		return 0
	}
	v, ok := g.index[b]
	if !ok {
		return 0
	}
	return g.headToHeadIdx(u, v)
}

// successors returns the distinct beaten opponents of u in ascending index
// order. Ascending index order is ascending id order, which keeps every
// traversal over the graph deterministic.
func (g *Graph) successors(u int) []int {
	if g.beats[u] == nil {
		return nil
	}
	out := make([]int, 0, len(g.beats[u]))
	for v := range g.beats[u] {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func (g *Graph) beatCount(u, v int) int {
	if g.beats[u] == nil {
		return 0
	}
	return g.beats[u][v]
}

func (g *Graph) gamesIdx(u, v int) int {
	return g.beatCount(u, v) + g.beatCount(v, u)
}

func (g *Graph) headToHeadIdx(u, v int) int {
	return g.beatCount(u, v) - g.beatCount(v, u)
}

func (g *Graph) netIdx(u int) int {
	return g.wins[u] - g.losses[u]
}

func (g *Graph) playedIdx(u int) int {
	return g.wins[u] + g.losses[u]
}
