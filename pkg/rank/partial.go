package rank

// resolvePartialOrder turns the preference graph into an ordered sequence
// of tie groups, the default ranking mode.
//
// # Algorithm
//
// The resolver runs in three phases:
//
//  1. Tarjan's algorithm finds the strongly connected components of the
//     graph. Tracks locked in mutual or cyclic preferences (a beats b,
//     b beats c, c beats a) end up in the same component and are reported
//     as equivalent rather than forced into an arbitrary order.
//  2. The components are condensed into a DAG: one node per component,
//     one edge per preference crossing a component boundary.
//  3. Kahn's algorithm produces a topological order over the condensation.
//     Whenever several components are simultaneously ready, the resolver
//     picks the one with the higher sum of member net wins, then the one
//     whose smallest member id sorts first.
//
// # Determinism
//
// Nodes are visited in ascending id order, successor lists are sorted, and
// the ready-set pick uses a total key, so identical input always yields an
// identical group sequence. Members inside a group are listed in ascending
// id order. Isolated tracks form singleton groups and participate in the
// ordering with a net-wins sum of zero.
func resolvePartialOrder(g *Graph) []TieGroup {
	n := g.Size()
	comp, numComps := tarjanSCC(g)

	// Gather members per component in ascending node order
	members := make([][]int, numComps)
	for u := 0; u < n; u++ {
		members[comp[u]] = append(members[comp[u]], u)
	}

	netWins := make([]int, numComps)
	minID := make([]string, numComps)
	for c, ms := range members {
		minID[c] = g.ids[ms[0]]
		for _, u := range ms {
			netWins[c] += g.netIdx(u)
		}
	}

	// Condense edges crossing component boundaries, deduplicated
	indegree := make([]int, numComps)
	succs := make([][]int, numComps)
	seen := make(map[[2]int]bool)
	for u := 0; u < n; u++ {
		for _, v := range g.successors(u) {
			cu, cv := comp[u], comp[v]
			if cu == cv {
				continue
			}
			key := [2]int{cu, cv}
			if seen[key] {
				continue
			}
			seen[key] = true
			succs[cu] = append(succs[cu], cv)
			indegree[cv]++
		}
	}

	ready := make([]int, 0, numComps)
	for c := 0; c < numComps; c++ {
		if indegree[c] == 0 {
			ready = append(ready, c)
		}
	}

	better := func(a, b int) bool {
		if netWins[a] != netWins[b] {
			return netWins[a] > netWins[b]
		}
		return minID[a] < minID[b]
	}

	groups := make([]TieGroup, 0, numComps)
	for len(ready) > 0 {
		best := 0
		for i := 1; i < len(ready); i++ {
			if better(ready[i], ready[best]) {
				best = i
			}
		}
		c := ready[best]
		ready = append(ready[:best], ready[best+1:]...)

		ids := make([]string, len(members[c]))
		for i, u := range members[c] {
			ids[i] = g.ids[u]
		}
		groups = append(groups, TieGroup{TrackIDs: ids})

		for _, d := range succs[c] {
			indegree[d]--
			if indegree[d] == 0 {
				ready = append(ready, d)
			}
		}
	}

	return groups
}

// tarjanSCC assigns every node to a strongly connected component and
// returns the per-node component id together with the component count.
func tarjanSCC(g *Graph) ([]int, int) {
	const unvisited = -1

	n := g.Size()
	discovery := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	comp := make([]int, n)
	for i := 0; i < n; i++ {
		discovery[i] = unvisited
		comp[i] = unvisited
	}

	var stack []int
	next := 0
	numComps := 0

	var strongConnect func(u int)
	strongConnect = func(u int) {
		discovery[u] = next
		low[u] = next
		next++
		stack = append(stack, u)
		onStack[u] = true

		for _, v := range g.successors(u) {
			if discovery[v] == unvisited {
				strongConnect(v)
				if low[v] < low[u] {
					low[u] = low[v]
				}
			} else if onStack[v] {
				if discovery[v] < low[u] {
					low[u] = discovery[v]
				}
			}
		}

		// u is the root of a component: pop it and everything above it
		if low[u] == discovery[u] {
			for {
				v := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[v] = false
				comp[v] = numComps
				if v == u {
					break
				}
			}
			numComps++
		}
	}

	for u := 0; u < n; u++ {
		if discovery[u] == unvisited {
			strongConnect(u)
		}
	}

	return comp, numComps
}
