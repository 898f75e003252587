package algorithms

import (
	"cmp"
	"slices"
)

// tarjanState holds per-node state during Tarjan's DFS.
type tarjanState struct {
	index   int
	lowlink int
	onStack bool
}

// StronglyConnectedComponents finds all SCCs using Tarjan's algorithm in O(V+E) time.
// Only outgoing edges are followed (directed graph semantics). Components
// are returned in the order Tarjan completes them, which is a reverse
// topological order of the condensation; members of a component are sorted.
func StronglyConnectedComponents[K cmp.Ordered](g *Digraph[K]) [][]K {
	state := make(map[K]*tarjanState, len(g.nodes))
	var stack []K
	indexCounter := 0
	var components [][]K

	var strongconnect func(u K)
	strongconnect = func(u K) {
		state[u] = &tarjanState{
			index:   indexCounter,
			lowlink: indexCounter,
			onStack: true,
		}
		indexCounter++
		stack = append(stack, u)

		for _, v := range g.succ[u] {
			if _, exists := state[v]; !exists {
				strongconnect(v)
				state[u].lowlink = min(state[u].lowlink, state[v].lowlink)
			} else if state[v].onStack {
				state[u].lowlink = min(state[u].lowlink, state[v].index)
			}
		}

		// If u is a root node, pop the stack to form an SCC
		if state[u].lowlink == state[u].index {
			var members []K
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				state[w].onStack = false
				members = append(members, w)
				if w == u {
					break
				}
			}
			slices.Sort(members)
			components = append(components, members)
		}
	}

	for _, k := range g.nodes {
		if _, exists := state[k]; !exists {
			strongconnect(k)
		}
	}
	return components
}

// Cycles returns the components that contain a cycle: every SCC with more
// than one member, plus single nodes with a self-loop. The result is ordered
// by each component's smallest member.
func Cycles[K cmp.Ordered](g *Digraph[K]) [][]K {
	var cycles [][]K
	for _, c := range StronglyConnectedComponents(g) {
		if len(c) > 1 || slices.Contains(g.succ[c[0]], c[0]) {
			cycles = append(cycles, c)
		}
	}
	slices.SortFunc(cycles, func(a, b []K) int {
		return cmp.Compare(a[0], b[0])
	})
	return cycles
}
