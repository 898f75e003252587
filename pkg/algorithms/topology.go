package algorithms

import (
	"cmp"
	"fmt"
	"slices"
)

// Digraph is a small directed graph over comparable, ordered keys.
// Nodes and successors keep insertion order so every traversal is deterministic.
type Digraph[K cmp.Ordered] struct {
	nodes []K
	succ  map[K][]K
	known map[K]struct{}
}

// NewDigraph creates an empty graph
func NewDigraph[K cmp.Ordered]() *Digraph[K] {
	return &Digraph[K]{
		nodes: make([]K, 0),
		succ:  make(map[K][]K),
		known: make(map[K]struct{}),
	}
}

// AddNode registers a node; adding it twice is a no-op
func (g *Digraph[K]) AddNode(k K) {
	if _, ok := g.known[k]; ok {
		return
	}
	g.known[k] = struct{}{}
	g.nodes = append(g.nodes, k)
}

// AddEdge adds from -> to, registering both nodes if needed.
// Parallel edges are collapsed.
func (g *Digraph[K]) AddEdge(from, to K) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.succ[from], to) {
		return
	}
	g.succ[from] = append(g.succ[from], to)
}

// CycleError is returned by TopologicalSort when the graph is not a DAG.
// Remaining holds every node whose in-degree never dropped to zero, sorted.
type CycleError[K cmp.Ordered] struct {
	Remaining []K
}

func (e *CycleError[K]) Error() string {
	return fmt.Sprintf("graph contains a cycle through %d node(s): %v", len(e.Remaining), e.Remaining)
}

// TopologicalSort returns nodes in topological order using Kahn's algorithm.
// The ordering ensures that for every directed edge u->v, u comes before v.
// Among nodes that become ready together, insertion order wins.
func TopologicalSort[K cmp.Ordered](g *Digraph[K]) ([]K, error) {
	// Calculate in-degree for each node
	inDegree := make(map[K]int, len(g.nodes))
	for _, k := range g.nodes {
		inDegree[k] += 0
		for _, to := range g.succ[k] {
			inDegree[to]++
		}
	}

	// Queue of nodes with in-degree 0
	queue := make([]K, 0)
	for _, k := range g.nodes {
		if inDegree[k] == 0 {
			queue = append(queue, k)
		}
	}

	sorted := make([]K, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		sorted = append(sorted, current)

		// Reduce in-degree of successors
		for _, to := range g.succ[current] {
			inDegree[to]--
			if inDegree[to] == 0 {
				queue = append(queue, to)
			}
		}
	}

	// Anything left with a positive in-degree sits on (or behind) a cycle
	if len(sorted) != len(g.nodes) {
		remaining := make([]K, 0, len(g.nodes)-len(sorted))
		for _, k := range g.nodes {
			if inDegree[k] > 0 {
				remaining = append(remaining, k)
			}
		}
		slices.Sort(remaining)
		return nil, &CycleError[K]{Remaining: remaining}
	}

	return sorted, nil
}

// ReachableFrom returns every node reachable from roots by following edges,
// roots included. Roots that are not part of the graph are still reported.
func ReachableFrom[K cmp.Ordered](g *Digraph[K], roots ...K) map[K]bool {
	visited := make(map[K]bool, len(g.nodes))
	queue := make([]K, 0, len(roots))
	for _, r := range roots {
		if !visited[r] {
			visited[r] = true
			queue = append(queue, r)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, next := range g.succ[current] {
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return visited
}
