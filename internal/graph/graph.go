// Package graph provides the sparse directed dependency graph used by the
// chain and scoring analyses. Graphs may contain cycles; every traversal
// here is cycle-safe.
package graph

import "sort"

// Graph is a sparse directed graph over instance IDs.
type Graph struct {
	// Node IDs (for index lookup)
	nodes    []string
	nodeIdx  map[string]int
	numNodes int

	// Adjacency list: outEdges[i] = list of (neighbor_idx, weight)
	outEdges [][]edgeEntry
	inEdges  [][]edgeEntry // Reverse edges for ancestor traversal

	// Edge metadata: from -> to -> dependency type names
	edgeTypes map[string]map[string][]string
}

type edgeEntry struct {
	target int
	weight float64
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:     make([]string, 0),
		nodeIdx:   make(map[string]int),
		outEdges:  make([][]edgeEntry, 0),
		inEdges:   make([][]edgeEntry, 0),
		edgeTypes: make(map[string]map[string][]string),
	}
}

// AddNode adds a node if it doesn't exist, returns its index.
func (g *Graph) AddNode(id string) int {
	if idx, ok := g.nodeIdx[id]; ok {
		return idx
	}
	idx := len(g.nodes)
	g.nodes = append(g.nodes, id)
	g.nodeIdx[id] = idx
	g.outEdges = append(g.outEdges, nil)
	g.inEdges = append(g.inEdges, nil)
	g.numNodes++
	return idx
}

// AddEdge adds a directed edge from src to dst. Adding the same ordered
// pair twice replaces the previous weight and types; the merger guarantees
// at most one call per pair.
func (g *Graph) AddEdge(src, dst string, weight float64, types []string) {
	srcIdx := g.AddNode(src)
	dstIdx := g.AddNode(dst)

	if _, ok := g.edgeTypes[src][dst]; ok {
		g.removeEdge(srcIdx, dstIdx)
	}

	g.outEdges[srcIdx] = append(g.outEdges[srcIdx], edgeEntry{target: dstIdx, weight: weight})
	g.inEdges[dstIdx] = append(g.inEdges[dstIdx], edgeEntry{target: srcIdx, weight: weight})

	if g.edgeTypes[src] == nil {
		g.edgeTypes[src] = make(map[string][]string)
	}
	typesCopy := make([]string, len(types))
	copy(typesCopy, types)
	sort.Strings(typesCopy)
	g.edgeTypes[src][dst] = typesCopy
}

func (g *Graph) removeEdge(srcIdx, dstIdx int) {
	out := g.outEdges[srcIdx][:0]
	for _, e := range g.outEdges[srcIdx] {
		if e.target != dstIdx {
			out = append(out, e)
		}
	}
	g.outEdges[srcIdx] = out

	in := g.inEdges[dstIdx][:0]
	for _, e := range g.inEdges[dstIdx] {
		if e.target != srcIdx {
			in = append(in, e)
		}
	}
	g.inEdges[dstIdx] = in
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int {
	return g.numNodes
}

// NumEdges returns the total number of edges.
func (g *Graph) NumEdges() int {
	total := 0
	for _, edges := range g.outEdges {
		total += len(edges)
	}
	return total
}

// HasNode checks if a node exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodeIdx[id]
	return ok
}

// HasEdge reports whether a directed edge from src to dst exists.
func (g *Graph) HasEdge(src, dst string) bool {
	m, ok := g.edgeTypes[src]
	if !ok {
		return false
	}
	_, ok = m[dst]
	return ok
}

// EdgeTypes returns the dependency type names of the edge from src to dst,
// or nil when no such edge exists.
func (g *Graph) EdgeTypes(src, dst string) []string {
	if m, ok := g.edgeTypes[src]; ok {
		return m[dst]
	}
	return nil
}

// EdgeWeight returns the weight of the edge from src to dst, 0 if absent.
func (g *Graph) EdgeWeight(src, dst string) float64 {
	srcIdx, ok := g.nodeIdx[src]
	if !ok {
		return 0
	}
	dstIdx, ok := g.nodeIdx[dst]
	if !ok {
		return 0
	}
	for _, e := range g.outEdges[srcIdx] {
		if e.target == dstIdx {
			return e.weight
		}
	}
	return 0
}

// Nodes returns all node IDs sorted lexicographically. Sorted order makes
// downstream enumeration deterministic.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	sort.Strings(out)
	return out
}

// OutNeighbors returns the outgoing neighbors of a node, sorted.
func (g *Graph) OutNeighbors(id string) []string {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return nil
	}
	neighbors := make([]string, len(g.outEdges[idx]))
	for i, e := range g.outEdges[idx] {
		neighbors[i] = g.nodes[e.target]
	}
	sort.Strings(neighbors)
	return neighbors
}

// InNeighbors returns the incoming neighbors of a node, sorted.
func (g *Graph) InNeighbors(id string) []string {
	idx, ok := g.nodeIdx[id]
	if !ok {
		return nil
	}
	neighbors := make([]string, len(g.inEdges[idx]))
	for i, e := range g.inEdges[idx] {
		neighbors[i] = g.nodes[e.target]
	}
	sort.Strings(neighbors)
	return neighbors
}

// Descendants returns the number of nodes reachable from id via directed
// edges, excluding id itself. Returns 0 for nodes absent from the graph.
func (g *Graph) Descendants(id string) int {
	return g.reach(id, g.outEdges)
}

// Ancestors returns the number of nodes that can reach id via directed
// edges, excluding id itself. Returns 0 for nodes absent from the graph.
func (g *Graph) Ancestors(id string) int {
	return g.reach(id, g.inEdges)
}

// reach runs a BFS over the given adjacency and counts visited nodes.
// The visited set makes it safe on cyclic graphs.
func (g *Graph) reach(id string, adjacency [][]edgeEntry) int {
	start, ok := g.nodeIdx[id]
	if !ok {
		return 0
	}

	visited := make([]bool, g.numNodes)
	visited[start] = true
	queue := []int{start}
	count := 0

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, e := range adjacency[current] {
			if visited[e.target] {
				continue
			}
			visited[e.target] = true
			count++
			queue = append(queue, e.target)
		}
	}

	return count
}
