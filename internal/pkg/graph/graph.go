// Package graph holds the small graph primitives used by the resolvers:
// a union-find forest over dense indices and an undirected adjacency graph
// keyed by ordered IDs.
//
// Both structures are built fresh for every run and only read afterwards,
// so they can be shared by goroutines once construction is finished.
package graph

import (
	"cmp"
	"slices"
)

// UnionFind is a disjoint-set forest over the indices 0..n-1.
type UnionFind struct {
	parent []int
	rank   []int
}

// NewUnionFind creates a forest of n singleton sets.
func NewUnionFind(n int) *UnionFind {
	u := &UnionFind{
		parent: make([]int, n),
		rank:   make([]int, n),
	}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

// Len returns the number of elements in the forest.
func (u *UnionFind) Len() int {
	return len(u.parent)
}

// Find returns the root of x, compressing the path on the way.
func (u *UnionFind) Find(x int) int {
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		next := u.parent[x]
		u.parent[x] = root
		x = next
	}
	return root
}

// Union merges the sets holding a and b. It reports whether they were
// previously disjoint.
func (u *UnionFind) Union(a, b int) bool {
	ra, rb := u.Find(a), u.Find(b)
	if ra == rb {
		return false
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
	return true
}

// Components returns every set as an ascending slice of indices. Sets are
// ordered by their smallest member.
func (u *UnionFind) Components() [][]int {
	byRoot := make(map[int][]int)
	var roots []int
	for i := range u.parent {
		r := u.Find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}
	// indices are visited in ascending order, so each member list is sorted
	// and roots are discovered in order of their smallest member
	out := make([][]int, 0, len(roots))
	for _, r := range roots {
		out = append(out, byRoot[r])
	}
	return out
}

// Graph is an undirected simple graph keyed by ordered node IDs.
type Graph[K cmp.Ordered] struct {
	adj   map[K]map[K]struct{}
	edges int
}

// New creates an empty graph.
func New[K cmp.Ordered]() *Graph[K] {
	return &Graph[K]{adj: make(map[K]map[K]struct{})}
}

// AddNode adds k if it is not present yet.
func (g *Graph[K]) AddNode(k K) {
	if _, ok := g.adj[k]; !ok {
		g.adj[k] = make(map[K]struct{})
	}
}

// AddEdge connects a and b, adding either node as needed. Self loops are
// ignored.
func (g *Graph[K]) AddEdge(a, b K) {
	g.AddNode(a)
	g.AddNode(b)
	if a == b {
		return
	}
	if _, ok := g.adj[a][b]; ok {
		return
	}
	g.adj[a][b] = struct{}{}
	g.adj[b][a] = struct{}{}
	g.edges++
}

// HasNode reports whether k is part of the graph.
func (g *Graph[K]) HasNode(k K) bool {
	_, ok := g.adj[k]
	return ok
}

// HasEdge reports whether a and b are adjacent.
func (g *Graph[K]) HasEdge(a, b K) bool {
	n, ok := g.adj[a]
	if !ok {
		return false
	}
	_, ok = n[b]
	return ok
}

// NumNodes returns the node count.
func (g *Graph[K]) NumNodes() int {
	return len(g.adj)
}

// NumEdges returns the edge count.
func (g *Graph[K]) NumEdges() int {
	return g.edges
}

// Nodes returns all node IDs in ascending order.
func (g *Graph[K]) Nodes() []K {
	nodes := make([]K, 0, len(g.adj))
	for k := range g.adj {
		nodes = append(nodes, k)
	}
	slices.Sort(nodes)
	return nodes
}

// Neighbors returns the neighbours of k in ascending order.
func (g *Graph[K]) Neighbors(k K) []K {
	n := g.adj[k]
	out := make([]K, 0, len(n))
	for v := range n {
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

// ConnectedComponents returns the components of the graph using an
// iterative breadth-first search. Members are sorted ascending and
// components are ordered by their smallest member, so the result does not
// depend on map iteration order.
func (g *Graph[K]) ConnectedComponents() [][]K {
	seen := make(map[K]bool, len(g.adj))
	var components [][]K
	for _, start := range g.Nodes() {
		if seen[start] {
			continue
		}
		seen[start] = true
		queue := []K{start}
		var component []K
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			component = append(component, cur)
			for next := range g.adj[cur] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		slices.Sort(component)
		components = append(components, component)
	}
	return components
}

// IsClique reports whether every pair of the given nodes is adjacent.
func (g *Graph[K]) IsClique(nodes []K) bool {
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			if !g.HasEdge(nodes[i], nodes[j]) {
				return false
			}
		}
	}
	return true
}

// IsConnected reports whether the subgraph induced by nodes is connected.
func (g *Graph[K]) IsConnected(nodes []K) bool {
	if len(nodes) == 0 {
		return true
	}
	in := make(map[K]bool, len(nodes))
	for _, n := range nodes {
		in[n] = true
	}
	seen := map[K]bool{nodes[0]: true}
	stack := []K{nodes[0]}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.adj[cur] {
			if in[next] && !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return len(seen) == len(in)
}
