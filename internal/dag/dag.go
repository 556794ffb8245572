package dag

import (
	"container/heap"
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing and the node keeps
// its original insertion index.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	n := &node{
		id:         id,
		index:      len(g.order),
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.nodes[id] = n
	g.order = append(g.order, n)
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.order)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
// Adding the same edge twice is a no-op.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID] = fromNode
	fromNode.dependents[toID] = toNode

	return nil
}

// Dependencies returns the IDs of the nodes the given node depends on,
// ordered by insertion index.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.deps), nil
}

// Dependents returns the IDs of the nodes that depend on the given node,
// ordered by insertion index.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.dependents), nil
}

// DetectCycles checks the graph for any cycles. It returns a *CycleError
// carrying one deterministic witness path if a cycle is found.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if path := g.findCycle(); path != nil {
		return &CycleError{Path: path}
	}
	return nil
}

// TopologicalOrder returns every node ID such that each node appears after
// all of its dependencies. Among nodes that are ready at the same time the
// one added first comes first. A cyclic graph yields a *CycleError.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	indeg := make([]int, len(g.order))
	ready := &indexHeap{}
	for _, n := range g.order {
		indeg[n.index] = len(n.deps)
		if indeg[n.index] == 0 {
			heap.Push(ready, n.index)
		}
	}

	out := make([]string, 0, len(g.order))
	for ready.Len() > 0 {
		n := g.order[heap.Pop(ready).(int)]
		out = append(out, n.id)
		for _, d := range n.dependents {
			indeg[d.index]--
			if indeg[d.index] == 0 {
				heap.Push(ready, d.index)
			}
		}
	}

	if len(out) != len(g.order) {
		return nil, &CycleError{Path: g.findCycle()}
	}
	return out, nil
}

// findCycle runs a depth-first search in insertion order and returns the
// first cycle it meets, or nil. The caller must hold the read lock.
func (g *Graph) findCycle() []string {
	const (
		white = iota
		gray
		black
	)
	color := make([]int, len(g.order))
	parent := make([]int, len(g.order))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []string
	var visit func(u *node) bool
	visit = func(u *node) bool {
		color[u.index] = gray
		for _, v := range sortedNodes(u.dependents) {
			switch color[v.index] {
			case white:
				parent[v.index] = u.index
				if visit(v) {
					return true
				}
			case gray:
				// Back edge u -> v: walk parents from u up to v.
				rev := []string{v.id, u.id}
				for cur := parent[u.index]; cur != -1 && cur != v.index; cur = parent[cur] {
					rev = append(rev, g.order[cur].id)
				}
				rev = append(rev, v.id)
				for i := len(rev) - 1; i >= 0; i-- {
					cycle = append(cycle, rev[i])
				}
				return true
			}
		}
		color[u.index] = black
		return false
	}

	for _, n := range g.order {
		if color[n.index] == white && visit(n) {
			return cycle
		}
	}
	return nil
}

func sortedNodes(m map[string]*node) []*node {
	out := make([]*node, 0, len(m))
	for _, n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].index < out[j].index })
	return out
}

func sortedIDs(m map[string]*node) []string {
	nodes := sortedNodes(m)
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.id
	}
	return out
}

// indexHeap is a min-heap of insertion indices.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
