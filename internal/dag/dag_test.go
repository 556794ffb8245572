package dag

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
	assert.Zero(t, g.Len())
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Len(t, g.nodes, 1)
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)
	assert.Equal(t, 0, nodeA.index)
	assert.NotNil(t, nodeA.deps)
	assert.NotNil(t, nodeA.dependents)

	g.AddNode("a") // Test idempotency
	assert.Len(t, g.nodes, 1)

	g.AddNode("b")
	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, g.nodes["b"].index)
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("a", "b") // b depends on a
		require.NoError(t, err)

		nodeA := g.nodes["a"]
		nodeB := g.nodes["b"]

		assert.Contains(t, nodeA.dependents, "b")
		assert.Equal(t, nodeB, nodeA.dependents["b"])
		assert.Contains(t, nodeB.deps, "a")
		assert.Equal(t, nodeA, nodeB.deps["a"])

		require.NoError(t, g.AddEdge("a", "b"))
		assert.Len(t, nodeB.deps, 1)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge")
	})
}

func TestDependenciesAndDependents(t *testing.T) {
	g := New()
	for _, id := range []string{"c", "a", "b", "d"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("b", "d"))
	require.NoError(t, g.AddEdge("a", "d"))
	require.NoError(t, g.AddEdge("c", "d"))
	require.NoError(t, g.AddEdge("c", "b"))

	deps, err := g.Dependencies("d")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, deps, "ordered by insertion, not by name")

	dependents, err := g.Dependents("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "d"}, dependents)

	deps, err = g.Dependencies("c")
	require.NoError(t, err)
	assert.Empty(t, deps)

	_, err = g.Dependencies("zzz")
	assert.ErrorContains(t, err, "node not found")
	_, err = g.Dependents("zzz")
	assert.ErrorContains(t, err, "node not found")
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		g := New()
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("graph with nodes but no edges has no cycles", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		g.AddNode("d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c")) // Transitive edge
		require.NoError(t, g.AddEdge("c", "d"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("simple direct cycle is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a")) // Cycle
		err := g.DetectCycles()
		require.Error(t, err)
		assert.ErrorContains(t, err, "cycle detected")

		var cerr *CycleError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, []string{"a", "b", "a"}, cerr.Path)
	})

	t.Run("longer cycle is detected", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		g.AddNode("d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "d"))
		require.NoError(t, g.AddEdge("d", "a")) // Cycle back to the start
		err := g.DetectCycles()
		require.Error(t, err)
		assert.EqualError(t, err, "cycle detected: a -> b -> c -> d -> a")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := New()
		// Component 1 (valid)
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))

		// Component 2 (has a cycle)
		g.AddNode("x")
		g.AddNode("y")
		g.AddNode("z")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "z"))
		require.NoError(t, g.AddEdge("z", "y")) // Cycle

		err := g.DetectCycles()
		var cerr *CycleError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, []string{"y", "z", "y"}, cerr.Path)
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("independent nodes keep insertion order", func(t *testing.T) {
		g := New()
		for _, id := range []string{"m", "z", "a"} {
			g.AddNode(id)
		}
		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"m", "z", "a"}, order)
	})

	t.Run("chain added in reverse", func(t *testing.T) {
		g := New()
		g.AddNode("evaluate")
		g.AddNode("train")
		g.AddNode("preprocess")
		g.AddNode("extract")
		require.NoError(t, g.AddEdge("extract", "preprocess"))
		require.NoError(t, g.AddEdge("preprocess", "train"))
		require.NoError(t, g.AddEdge("train", "evaluate"))
		require.NoError(t, g.AddEdge("preprocess", "evaluate"))

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"extract", "preprocess", "train", "evaluate"}, order)
	})

	t.Run("ready nodes are released by insertion index", func(t *testing.T) {
		g := New()
		for _, id := range []string{"root", "late", "early", "leaf"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("root", "early"))
		require.NoError(t, g.AddEdge("root", "late"))
		require.NoError(t, g.AddEdge("early", "leaf"))
		require.NoError(t, g.AddEdge("late", "leaf"))

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"root", "late", "early", "leaf"}, order)
	})

	t.Run("cycle yields CycleError", func(t *testing.T) {
		g := New()
		g.AddNode("ok")
		g.AddNode("p")
		g.AddNode("q")
		require.NoError(t, g.AddEdge("p", "q"))
		require.NoError(t, g.AddEdge("q", "p"))

		order, err := g.TopologicalOrder()
		assert.Nil(t, order)
		var cerr *CycleError
		require.True(t, errors.As(err, &cerr))
		assert.Equal(t, []string{"p", "q", "p"}, cerr.Path)
	})
}

func TestConcurrentAccess(t *testing.T) {
	g := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			g.AddNode(fmt.Sprintf("n%d", i))
			_, _ = g.TopologicalOrder()
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, g.Len())
}

// randomDAG builds a graph whose edges only point from lower to higher
// generated positions, then inserts the nodes in a shuffled order.
func randomDAG(t *rapid.T) (*Graph, [][2]string) {
	n := rapid.IntRange(0, 25).Draw(t, "n")
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("t%02d", i)
	}

	var edges [][2]string
	for to := 1; to < n; to++ {
		for from := 0; from < to; from++ {
			if rapid.Bool().Draw(t, fmt.Sprintf("e%d_%d", from, to)) {
				edges = append(edges, [2]string{ids[from], ids[to]})
			}
		}
	}

	g := New()
	for _, i := range rapid.Permutation(indices(n)).Draw(t, "insert") {
		g.AddNode(ids[i])
	}
	for _, e := range edges {
		if err := g.AddEdge(e[0], e[1]); err != nil {
			t.Fatalf("AddEdge: %v", err)
		}
	}
	return g, edges
}

func indices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestTopologicalOrderProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g, edges := randomDAG(t)

		order, err := g.TopologicalOrder()
		if err != nil {
			t.Fatalf("acyclic graph reported error: %v", err)
		}
		if len(order) != g.Len() {
			t.Fatalf("order has %d nodes, graph has %d", len(order), g.Len())
		}

		pos := make(map[string]int, len(order))
		for i, id := range order {
			if _, dup := pos[id]; dup {
				t.Fatalf("node %s listed twice", id)
			}
			pos[id] = i
		}
		for _, e := range edges {
			if pos[e[0]] >= pos[e[1]] {
				t.Fatalf("edge %s -> %s violated in %v", e[0], e[1], order)
			}
		}

		again, err := g.TopologicalOrder()
		if err != nil {
			t.Fatal(err)
		}
		for i := range order {
			if order[i] != again[i] {
				t.Fatalf("order not stable: %v vs %v", order, again)
			}
		}
		if err := g.DetectCycles(); err != nil {
			t.Fatalf("DetectCycles on DAG: %v", err)
		}
	})
}

func TestCycleWitnessIsClosedPath(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g, _ := randomDAG(t)
		if g.Len() < 2 {
			return
		}
		order, err := g.TopologicalOrder()
		if err != nil {
			t.Fatal(err)
		}
		// Any back edge against the topological order closes a cycle.
		i := rapid.IntRange(0, len(order)-2).Draw(t, "i")
		j := rapid.IntRange(i+1, len(order)-1).Draw(t, "j")
		if err := g.AddEdge(order[j], order[i]); err != nil {
			t.Fatal(err)
		}
		if err := g.AddEdge(order[i], order[j]); err != nil {
			t.Fatal(err)
		}

		var cerr *CycleError
		if !errors.As(g.DetectCycles(), &cerr) {
			t.Fatal("expected CycleError")
		}
		p := cerr.Path
		if len(p) < 3 || p[0] != p[len(p)-1] {
			t.Fatalf("witness is not a closed path: %v", p)
		}
		for k := 0; k+1 < len(p); k++ {
			deps, err := g.Dependencies(p[k+1])
			if err != nil {
				t.Fatal(err)
			}
			found := false
			for _, d := range deps {
				if d == p[k] {
					found = true
				}
			}
			if !found {
				t.Fatalf("witness step %s -> %s is not an edge", p[k], p[k+1])
			}
		}
	})
}
