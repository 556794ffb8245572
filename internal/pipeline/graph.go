package pipeline

import (
	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/component"
)

// Edge is a consumes-output dependency: To reads Ref, which From produces.
type Edge struct {
	From  string
	To    string
	Ref   artifact.Ref
	Input string
}

// Graph is an immutable set of tasks in instantiation order.
type Graph struct {
	name        string
	description string
	tasks       []*TaskNode
	byID        map[string]*TaskNode
}

func newGraph(name, description string, tasks []*TaskNode) *Graph {
	g := &Graph{
		name:        name,
		description: description,
		tasks:       tasks,
		byID:        make(map[string]*TaskNode, len(tasks)),
	}
	for _, t := range tasks {
		g.byID[t.ID] = t
	}
	return g
}

// Name returns the pipeline name.
func (g *Graph) Name() string { return g.name }

// Description returns the pipeline description.
func (g *Graph) Description() string { return g.description }

// Tasks returns the tasks in instantiation order.
func (g *Graph) Tasks() []*TaskNode {
	out := make([]*TaskNode, len(g.tasks))
	copy(out, g.tasks)
	return out
}

// Task returns the task with the given ID.
func (g *Graph) Task(id string) (*TaskNode, bool) {
	t, ok := g.byID[id]
	return t, ok
}

// Edges lists every dependency, ordered by consumer then by input declaration.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, t := range g.tasks {
		for _, in := range t.Inputs {
			if in.Kind != component.Artifact {
				continue
			}
			edges = append(edges, Edge{From: in.Ref.Task, To: t.ID, Ref: in.Ref, Input: in.Name})
		}
	}
	return edges
}

// Consumers returns the IDs of the tasks that read ref, in instantiation
// order. Outputs nobody reads yield nil.
func (g *Graph) Consumers(ref artifact.Ref) []string {
	var ids []string
	for _, t := range g.tasks {
		for _, in := range t.Inputs {
			if in.Kind == component.Artifact && in.Ref == ref {
				ids = append(ids, t.ID)
				break
			}
		}
	}
	return ids
}
