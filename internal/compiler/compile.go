package compiler

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/dag"
	"github.com/vk/gridflow/internal/pipeline"
)

// Source is what Compile reads. *pipeline.Graph satisfies it.
type Source interface {
	Name() string
	Description() string
	Tasks() []*pipeline.TaskNode
}

// Compile validates src and produces its Workflow. It either returns a
// complete document or an error naming the offending task; there is no
// partial result.
func Compile(ctx context.Context, src Source) (*Workflow, error) {
	logger := ctxlog.FromContext(ctx).With("pipeline", src.Name())
	logger.Debug("Compiling pipeline.")

	if !component.ValidName(src.Name()) {
		return nil, &component.InvalidNameError{Field: "pipeline", Name: src.Name()}
	}

	tasks := src.Tasks()
	byID := make(map[string]*pipeline.TaskNode, len(tasks))
	g := dag.New()
	for _, t := range tasks {
		if _, dup := byID[t.ID]; dup {
			return nil, &pipeline.DuplicateTaskError{Task: t.ID}
		}
		byID[t.ID] = t
		g.AddNode(t.ID)
	}

	lookup := func(id string) (*pipeline.TaskNode, bool) {
		t, ok := byID[id]
		return t, ok
	}
	for _, t := range tasks {
		if err := t.Check(lookup); err != nil {
			return nil, err
		}
	}

	for _, t := range tasks {
		for _, dep := range t.Dependencies() {
			if dep == t.ID {
				return nil, &CycleDetectedError{Pipeline: src.Name(), Path: []string{t.ID, t.ID}}
			}
			if err := g.AddEdge(dep, t.ID); err != nil {
				return nil, fmt.Errorf("pipeline %q: %w", src.Name(), err)
			}
		}
	}

	order, err := g.TopologicalOrder()
	if err != nil {
		var cycle *dag.CycleError
		if errors.As(err, &cycle) {
			return nil, &CycleDetectedError{Pipeline: src.Name(), Path: cycle.Path}
		}
		return nil, err
	}

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}

	wf := &Workflow{
		APIVersion:  APIVersion,
		Kind:        DocumentKind,
		Name:        src.Name(),
		Description: src.Description(),
		Tasks:       make([]Task, 0, len(order)),
	}
	for _, id := range order {
		task, err := compileTask(byID[id], position)
		if err != nil {
			return nil, err
		}
		wf.Tasks = append(wf.Tasks, task)
	}

	if wf.Fingerprint, err = fingerprint(wf.Tasks); err != nil {
		return nil, err
	}

	logger.Info("Pipeline compiled.", "tasks", len(wf.Tasks), "fingerprint", wf.Fingerprint)
	return wf, nil
}

func compileTask(t *pipeline.TaskNode, position map[string]int) (Task, error) {
	out := Task{
		ID:        t.ID,
		Component: t.Spec.Name,
		Handler:   t.Spec.Handler,
		Inputs:    make([]Input, 0, len(t.Inputs)),
		Outputs:   make([]Output, 0, len(t.Spec.Outputs)),
	}
	if out.Handler == "" {
		out.Handler = t.Spec.Name
	}

	deps := t.Dependencies()
	sortByPosition(deps, position)
	out.DependsOn = deps

	for _, in := range t.Inputs {
		ci := Input{Name: in.Name, Kind: in.Kind, Type: in.Type}
		if in.Kind == component.Artifact {
			ci.Artifact = &ArtifactRef{Task: in.Ref.Task, Output: in.Ref.Output}
		} else {
			v, err := plainValue(in.Value)
			if err != nil {
				return Task{}, fmt.Errorf("task %q, input %q: %w", t.ID, in.Name, err)
			}
			ci.Value = v
		}
		out.Inputs = append(out.Inputs, ci)
	}
	for _, o := range t.Spec.Outputs {
		out.Outputs = append(out.Outputs, Output{Name: o.Name, Type: o.Type})
	}
	return out, nil
}

// sortByPosition orders ids by their place in the compiled order.
func sortByPosition(ids []string, position map[string]int) {
	sort.SliceStable(ids, func(i, j int) bool { return position[ids[i]] < position[ids[j]] })
}
