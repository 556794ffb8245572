package pipeline

import (
	"fmt"
	"sort"

	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/component"
)

// Option customises a Builder.
type Option func(*Builder)

// WithDescription sets the pipeline description carried into the compiled workflow.
func WithDescription(d string) Option {
	return func(b *Builder) { b.description = d }
}

// Builder accumulates tasks for one pipeline. It is not safe for concurrent use.
type Builder struct {
	name        string
	description string
	tasks       []*TaskNode
	byID        map[string]*TaskNode
}

// NewBuilder starts an empty pipeline called name.
func NewBuilder(name string, opts ...Option) *Builder {
	b := &Builder{
		name: name,
		byID: make(map[string]*TaskNode),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Instantiate adds a task running spec with the given bindings. An empty id
// defaults to the component name. Artifact bindings may only reference tasks
// already added to this Builder.
func (b *Builder) Instantiate(id string, spec *component.Spec, bindings Bindings) (*TaskNode, error) {
	if spec == nil {
		return nil, fmt.Errorf("task %q: nil component: %w", id, component.ErrInvalidDefinition)
	}
	if id == "" {
		id = spec.Name
	}
	if !component.ValidName(id) {
		return nil, &component.InvalidNameError{Field: "task", Name: id}
	}
	if _, exists := b.byID[id]; exists {
		return nil, &DuplicateTaskError{Task: id}
	}

	// Undeclared names are reported first, in a stable order.
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := spec.Input(name); !ok {
			return nil, &UnknownInputError{Task: id, Component: spec.Name, Input: name}
		}
	}

	task := &TaskNode{ID: id, Spec: spec}
	for _, decl := range spec.Inputs {
		in, err := bind(id, spec, decl, bindings)
		if err != nil {
			return nil, err
		}
		task.Inputs = append(task.Inputs, in)
	}
	for _, out := range spec.Outputs {
		task.Outputs = append(task.Outputs, artifact.Ref{Task: id, Output: out.Name})
	}

	if err := task.Check(b.lookup); err != nil {
		return nil, err
	}

	b.tasks = append(b.tasks, task)
	b.byID[id] = task
	return task, nil
}

// bind resolves the binding for one declared input.
func bind(task string, spec *component.Spec, decl component.Input, bindings Bindings) (BoundInput, error) {
	in := BoundInput{Name: decl.Name, Kind: decl.Kind, Type: decl.Type}

	binding, ok := bindings[decl.Name]
	if !ok || binding.isNull() {
		if decl.Default == nil {
			return in, &UnboundInputError{Task: task, Component: spec.Name, Input: decl.Name}
		}
		in.Value = *decl.Default
		in.Defaulted = true
		return in, nil
	}

	switch {
	case decl.Kind == component.Artifact && !binding.isRef:
		return in, &TypeMismatchError{
			Task:  task,
			Input: decl.Name,
			Want:  describe(decl.Kind, decl.Type),
			Got:   fmt.Sprintf("literal %s", binding.value.Type().FriendlyName()),
		}
	case decl.Kind == component.Literal && binding.isRef:
		return in, &TypeMismatchError{
			Task:  task,
			Input: decl.Name,
			Want:  describe(decl.Kind, decl.Type),
			Got:   fmt.Sprintf("artifact reference %s", binding.ref),
		}
	case binding.isRef:
		in.Ref = binding.ref
		return in, nil
	}

	v, err := conform(task, spec.Name, decl, binding.value)
	if err != nil {
		return in, err
	}
	in.Value = v
	return in, nil
}

func (b *Builder) lookup(id string) (*TaskNode, bool) {
	t, ok := b.byID[id]
	return t, ok
}

// Graph returns a snapshot of the tasks added so far. Later calls to
// Instantiate do not affect a returned Graph.
func (b *Builder) Graph() *Graph {
	tasks := make([]*TaskNode, len(b.tasks))
	copy(tasks, b.tasks)
	return newGraph(b.name, b.description, tasks)
}
