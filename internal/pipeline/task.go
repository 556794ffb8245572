package pipeline

import (
	"fmt"

	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/component"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// BoundInput is one resolved input of a task.
type BoundInput struct {
	Name string
	Kind component.Kind
	Type component.TypeTag
	// Value is set for literal inputs.
	Value cty.Value
	// Ref is set for artifact inputs.
	Ref artifact.Ref
	// Defaulted is true when the value came from the component's default.
	Defaulted bool
}

// TaskNode is one instantiation of a component. Its bindings are fixed when
// Instantiate returns.
type TaskNode struct {
	ID   string
	Spec *component.Spec
	// Inputs follow the component's input declaration order.
	Inputs []BoundInput
	// Outputs follow the component's output declaration order.
	Outputs []artifact.Ref
}

// Output returns the reference to the task's output called name.
func (t *TaskNode) Output(name string) (artifact.Ref, error) {
	for _, ref := range t.Outputs {
		if ref.Output == name {
			return ref, nil
		}
	}
	return artifact.Ref{}, &UnknownArtifactError{
		Task:   t.ID,
		Ref:    artifact.Ref{Task: t.ID, Output: name},
		Reason: fmt.Sprintf("component %q has no such output", t.Spec.Name),
	}
}

// MustOutput is Output for names known to be declared; it panics otherwise.
func (t *TaskNode) MustOutput(name string) artifact.Ref {
	ref, err := t.Output(name)
	if err != nil {
		panic(err)
	}
	return ref
}

// Dependencies returns the IDs of the tasks whose outputs this task consumes,
// in order of first use.
func (t *TaskNode) Dependencies() []string {
	var deps []string
	seen := make(map[string]bool)
	for _, in := range t.Inputs {
		if in.Kind != component.Artifact || seen[in.Ref.Task] {
			continue
		}
		seen[in.Ref.Task] = true
		deps = append(deps, in.Ref.Task)
	}
	return deps
}

// Lookup finds a task by ID.
type Lookup func(id string) (*TaskNode, bool)

// Check re-validates a task against the tasks visible through lookup. The
// Builder runs it on every new task; the compiler runs it again on the whole
// graph before ordering.
func (t *TaskNode) Check(lookup Lookup) error {
	if !component.ValidName(t.ID) {
		return &component.InvalidNameError{Field: "task", Name: t.ID}
	}
	if t.Spec == nil {
		return fmt.Errorf("task %q has no component: %w", t.ID, component.ErrInvalidDefinition)
	}

	seenOut := make(map[string]bool, len(t.Spec.Outputs))
	for _, out := range t.Spec.Outputs {
		if seenOut[out.Name] {
			return &component.DuplicateOutputError{Component: t.Spec.Name, Output: out.Name}
		}
		seenOut[out.Name] = true
	}

	bound := make(map[string]BoundInput, len(t.Inputs))
	for _, in := range t.Inputs {
		if _, ok := t.Spec.Input(in.Name); !ok {
			return &UnknownInputError{Task: t.ID, Component: t.Spec.Name, Input: in.Name}
		}
		bound[in.Name] = in
	}

	for _, decl := range t.Spec.Inputs {
		in, ok := bound[decl.Name]
		if !ok {
			return &UnboundInputError{Task: t.ID, Component: t.Spec.Name, Input: decl.Name}
		}
		if in.Kind != decl.Kind {
			return &TypeMismatchError{Task: t.ID, Input: decl.Name, Want: describe(decl.Kind, decl.Type), Got: in.Kind.String()}
		}
		if decl.Kind == component.Literal {
			if _, err := conform(t.ID, t.Spec.Name, decl, in.Value); err != nil {
				return err
			}
			continue
		}
		if err := checkRef(t.ID, decl, in.Ref, lookup); err != nil {
			return err
		}
	}
	return nil
}

// checkRef verifies that ref names an existing output with a matching tag.
func checkRef(task string, decl component.Input, ref artifact.Ref, lookup Lookup) error {
	producer, ok := lookup(ref.Task)
	if !ok {
		return &UnknownArtifactError{Task: task, Input: decl.Name, Ref: ref, Reason: fmt.Sprintf("no earlier task %q", ref.Task)}
	}
	out, ok := producer.Spec.Output(ref.Output)
	if !ok {
		return &UnknownArtifactError{
			Task:   task,
			Input:  decl.Name,
			Ref:    ref,
			Reason: fmt.Sprintf("component %q has no output %q", producer.Spec.Name, ref.Output),
		}
	}
	if out.Type != decl.Type {
		return &TypeMismatchError{
			Task:  task,
			Input: decl.Name,
			Want:  describe(component.Artifact, decl.Type),
			Got:   fmt.Sprintf("%s from %s", describe(component.Artifact, out.Type), ref),
		}
	}
	return nil
}

// conform converts a literal to the input's declared type.
func conform(task, comp string, decl component.Input, v cty.Value) (cty.Value, error) {
	ty, err := component.LiteralType(decl.Type)
	if err != nil {
		return cty.NilVal, &TypeMismatchError{Task: task, Input: decl.Name, Want: string(decl.Type), Got: err.Error()}
	}
	if v == cty.NilVal || v.IsNull() {
		return cty.NilVal, &UnboundInputError{Task: task, Component: comp, Input: decl.Name}
	}
	if !v.IsWhollyKnown() {
		return cty.NilVal, &TypeMismatchError{Task: task, Input: decl.Name, Want: string(decl.Type), Got: "unknown value"}
	}
	out, err := convert.Convert(v, ty)
	if err != nil {
		return cty.NilVal, &TypeMismatchError{
			Task:  task,
			Input: decl.Name,
			Want:  describe(component.Literal, decl.Type),
			Got:   fmt.Sprintf("%s (%s)", v.Type().FriendlyName(), err),
		}
	}
	return out, nil
}

func describe(kind component.Kind, tag component.TypeTag) string {
	return fmt.Sprintf("%s %s", kind, tag)
}
