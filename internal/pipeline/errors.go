package pipeline

import (
	"fmt"

	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/component"
)

// UnboundInputError reports a required input that was given no binding.
type UnboundInputError struct {
	Task      string
	Component string
	Input     string
}

func (e *UnboundInputError) Error() string {
	return fmt.Sprintf("task %q (%s): required input %q is not bound", e.Task, e.Component, e.Input)
}

func (e *UnboundInputError) Unwrap() error { return component.ErrInvalidDefinition }

// UnknownInputError reports a binding for an input the component does not declare.
type UnknownInputError struct {
	Task      string
	Component string
	Input     string
}

func (e *UnknownInputError) Error() string {
	return fmt.Sprintf("task %q (%s): component has no input %q", e.Task, e.Component, e.Input)
}

func (e *UnknownInputError) Unwrap() error { return component.ErrInvalidDefinition }

// UnknownArtifactError reports a reference to a task or output that does not
// exist, or to a task that has not been instantiated yet.
type UnknownArtifactError struct {
	Task   string
	Input  string
	Ref    artifact.Ref
	Reason string
}

func (e *UnknownArtifactError) Error() string {
	return fmt.Sprintf("task %q, input %q: unknown artifact %s: %s", e.Task, e.Input, e.Ref, e.Reason)
}

func (e *UnknownArtifactError) Unwrap() error { return component.ErrInvalidDefinition }

// TypeMismatchError reports a binding whose kind or type tag differs from the
// input's declaration.
type TypeMismatchError struct {
	Task  string
	Input string
	Want  string
	Got   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("task %q, input %q: type mismatch: want %s, got %s", e.Task, e.Input, e.Want, e.Got)
}

func (e *TypeMismatchError) Unwrap() error { return component.ErrInvalidDefinition }

// DuplicateTaskError reports a second task with an ID already in use.
type DuplicateTaskError struct {
	Task string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q is already defined", e.Task)
}

func (e *DuplicateTaskError) Unwrap() error { return component.ErrInvalidDefinition }
