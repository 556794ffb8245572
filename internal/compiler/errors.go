package compiler

import (
	"fmt"
	"strings"

	"github.com/vk/gridflow/internal/component"
)

// CycleDetectedError reports tasks that depend on each other. Builders cannot
// produce one; it guards graphs assembled some other way.
type CycleDetectedError struct {
	Pipeline string
	Path     []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("pipeline %q: cycle detected: %s", e.Pipeline, strings.Join(e.Path, " -> "))
}

func (e *CycleDetectedError) Unwrap() error { return component.ErrInvalidDefinition }

// DocumentError reports a workflow document that fails validation.
type DocumentError struct {
	Task   string
	Reason string
}

func (e *DocumentError) Error() string {
	if e.Task == "" {
		return "invalid workflow: " + e.Reason
	}
	return fmt.Sprintf("invalid workflow: task %q: %s", e.Task, e.Reason)
}

func (e *DocumentError) Unwrap() error { return component.ErrInvalidDefinition }
