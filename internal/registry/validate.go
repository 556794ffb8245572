package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/gridflow/internal/compiler"
	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/ctxlog"
)

// ValidateWorkflow performs a strict parity check between a compiled
// workflow and the Go code: every handler must be registered, and tasks of a
// registered component must declare the same inputs and outputs as its Go
// spec. All problems are reported together.
func (r *Registry) ValidateWorkflow(ctx context.Context, wf *compiler.Workflow) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)
	missing := false

	for _, task := range wf.Tasks {
		if _, ok := r.Handler(task.Handler); !ok {
			errs = append(errs, fmt.Sprintf("task '%s': handler '%s' is not registered", task.ID, task.Handler))
			missing = true
		}

		spec, ok := r.Component(task.Component)
		if !ok {
			logger.Debug("Task component is not registered in Go; skipping parity check.", "task", task.ID, "component", task.Component)
			continue
		}
		errs = append(errs, parity(task, spec)...)
	}

	if missing {
		errs = append(errs, fmt.Sprintf("registered handlers: %s", strings.Join(r.Handlers(), ", ")))
	}
	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func parity(task compiler.Task, spec *component.Spec) []string {
	var errs []string

	docInputs := make(map[string]compiler.Input, len(task.Inputs))
	for _, in := range task.Inputs {
		docInputs[in.Name] = in
	}
	for _, decl := range spec.Inputs {
		in, ok := docInputs[decl.Name]
		if !ok {
			errs = append(errs, fmt.Sprintf("task '%s': component '%s' declares input '%s' which the workflow does not bind", task.ID, spec.Name, decl.Name))
			continue
		}
		if in.Kind != decl.Kind || in.Type != decl.Type {
			errs = append(errs, fmt.Sprintf("task '%s', input '%s': type mismatch. Go component requires %s '%s' but workflow provides %s '%s'",
				task.ID, decl.Name, decl.Kind, decl.Type, in.Kind, in.Type))
		}
		delete(docInputs, decl.Name)
	}
	extra := make([]string, 0, len(docInputs))
	for name := range docInputs {
		extra = append(extra, name)
	}
	sort.Strings(extra)
	for _, name := range extra {
		errs = append(errs, fmt.Sprintf("task '%s': workflow binds input '%s' which component '%s' does not declare", task.ID, name, spec.Name))
	}

	docOutputs := make(map[string]component.TypeTag, len(task.Outputs))
	for _, o := range task.Outputs {
		docOutputs[o.Name] = o.Type
	}
	for _, decl := range spec.Outputs {
		tag, ok := docOutputs[decl.Name]
		if !ok {
			errs = append(errs, fmt.Sprintf("task '%s': component '%s' declares output '%s' missing from the workflow", task.ID, spec.Name, decl.Name))
			continue
		}
		if tag != decl.Type {
			errs = append(errs, fmt.Sprintf("task '%s', output '%s': type mismatch. Go component produces '%s' but workflow expects '%s'",
				task.ID, decl.Name, decl.Type, tag))
		}
	}
	return errs
}
