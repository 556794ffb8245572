package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/compiler"
	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/events"
	"github.com/zclconf/go-cty/cty"
)

// runTask resolves a task's bindings, calls its body and publishes its outputs.
func (e *Executor) runTask(ctx context.Context, task *compiler.Task) ([]artifact.Info, error) {
	ctx, logger := ctxlog.With(ctx, "task", task.ID, "component", task.Component)
	logger.Info("▶️ Starting task")
	e.sink.Emit(ctx, events.Event{RunID: e.runID, Type: events.TaskStarted, Task: task.ID, Component: task.Component, Time: time.Now()})

	body, ok := e.registry.Handler(task.Handler)
	if !ok {
		return nil, fmt.Errorf("handler '%s' not registered", task.Handler)
	}

	inv := &component.Invocation{
		Task:      task.ID,
		Component: task.Component,
		Literals:  make(map[string]cty.Value),
		Inputs:    make(map[string]string),
		Outputs:   make(map[string]string, len(task.Outputs)),
	}
	for _, in := range task.Inputs {
		switch in.Kind {
		case component.Literal:
			v, err := compiler.LiteralValue(in.Value, in.Type)
			if err != nil {
				return nil, fmt.Errorf("decoding input %q: %w", in.Name, err)
			}
			inv.Literals[in.Name] = v
		case component.Artifact:
			path, err := e.store.Resolve(ctx, in.Artifact.Ref())
			if err != nil {
				return nil, fmt.Errorf("resolving input %q: %w", in.Name, err)
			}
			inv.Inputs[in.Name] = path
		}
	}

	refs := make([]artifact.Ref, 0, len(task.Outputs))
	for _, out := range task.Outputs {
		ref := artifact.Ref{Task: task.ID, Output: out.Name}
		path, err := e.store.Stage(ctx, ref)
		if err != nil {
			e.discard(ctx, refs)
			return nil, fmt.Errorf("staging output %q: %w", out.Name, err)
		}
		refs = append(refs, ref)
		inv.Outputs[out.Name] = path
	}

	logger.Debug("Calling task body.", "handler", task.Handler, "literals", len(inv.Literals), "inputs", len(inv.Inputs))
	if err := callBody(ctx, body, inv); err != nil {
		e.discard(ctx, refs)
		return nil, err
	}

	infos := make([]artifact.Info, 0, len(refs))
	for i, ref := range refs {
		info, err := e.store.Publish(ctx, ref)
		if err != nil {
			e.discard(ctx, refs[i:])
			return infos, fmt.Errorf("publishing output %q: %w", ref.Output, err)
		}
		e.metrics.ArtifactPublished(string(task.Outputs[i].Type), info.Size)
		logger.Debug("Published artifact.", "artifact", ref.String(), "bytes", info.Size, "sha256", info.SHA256)
		infos = append(infos, info)
	}

	logger.Info("✅ Finished task")
	return infos, nil
}

// callBody turns a panicking body into an error.
func callBody(ctx context.Context, body component.Body, inv *component.Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("body panicked: %v", r)
		}
	}()
	return body(ctx, inv)
}

func (e *Executor) discard(ctx context.Context, refs []artifact.Ref) {
	logger := ctxlog.FromContext(ctx)
	for _, ref := range refs {
		if err := e.store.Discard(ctx, ref); err != nil && !errors.Is(err, artifact.ErrNotStaged) {
			logger.Warn("Failed to discard staged artifact.", "artifact", ref.String(), "error", err)
		}
	}
}
