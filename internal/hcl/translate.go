package hcl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/pipeline"
)

// translateComponent declares a component described in HCL. It carries no
// body; the executor resolves its handler through the registry.
func translateComponent(ctx context.Context, b *componentBlock) (*component.Spec, error) {
	logger := ctxlog.FromContext(ctx).With("component", b.Name)
	logger.Debug("Translating component block.", "inputs", len(b.Inputs), "outputs", len(b.Outputs))

	inputs := make([]component.Input, 0, len(b.Inputs))
	for _, in := range b.Inputs {
		kind, err := component.ParseKind(in.Kind)
		if err != nil {
			return nil, fmt.Errorf("in component '%s', input '%s': %w", b.Name, in.Name, err)
		}
		tag, err := typeTag(ctx, kind, in.Type)
		if err != nil {
			return nil, fmt.Errorf("in component '%s', input '%s': %w", b.Name, in.Name, err)
		}
		inputs = append(inputs, component.Input{
			Name:        in.Name,
			Kind:        kind,
			Type:        tag,
			Description: in.Description,
			Default:     in.Default,
		})
	}

	outputs := make([]component.Output, 0, len(b.Outputs))
	for _, out := range b.Outputs {
		outputs = append(outputs, component.Output{
			Name:        out.Name,
			Type:        component.TypeTag(out.Type),
			Description: out.Description,
		})
	}

	opts := []component.Option{component.WithDescription(b.Description)}
	if b.Handler != "" {
		opts = append(opts, component.WithHandler(b.Handler))
	}
	return component.Declare(b.Name, inputs, outputs, nil, opts...)
}

// translateArguments turns an arguments block into bindings.
func translateArguments(ctx context.Context, t *taskBlock) (pipeline.Bindings, error) {
	bindings := pipeline.Bindings{}
	if t.Arguments == nil {
		return bindings, nil
	}

	attrs, diags := t.Arguments.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("task '%s': %w", t.ID, diags)
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	logger := ctxlog.FromContext(ctx).With("task", t.ID)
	for _, name := range names {
		expr := attrs[name].Expr
		if len(expr.Variables()) > 0 {
			ref, err := artifactRef(expr)
			if err != nil {
				return nil, fmt.Errorf("task '%s', argument '%s': %w", t.ID, name, err)
			}
			logger.Debug("Bound argument to artifact.", "argument", name, "artifact", ref.String())
			bindings[name] = pipeline.From(ref)
			continue
		}

		v, diags := expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("task '%s', argument '%s': %w", t.ID, name, diags)
		}
		bindings[name] = pipeline.Literal(v)
	}
	return bindings, nil
}

// artifactRef accepts exactly task.<id>.output.<name>.
func artifactRef(expr hcl.Expression) (artifact.Ref, error) {
	const want = "references must have the form task.<id>.output.<name>"

	trav, diags := hcl.AbsTraversalForExpr(expr)
	if diags.HasErrors() || len(trav) != 4 || trav.RootName() != "task" {
		return artifact.Ref{}, fmt.Errorf("%s", want)
	}
	attr := func(i int) string {
		if a, ok := trav[i].(hcl.TraverseAttr); ok {
			return a.Name
		}
		return ""
	}
	if attr(2) != "output" || attr(1) == "" || attr(3) == "" {
		return artifact.Ref{}, fmt.Errorf("%s", want)
	}
	return artifact.Ref{Task: attr(1), Output: attr(3)}, nil
}
