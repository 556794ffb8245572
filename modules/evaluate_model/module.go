package evaluate_model

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/frame"
	"github.com/vk/gridflow/internal/fsutil"
	"github.com/vk/gridflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Spec declares the evaluate_model component.
var Spec = component.MustDeclare("evaluate_model",
	[]component.Input{
		{Name: "model", Kind: component.Artifact, Type: component.BinaryModel},
		{Name: "x_test", Kind: component.Artifact, Type: component.FeatureFrame},
		{Name: "y_test", Kind: component.Artifact, Type: component.TargetSeries},
	},
	[]component.Output{
		{Name: "metrics", Type: component.MetricsJSON},
	},
	OnRunEvaluateModel,
	component.WithDescription("Scores a model on held-out data."),
)

// OnRunEvaluateModel is the body of the evaluate_model component.
func OnRunEvaluateModel(ctx context.Context, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	paths := make(map[string]string, 3)
	for _, name := range []string{"model", "x_test", "y_test"} {
		p, err := inv.Input(name)
		if err != nil {
			return err
		}
		paths[name] = p
	}
	out, err := inv.Output("metrics")
	if err != nil {
		return err
	}

	model, err := frame.ReadModel(paths["model"])
	if err != nil {
		return err
	}
	x, err := frame.ReadFrame(paths["x_test"])
	if err != nil {
		return err
	}
	y, err := frame.ReadSeries(paths["y_test"])
	if err != nil {
		return err
	}
	if !slices.Equal(model.Features, x.Columns) {
		return fmt.Errorf("model features %v do not match test columns %v", model.Features, x.Columns)
	}
	if x.Len() != y.Len() {
		return fmt.Errorf("test frame has %d rows but target has %d", x.Len(), y.Len())
	}

	predicted := make([]float64, x.Len())
	for i, row := range x.Rows {
		predicted[i] = model.Predict(row)
	}
	scores, err := frame.Score(y.Values, predicted)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(out, append(data, '\n'), 0o644); err != nil {
		return err
	}

	logger.Info("✓ Model evaluated", "rmse", scores.RMSE, "r2", scores.R2, "samples", scores.Samples)
	return nil
}

// Register registers the component with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent(Spec)
}
