package train_model

import (
	"context"

	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/frame"
	"github.com/vk/gridflow/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Spec declares the train_model component.
var Spec = component.MustDeclare("train_model",
	[]component.Input{
		{Name: "x_train", Kind: component.Artifact, Type: component.FeatureFrame},
		{Name: "y_train", Kind: component.Artifact, Type: component.TargetSeries},
	},
	[]component.Output{
		{Name: "model", Type: component.BinaryModel},
	},
	OnRunTrainModel,
	component.WithDescription("Fits a least-squares linear regression."),
)

// OnRunTrainModel is the body of the train_model component.
func OnRunTrainModel(ctx context.Context, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	xPath, err := inv.Input("x_train")
	if err != nil {
		return err
	}
	yPath, err := inv.Input("y_train")
	if err != nil {
		return err
	}
	out, err := inv.Output("model")
	if err != nil {
		return err
	}

	x, err := frame.ReadFrame(xPath)
	if err != nil {
		return err
	}
	y, err := frame.ReadSeries(yPath)
	if err != nil {
		return err
	}
	model, err := frame.FitOLS(x, y)
	if err != nil {
		return err
	}
	if err := frame.Write(out, model); err != nil {
		return err
	}

	logger.Info("✓ Model trained", "kind", model.Kind, "samples", x.Len(), "intercept", model.Intercept)
	return nil
}

// Register registers the component with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent(Spec)
}
