package preprocess_data

import (
	"context"
	"fmt"

	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/frame"
	"github.com/vk/gridflow/internal/registry"
	"github.com/zclconf/go-cty/cty"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var (
	noColumns       = cty.ListValEmpty(cty.String)
	defaultTestSize = cty.NumberFloatVal(0.2)
	defaultSeed     = cty.NumberIntVal(42)
)

// Spec declares the preprocess_data component.
var Spec = component.MustDeclare("preprocess_data",
	[]component.Input{
		{Name: "dataset", Kind: component.Artifact, Type: component.TabularCSV},
		{Name: "target", Kind: component.Literal, Type: "string", Description: "Column to predict."},
		{Name: "categorical", Kind: component.Literal, Type: "list(string)", Default: &noColumns, Description: "Columns to label encode."},
		{Name: "test_size", Kind: component.Literal, Type: "number", Default: &defaultTestSize, Description: "Fraction of rows held out for evaluation."},
		{Name: "seed", Kind: component.Literal, Type: "number", Default: &defaultSeed, Description: "Seed of the train/test shuffle."},
	},
	[]component.Output{
		{Name: "x_train", Type: component.FeatureFrame},
		{Name: "x_test", Type: component.FeatureFrame},
		{Name: "y_train", Type: component.TargetSeries},
		{Name: "y_test", Type: component.TargetSeries},
	},
	OnRunPreprocessData,
	component.WithDescription("Encodes a dataset into features and target and splits it into train and test sets."),
)

// OnRunPreprocessData is the body of the preprocess_data component.
func OnRunPreprocessData(ctx context.Context, inv *component.Invocation) error {
	logger := ctxlog.FromContext(ctx)

	dataset, err := inv.Input("dataset")
	if err != nil {
		return err
	}
	target, err := inv.String("target")
	if err != nil {
		return err
	}
	categorical, err := inv.Strings("categorical")
	if err != nil {
		return err
	}
	testSize, err := inv.Number("test_size")
	if err != nil {
		return err
	}
	seed, err := inv.Int("seed")
	if err != nil {
		return err
	}

	tbl, err := frame.ReadTable(dataset)
	if err != nil {
		return err
	}
	x, y, err := frame.Encode(tbl, target, categorical)
	if err != nil {
		return err
	}
	train, test, err := frame.Split(x.Len(), testSize, seed)
	if err != nil {
		return err
	}

	outputs := map[string]any{
		"x_train": x.Subset(train),
		"x_test":  x.Subset(test),
		"y_train": y.Subset(train),
		"y_test":  y.Subset(test),
	}
	for name, v := range outputs {
		path, err := inv.Output(name)
		if err != nil {
			return err
		}
		if err := frame.Write(path, v); err != nil {
			return fmt.Errorf("writing %s: %w", name, err)
		}
	}

	logger.Info("✓ Data preprocessed", "train_rows", len(train), "test_rows", len(test), "features", len(x.Columns))
	return nil
}

// Register registers the component with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterComponent(Spec)
}
