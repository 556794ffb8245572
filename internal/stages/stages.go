package stages

import (
	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/pipeline"
	"github.com/vk/gridflow/internal/registry"
	"github.com/vk/gridflow/modules/evaluate_model"
	"github.com/vk/gridflow/modules/extract_data"
	"github.com/vk/gridflow/modules/preprocess_data"
	"github.com/vk/gridflow/modules/train_model"
)

// Modules returns every built-in stage module, ready for registry.Load.
func Modules() []registry.Module {
	return []registry.Module{
		&extract_data.Module{},
		&preprocess_data.Module{},
		&train_model.Module{},
		&evaluate_model.Module{},
	}
}

// ExtractParams are the literal inputs of extract_data.
type ExtractParams struct {
	Source     string
	PreCommand []string
	WorkDir    string
}

// ExtractOutputs are the artifacts published by extract_data.
type ExtractOutputs struct {
	Dataset artifact.Ref
}

// Extract adds an extract_data task.
func Extract(b *pipeline.Builder, id string, p ExtractParams) (ExtractOutputs, error) {
	bindings := pipeline.Bindings{"source": pipeline.String(p.Source)}
	if len(p.PreCommand) > 0 {
		bindings["pre_command"] = pipeline.Strings(p.PreCommand...)
	}
	if p.WorkDir != "" {
		bindings["work_dir"] = pipeline.String(p.WorkDir)
	}

	t, err := b.Instantiate(id, extract_data.Spec, bindings)
	if err != nil {
		return ExtractOutputs{}, err
	}
	return ExtractOutputs{Dataset: t.MustOutput("dataset")}, nil
}

// PreprocessParams are the literal inputs of preprocess_data. Zero TestSize
// and nil Seed leave the component defaults in place.
type PreprocessParams struct {
	Target      string
	Categorical []string
	TestSize    float64
	Seed        *int64
}

// PreprocessOutputs are the artifacts published by preprocess_data.
type PreprocessOutputs struct {
	XTrain artifact.Ref
	XTest  artifact.Ref
	YTrain artifact.Ref
	YTest  artifact.Ref
}

// Preprocess adds a preprocess_data task reading dataset.
func Preprocess(b *pipeline.Builder, id string, dataset artifact.Ref, p PreprocessParams) (PreprocessOutputs, error) {
	bindings := pipeline.Bindings{
		"dataset": pipeline.From(dataset),
		"target":  pipeline.String(p.Target),
	}
	if len(p.Categorical) > 0 {
		bindings["categorical"] = pipeline.Strings(p.Categorical...)
	}
	if p.TestSize != 0 {
		bindings["test_size"] = pipeline.Number(p.TestSize)
	}
	if p.Seed != nil {
		bindings["seed"] = pipeline.Int(*p.Seed)
	}

	t, err := b.Instantiate(id, preprocess_data.Spec, bindings)
	if err != nil {
		return PreprocessOutputs{}, err
	}
	return PreprocessOutputs{
		XTrain: t.MustOutput("x_train"),
		XTest:  t.MustOutput("x_test"),
		YTrain: t.MustOutput("y_train"),
		YTest:  t.MustOutput("y_test"),
	}, nil
}

// TrainOutputs are the artifacts published by train_model.
type TrainOutputs struct {
	Model artifact.Ref
}

// Train adds a train_model task.
func Train(b *pipeline.Builder, id string, xTrain, yTrain artifact.Ref) (TrainOutputs, error) {
	t, err := b.Instantiate(id, train_model.Spec, pipeline.Bindings{
		"x_train": pipeline.From(xTrain),
		"y_train": pipeline.From(yTrain),
	})
	if err != nil {
		return TrainOutputs{}, err
	}
	return TrainOutputs{Model: t.MustOutput("model")}, nil
}

// EvaluateOutputs are the artifacts published by evaluate_model.
type EvaluateOutputs struct {
	Metrics artifact.Ref
}

// Evaluate adds an evaluate_model task.
func Evaluate(b *pipeline.Builder, id string, model, xTest, yTest artifact.Ref) (EvaluateOutputs, error) {
	t, err := b.Instantiate(id, evaluate_model.Spec, pipeline.Bindings{
		"model":  pipeline.From(model),
		"x_test": pipeline.From(xTest),
		"y_test": pipeline.From(yTest),
	})
	if err != nil {
		return EvaluateOutputs{}, err
	}
	return EvaluateOutputs{Metrics: t.MustOutput("metrics")}, nil
}
