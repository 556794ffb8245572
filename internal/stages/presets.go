package stages

import (
	"fmt"
	"sort"

	"github.com/vk/gridflow/internal/pipeline"
)

// Preset is a complete extract, preprocess, train and evaluate pipeline.
type Preset struct {
	Description string
	Extract     ExtractParams
	Preprocess  PreprocessParams
}

// Presets are the pipelines available without a definition file.
var Presets = map[string]Preset{
	"insurance": {
		Description: "Predicts medical insurance charges.",
		Extract: ExtractParams{
			Source:     "data/insurance.csv",
			PreCommand: []string{"dvc", "pull"},
		},
		Preprocess: PreprocessParams{
			Target:      "charges",
			Categorical: []string{"sex", "smoker", "region"},
		},
	},
	"housing": {
		Description: "Predicts California median house values.",
		Extract: ExtractParams{
			Source: "data/raw_data.csv",
		},
		Preprocess: PreprocessParams{
			Target: "MedHouseVal",
		},
	},
}

// PresetNames lists the preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build assembles the four-task pipeline described by p under the given name.
// The tasks are extract, preprocess, train and evaluate.
func Build(name string, p Preset) (*pipeline.Graph, error) {
	b := pipeline.NewBuilder(name, pipeline.WithDescription(p.Description))

	ex, err := Extract(b, "extract", p.Extract)
	if err != nil {
		return nil, err
	}
	pre, err := Preprocess(b, "preprocess", ex.Dataset, p.Preprocess)
	if err != nil {
		return nil, err
	}
	tr, err := Train(b, "train", pre.XTrain, pre.YTrain)
	if err != nil {
		return nil, err
	}
	if _, err := Evaluate(b, "evaluate", tr.Model, pre.XTest, pre.YTest); err != nil {
		return nil, err
	}
	return b.Graph(), nil
}

// BuildPreset builds a named preset. A non-empty source replaces the preset's
// dataset location.
func BuildPreset(name, source string) (*pipeline.Graph, error) {
	p, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, PresetNames())
	}
	if source != "" {
		p.Extract.Source = source
	}
	return Build(name, p)
}
