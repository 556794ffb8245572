package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridflow/internal/artifact"
	"github.com/vk/gridflow/internal/compiler"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/executor"
	"github.com/vk/gridflow/internal/frame"
	"github.com/vk/gridflow/internal/pipeline"
	"github.com/vk/gridflow/internal/registry"
)

func testCtx() context.Context {
	return ctxlog.Discard(context.Background())
}

// writeInsurance writes n synthetic rows whose charges are a linear function
// of the features plus a little noise.
func writeInsurance(t *testing.T, dir string, n int) string {
	t.Helper()
	rng := rand.New(rand.NewPCG(1, 2))
	sexes := []string{"female", "male"}
	regions := []string{"northeast", "northwest", "southeast", "southwest"}

	var b strings.Builder
	b.WriteString("age,sex,bmi,children,smoker,region,charges\n")
	for i := 0; i < n; i++ {
		age := 18 + rng.IntN(47)
		sex := rng.IntN(2)
		bmi := 16 + rng.Float64()*30
		children := rng.IntN(5)
		smoker := rng.IntN(2)
		region := rng.IntN(4)
		charges := 250*float64(age) + 300*bmi + 500*float64(children) +
			20000*float64(smoker) + 150*float64(region) + rng.NormFloat64()*300
		smokes := "no"
		if smoker == 1 {
			smokes = "yes"
		}
		fmt.Fprintf(&b, "%d,%s,%.3f,%d,%s,%s,%.4f\n",
			age, sexes[sex], bmi, children, smokes, regions[region], charges)
	}

	path := filepath.Join(dir, "insurance.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func runGraph(t *testing.T, g *pipeline.Graph) (*artifact.FSStore, *executor.Result, error) {
	t.Helper()
	ctx := testCtx()
	wf, err := compiler.Compile(ctx, g)
	require.NoError(t, err)

	store, err := artifact.NewFSStore(t.TempDir(), "run")
	require.NoError(t, err)
	reg := registry.Load(Modules()...)
	res, err := executor.New(wf, reg, store, executor.WithWorkers(2)).Run(ctx)
	return store, res, err
}

func TestBuildPresetTaskOrder(t *testing.T) {
	g, err := BuildPreset("insurance", "")
	require.NoError(t, err)

	wf, err := compiler.Compile(testCtx(), g)
	require.NoError(t, err)

	var ids []string
	for _, task := range wf.Tasks {
		ids = append(ids, task.ID)
	}
	assert.Equal(t, []string{"extract", "preprocess", "train", "evaluate"}, ids)
	assert.Equal(t, "insurance", wf.Name)

	evaluate, ok := wf.Task("evaluate")
	require.True(t, ok)
	assert.Equal(t, []string{"preprocess", "train"}, evaluate.DependsOn)

	extract, _ := wf.Task("extract")
	assert.Equal(t, "data/insurance.csv", extract.Inputs[0].Value)
	assert.Equal(t, []any{"dvc", "pull"}, extract.Inputs[1].Value)

	preprocess, _ := wf.Task("preprocess")
	var defaults []any
	for _, in := range preprocess.Inputs {
		if in.Name == "test_size" || in.Name == "seed" {
			defaults = append(defaults, in.Value)
		}
	}
	assert.Equal(t, []any{0.2, int64(42)}, defaults)
}

func TestBuildPresetOverridesSource(t *testing.T) {
	g, err := BuildPreset("housing", "/tmp/houses.csv")
	require.NoError(t, err)
	extract, ok := g.Task("extract")
	require.True(t, ok)
	assert.Equal(t, "/tmp/houses.csv", extract.Inputs[0].Value.AsString())

	_, err = BuildPreset("nope", "")
	assert.ErrorContains(t, err, "unknown preset")
	assert.Equal(t, []string{"housing", "insurance"}, PresetNames())
}

func TestTypedBuildersRejectBadWiring(t *testing.T) {
	b := pipeline.NewBuilder("bad")
	ex, err := Extract(b, "extract", ExtractParams{Source: "x.csv"})
	require.NoError(t, err)

	// A dataset is not a feature frame.
	_, err = Train(b, "train", ex.Dataset, ex.Dataset)
	var mismatch *pipeline.TypeMismatchError
	assert.ErrorAs(t, err, &mismatch)
}

func TestInsurancePipelineEndToEnd(t *testing.T) {
	dir := t.TempDir()
	p := Presets["insurance"]
	p.Extract.Source = writeInsurance(t, dir, 1000)
	p.Extract.PreCommand = nil

	g, err := Build("insurance", p)
	require.NoError(t, err)
	store, res, err := runGraph(t, g)
	require.NoError(t, err)

	for _, id := range []string{"extract", "preprocess", "train", "evaluate"} {
		assert.Equal(t, executor.StatusSucceeded, res.Tasks[id].Status, id)
	}
	assert.Len(t, res.Artifacts, 7)

	ctx := testCtx()
	xTrainPath, err := store.Resolve(ctx, artifact.Ref{Task: "preprocess", Output: "x_train"})
	require.NoError(t, err)
	xTrain, err := frame.ReadFrame(xTrainPath)
	require.NoError(t, err)
	assert.Equal(t, 800, xTrain.Len())
	assert.Equal(t, []string{"age", "sex", "bmi", "children", "smoker", "region"}, xTrain.Columns)

	yTestPath, err := store.Resolve(ctx, artifact.Ref{Task: "preprocess", Output: "y_test"})
	require.NoError(t, err)
	yTest, err := frame.ReadSeries(yTestPath)
	require.NoError(t, err)
	assert.Equal(t, 200, yTest.Len())

	metricsPath, err := store.Resolve(ctx, artifact.Ref{Task: "evaluate", Output: "metrics"})
	require.NoError(t, err)
	raw, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	var scores frame.Scores
	require.NoError(t, json.Unmarshal(raw, &scores))
	assert.Equal(t, 200, scores.Samples)
	assert.Greater(t, scores.R2, 0.9)
	assert.InDelta(t, scores.MSE, scores.RMSE*scores.RMSE, 1e-6*scores.MSE)
}

func TestExtractRunsPreCommandInWorkDir(t *testing.T) {
	dir := t.TempDir()
	b := pipeline.NewBuilder("extract_only")
	_, err := Extract(b, "extract", ExtractParams{
		Source:     "data.csv",
		PreCommand: []string{"sh", "-c", "printf 'a,b\\n1,2\\n' > data.csv"},
		WorkDir:    dir,
	})
	require.NoError(t, err)

	store, _, err := runGraph(t, b.Graph())
	require.NoError(t, err)
	path, err := store.Resolve(testCtx(), artifact.Ref{Task: "extract", Output: "dataset"})
	require.NoError(t, err)
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", string(got))
}

func TestExtractDownloadsURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data.csv" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "x,y\n1,2\n3,4\n")
	}))
	defer srv.Close()

	b := pipeline.NewBuilder("download")
	_, err := Extract(b, "extract", ExtractParams{Source: srv.URL + "/data.csv"})
	require.NoError(t, err)
	_, _, err = runGraph(t, b.Graph())
	require.NoError(t, err)

	b = pipeline.NewBuilder("download_missing")
	_, err = Extract(b, "extract", ExtractParams{Source: srv.URL + "/missing.csv"})
	require.NoError(t, err)
	_, _, err = runGraph(t, b.Graph())
	assert.ErrorContains(t, err, "404")
}

func TestUnusableDatasetFailsExtractAndSkipsRest(t *testing.T) {
	docs := map[string]string{
		"ragged":      "a,b,charges\n1,2\n",
		"header only": "a,b,charges\n",
	}
	for name, doc := range docs {
		t.Run(name, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "bad.csv")
			require.NoError(t, os.WriteFile(src, []byte(doc), 0o644))

			g, err := Build("bad", Preset{
				Extract:    ExtractParams{Source: src},
				Preprocess: PreprocessParams{Target: "charges"},
			})
			require.NoError(t, err)
			_, res, err := runGraph(t, g)

			var runErr *executor.RunError
			require.True(t, errors.As(err, &runErr))
			assert.Equal(t, []string{"extract"}, runErr.Failed)
			assert.Equal(t, []string{"preprocess", "train", "evaluate"}, runErr.Skipped)
			assert.Equal(t, executor.StatusSkipped, res.Tasks["evaluate"].Status)
		})
	}
}
