package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, logs bytes.Buffer
	err := Execute(context.Background(), &out, &logs, args)
	return out.String(), logs.String(), err
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, code, exitErr.Code)
}

func TestCompilePresetToStdout(t *testing.T) {
	out, _, err := execute(t, "compile", "--preset", "insurance")
	require.NoError(t, err)
	assert.Contains(t, out, `"apiVersion": "gridflow.dev/v1"`)
	assert.Contains(t, out, `"name": "insurance"`)
}

func TestCompileToFileThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "housing.yaml")
	_, _, err := execute(t, "compile", "--preset", "housing", "-o", path)
	require.NoError(t, err)
	require.FileExists(t, path)

	out, _, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "workflow 'housing' is valid (4 tasks, sha256:")
}

func TestCompilePipelineFile(t *testing.T) {
	out, _, err := execute(t, "compile", "-p", filepath.Join("..", "..", "pipelines", "housing.hcl"), "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "name: housing")
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"compile", "--nope"}},
		{name: "no pipeline", args: []string{"compile"}},
		{name: "bad log level", args: []string{"compile", "--preset", "housing", "--log-level", "loud"}},
		{name: "bad log format", args: []string{"compile", "--preset", "housing", "--log-format", "xml"}},
		{name: "missing config file", args: []string{"compile", "--config", "/does/not/exist.yaml"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := execute(t, tc.args...)
			requireExitCode(t, err, 2)
		})
	}
}

func TestValidateRejectsTamperedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wf.json")
	_, _, err := execute(t, "compile", "--preset", "housing", "-o", path)
	require.NoError(t, err)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(b), "MedHouseVal", "Price", 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o644))

	_, _, err = execute(t, "validate", path)
	assert.ErrorContains(t, err, "fingerprint mismatch")
}

func TestEnvironmentAndConfigFile(t *testing.T) {
	t.Setenv("GRIDFLOW_PRESET", "housing")
	out, _, err := execute(t, "compile")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "housing"`)

	cfg := filepath.Join(t.TempDir(), "gridflow.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("format: yaml\nlog-level: debug\n"), 0o644))
	out, logs, err := execute(t, "compile", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "apiVersion: gridflow.dev/v1")
	assert.Contains(t, logs, "Pipeline compiled.")

	// Flags win over the environment.
	out, _, err = execute(t, "compile", "--config", cfg, "--preset", "insurance")
	require.NoError(t, err)
	assert.Contains(t, out, "name: insurance")
}

func TestComponentsListsBuiltins(t *testing.T) {
	out, _, err := execute(t, "components")
	require.NoError(t, err)
	for _, name := range []string{"evaluate_model", "extract_data", "preprocess_data", "train_model"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "@dataset:tabular-csv")
	assert.Contains(t, out, "test_size:number?")
}

func TestComponentsExportFeedsCompile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "defs")
	out, _, err := execute(t, "components", "--export", dir)
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, ".hcl\n"))
	assert.FileExists(t, filepath.Join(dir, "preprocess_data.hcl"))

	tasks, err := os.ReadFile(filepath.Join("..", "..", "pipelines", "insurance.hcl"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "insurance.hcl"), tasks, 0o644))

	fromFiles, _, err := execute(t, "compile", "-p", dir)
	require.NoError(t, err)
	fromPreset, _, err := execute(t, "compile", "--preset", "insurance")
	require.NoError(t, err)
	assert.Equal(t, fromPreset, fromFiles)
}

func TestRunPreset(t *testing.T) {
	var csv strings.Builder
	csv.WriteString("rooms,age,MedHouseVal\n")
	for i := 0; i < 40; i++ {
		rooms := 2 + i%7
		age := 10 + (i*3)%23
		fmt.Fprintf(&csv, "%d,%d,%.2f\n", rooms, age, 0.5*float64(rooms)+0.02*float64(age))
	}
	src := filepath.Join(t.TempDir(), "houses.csv")
	require.NoError(t, os.WriteFile(src, []byte(csv.String()), 0o644))

	out, _, err := execute(t, "run",
		"--preset", "housing",
		"--source", src,
		"--artifacts", t.TempDir(),
		"--run-id", "r1",
		"--workers", "2",
	)
	require.NoError(t, err)
	assert.Equal(t, "run r1: 4 tasks, 7 artifacts\n", out)
}
