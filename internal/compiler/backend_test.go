package compiler

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridflow/internal/component"
	"github.com/zclconf/go-cty/cty"
)

func TestBackendRoundTrip(t *testing.T) {
	wf, err := Compile(testCtx(), fourTaskGraph(t))
	require.NoError(t, err)

	for _, be := range []Backend{JSONBackend{}, YAMLBackend{}} {
		t.Run(be.Format(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, be.Encode(&buf, wf))
			encoded := buf.String()

			got, err := be.Decode(strings.NewReader(encoded))
			require.NoError(t, err)
			if diff := cmp.Diff(wf, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
			require.NoError(t, got.Validate())

			buf.Reset()
			require.NoError(t, be.Encode(&buf, got))
			assert.Equal(t, encoded, buf.String())
		})
	}
}

func TestEmptyLiteralsSurviveRoundTrip(t *testing.T) {
	wf := &Workflow{
		APIVersion: APIVersion,
		Kind:       DocumentKind,
		Name:       "empties",
		Tasks: []Task{{
			ID:        "only",
			Component: "c",
			Handler:   "c",
			Inputs: []Input{
				{Name: "dir", Kind: component.Literal, Type: "string", Value: ""},
				{Name: "seed", Kind: component.Literal, Type: "number", Value: int64(0)},
				{Name: "quiet", Kind: component.Literal, Type: "bool", Value: false},
				{Name: "columns", Kind: component.Literal, Type: "list(string)", Value: []any{}},
			},
			Outputs: []Output{{Name: "out", Type: "text"}},
		}},
	}
	fp, err := fingerprint(wf.Tasks)
	require.NoError(t, err)
	wf.Fingerprint = fp

	for _, format := range []string{"json", "yaml"} {
		b, err := Marshal(wf, format)
		require.NoError(t, err)
		be, err := BackendFor(format)
		require.NoError(t, err)
		got, err := be.Decode(bytes.NewReader(b))
		require.NoError(t, err, format)
		require.NoError(t, got.Validate(), format)
		if diff := cmp.Diff(wf, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", format, diff)
		}
	}
}

func TestBackendsAgree(t *testing.T) {
	wf, err := Compile(testCtx(), fourTaskGraph(t))
	require.NoError(t, err)

	j, err := Marshal(wf, "json")
	require.NoError(t, err)
	y, err := Marshal(wf, "yml")
	require.NoError(t, err)

	fromJSON, err := JSONBackend{}.Decode(bytes.NewReader(j))
	require.NoError(t, err)
	fromYAML, err := YAMLBackend{}.Decode(bytes.NewReader(y))
	require.NoError(t, err)
	if diff := cmp.Diff(fromJSON, fromYAML); diff != "" {
		t.Fatalf("json and yaml documents differ:\n%s", diff)
	}
}

func TestYAMLLayout(t *testing.T) {
	wf, err := Compile(testCtx(), fourTaskGraph(t))
	require.NoError(t, err)
	y, err := Marshal(wf, "yaml")
	require.NoError(t, err)

	doc := string(y)
	assert.True(t, strings.HasPrefix(doc, "apiVersion: "+APIVersion+"\nkind: Workflow\nname: insurance\n"), doc)
	assert.Contains(t, doc, "kind: artifact")
	assert.Contains(t, doc, "task: preprocess")
}

func TestBackendFor(t *testing.T) {
	for _, f := range []string{"json", ".JSON", "yaml", ".yml"} {
		_, err := BackendFor(f)
		assert.NoError(t, err, f)
	}
	_, err := BackendFor("toml")
	assert.ErrorContains(t, err, "unsupported workflow format")
}

func TestWriteAndReadFile(t *testing.T) {
	wf, err := Compile(testCtx(), fourTaskGraph(t))
	require.NoError(t, err)
	dir := t.TempDir()

	for _, name := range []string{"wf.json", "wf.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, wf))
		got, err := ReadFile(path)
		require.NoError(t, err)
		if diff := cmp.Diff(wf, got); diff != "" {
			t.Errorf("%s mismatch (-want +got):\n%s", name, diff)
		}
	}

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestReadFileRejectsTamperedDocument(t *testing.T) {
	wf, err := Compile(testCtx(), fourTaskGraph(t))
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "wf.json")
	require.NoError(t, WriteFile(path, wf))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(b), "charges", "bmi", 1)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o644))

	_, err = ReadFile(path)
	var target *DocumentError
	require.ErrorAs(t, err, &target)
	assert.Contains(t, target.Reason, "fingerprint mismatch")
}

func TestValidate(t *testing.T) {
	fresh := func(t *testing.T) *Workflow {
		wf, err := Compile(testCtx(), fourTaskGraph(t))
		require.NoError(t, err)
		return wf
	}
	rehash := func(t *testing.T, wf *Workflow) {
		fp, err := fingerprint(wf.Tasks)
		require.NoError(t, err)
		wf.Fingerprint = fp
	}

	cases := []struct {
		name   string
		mutate func(*Workflow)
		reason string
	}{
		{"wrong version", func(w *Workflow) { w.APIVersion = "v0" }, "apiVersion"},
		{"wrong kind", func(w *Workflow) { w.Kind = "Pod" }, "kind"},
		{"tasks out of order", func(w *Workflow) { w.Tasks[0], w.Tasks[1] = w.Tasks[1], w.Tasks[0] }, "not an earlier task"},
		{"missing dependsOn", func(w *Workflow) { w.Tasks[3].DependsOn = []string{"preprocess"} }, "missing from dependsOn"},
		{"undeclared output", func(w *Workflow) { w.Tasks[3].Inputs[2].Artifact.Output = "weights" }, "undeclared output"},
		{"type tag drift", func(w *Workflow) { w.Tasks[2].Outputs[0].Type = "onnx" }, "wants binary-model"},
		{"bad literal", func(w *Workflow) { w.Tasks[1].Inputs[2].Value = "lots" }, "test_size"},
		{"duplicate id", func(w *Workflow) { w.Tasks[3].ID = "train" }, "duplicate task id"},
		{"no handler", func(w *Workflow) { w.Tasks[0].Handler = "" }, "no handler"},
		{"literal without value", func(w *Workflow) { w.Tasks[1].Inputs[1].Value = nil }, "has no value"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wf := fresh(t)
			tc.mutate(wf)
			rehash(t, wf)
			err := wf.Validate()
			var target *DocumentError
			require.ErrorAs(t, err, &target)
			assert.Contains(t, target.Reason, tc.reason)
			assert.ErrorIs(t, err, component.ErrInvalidDefinition)
		})
	}
}

func TestLiteralValue(t *testing.T) {
	v, err := LiteralValue([]any{"dvc", "pull"}, "list(string)")
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.ListVal([]cty.Value{cty.StringVal("dvc"), cty.StringVal("pull")})))

	v, err = LiteralValue(int64(42), "number")
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.NumberIntVal(42)))

	v, err = LiteralValue(map[string]any{"a": "1"}, "map(number)")
	require.NoError(t, err)
	assert.True(t, v.RawEquals(cty.MapVal(map[string]cty.Value{"a": cty.NumberIntVal(1)})))

	_, err = LiteralValue("x", "bool")
	assert.Error(t, err)
	_, err = LiteralValue("x", "tensor")
	assert.Error(t, err)
}
