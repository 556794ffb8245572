package hcl

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/stages"
	"github.com/zclconf/go-cty/cty"
)

func TestExportedComponentsCompileLikePreset(t *testing.T) {
	ctx := testCtx()
	dir := filepath.Join(t.TempDir(), "components")

	paths, err := ExportComponents(ctx, dir, builtins().Components())
	require.NoError(t, err)
	require.Len(t, paths, 4)
	for _, p := range paths {
		assert.FileExists(t, p)
	}

	// No catalog: every component comes from the exported files.
	fromFiles, err := Load(ctx, nil, dir, filepath.Join("..", "..", "pipelines", "insurance.hcl"))
	require.NoError(t, err)
	fromGo, err := stages.BuildPreset("insurance", "")
	require.NoError(t, err)
	assertSameWorkflow(t, fromGo, fromFiles)

	pre, ok := fromFiles.Task("preprocess")
	require.True(t, ok)
	assert.Nil(t, pre.Spec.Body)
	assert.Equal(t, "preprocess_data", pre.Spec.Handler)
}

func TestFormatComponentWritesTypeExpressions(t *testing.T) {
	spec, ok := builtins().Component("preprocess_data")
	require.True(t, ok)
	src, err := FormatComponent(spec)
	require.NoError(t, err)
	text := string(src)

	assert.Contains(t, text, `component "preprocess_data" {`)
	assert.Regexp(t, regexp.MustCompile(`kind\s+= "artifact"`), text)
	assert.Regexp(t, regexp.MustCompile(`type\s+= "tabular-csv"`), text)
	assert.Regexp(t, regexp.MustCompile(`type\s+= list\(string\)`), text)
	assert.Regexp(t, regexp.MustCompile(`default\s+= \[\]`), text)
	assert.Regexp(t, regexp.MustCompile(`default\s+= 42`), text)
	assert.Regexp(t, regexp.MustCompile(`type\s+= "feature-frame"`), text)
}

func TestFormatComponentRoundTrip(t *testing.T) {
	headers := cty.MapValEmpty(cty.String)
	retry := cty.True
	spec := component.MustDeclare("fetch",
		[]component.Input{
			{Name: "url", Type: "string", Description: "Where to fetch from."},
			{Name: "headers", Type: "map(string)", Default: &headers},
			{Name: "retry", Type: "bool", Default: &retry},
			{Name: "tags", Type: "set(number)"},
			{Name: "extra", Type: "any"},
			{Name: "seed", Kind: component.Artifact, Type: "blob"},
		},
		[]component.Output{{Name: "body", Type: "blob", Description: "Response body."}},
		nil,
		component.WithHandler("http_fetch"),
		component.WithDescription("Downloads a file."),
	)

	src, err := FormatComponent(spec)
	require.NoError(t, err)

	back := decodeComponent(t, src)
	assert.Equal(t, spec.Name, back.Name)
	assert.Equal(t, spec.Handler, back.Handler)
	assert.Equal(t, spec.Description, back.Description)
	require.Len(t, back.Inputs, len(spec.Inputs))
	for i, in := range spec.Inputs {
		got := back.Inputs[i]
		assert.Equal(t, in.Name, got.Name)
		assert.Equal(t, in.Kind, got.Kind, in.Name)
		assert.Equal(t, in.Type, got.Type, in.Name)
		assert.Equal(t, in.Description, got.Description, in.Name)
		assert.Equal(t, in.Optional(), got.Optional(), in.Name)
		if in.Default != nil {
			assert.True(t, in.Default.RawEquals(*got.Default), in.Name)
		}
	}
	assert.Equal(t, spec.Outputs, back.Outputs)
}

// decodeComponent reads the single component block in src.
func decodeComponent(t *testing.T, src []byte) *component.Spec {
	t.Helper()
	f, diags := hclparse.NewParser().ParseHCL(src, "component.hcl")
	require.False(t, diags.HasErrors(), diags.Error())
	var root fileRoot
	diags = gohcl.DecodeBody(f.Body, nil, &root)
	require.False(t, diags.HasErrors(), diags.Error())
	require.Len(t, root.Components, 1)

	spec, err := translateComponent(testCtx(), root.Components[0])
	require.NoError(t, err)
	return spec
}
