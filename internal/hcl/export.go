package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/gridflow/internal/component"
	"github.com/vk/gridflow/internal/ctxlog"
	"github.com/vk/gridflow/internal/fsutil"
	"github.com/zclconf/go-cty/cty"
)

// FormatComponent renders spec as a single component block that Load reads
// back into an equivalent declaration.
func FormatComponent(spec *component.Spec) ([]byte, error) {
	f := hclwrite.NewEmptyFile()
	block := f.Body().AppendNewBlock("component", []string{spec.Name})
	body := block.Body()
	body.SetAttributeValue("handler", cty.StringVal(spec.Handler))
	if spec.Description != "" {
		body.SetAttributeValue("description", cty.StringVal(spec.Description))
	}

	for _, in := range spec.Inputs {
		body.AppendNewline()
		ib := body.AppendNewBlock("input", []string{in.Name}).Body()
		if in.Kind == component.Artifact {
			ib.SetAttributeValue("kind", cty.StringVal(in.Kind.String()))
			ib.SetAttributeValue("type", cty.StringVal(string(in.Type)))
		} else {
			tokens, err := literalTypeTokens(in.Type)
			if err != nil {
				return nil, fmt.Errorf("component '%s', input '%s': %w", spec.Name, in.Name, err)
			}
			ib.SetAttributeRaw("type", tokens)
		}
		if in.Description != "" {
			ib.SetAttributeValue("description", cty.StringVal(in.Description))
		}
		if in.Default != nil {
			ib.SetAttributeValue("default", *in.Default)
		}
	}

	for _, out := range spec.Outputs {
		body.AppendNewline()
		ob := body.AppendNewBlock("output", []string{out.Name}).Body()
		ob.SetAttributeValue("type", cty.StringVal(string(out.Type)))
		if out.Description != "" {
			ob.SetAttributeValue("description", cty.StringVal(out.Description))
		}
	}

	return hclwrite.Format(f.Bytes()), nil
}

// literalTypeTokens writes a literal type tag as a type expression such as
// list(string).
func literalTypeTokens(tag component.TypeTag) (hclwrite.Tokens, error) {
	ty, err := component.LiteralType(tag)
	if err != nil {
		return nil, err
	}
	return typeTokens(ty)
}

func typeTokens(ty cty.Type) (hclwrite.Tokens, error) {
	switch {
	case ty == cty.String:
		return hclwrite.TokensForIdentifier("string"), nil
	case ty == cty.Number:
		return hclwrite.TokensForIdentifier("number"), nil
	case ty == cty.Bool:
		return hclwrite.TokensForIdentifier("bool"), nil
	case ty == cty.DynamicPseudoType:
		return hclwrite.TokensForIdentifier("any"), nil
	case ty.IsListType():
		return collectionTokens("list", ty.ElementType())
	case ty.IsMapType():
		return collectionTokens("map", ty.ElementType())
	case ty.IsSetType():
		return collectionTokens("set", ty.ElementType())
	default:
		return nil, fmt.Errorf("type %s has no HCL type expression", ty.FriendlyName())
	}
}

func collectionTokens(ctor string, elem cty.Type) (hclwrite.Tokens, error) {
	inner, err := typeTokens(elem)
	if err != nil {
		return nil, err
	}
	return hclwrite.TokensForFunctionCall(ctor, inner), nil
}

// ExportComponents writes one <name>.hcl file per spec into dir and returns
// the paths written, in the order of specs.
func ExportComponents(ctx context.Context, dir string, specs []*component.Spec) ([]string, error) {
	logger := ctxlog.FromContext(ctx)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}

	paths := make([]string, 0, len(specs))
	for _, spec := range specs {
		src, err := FormatComponent(spec)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, spec.Name+".hcl")
		if err := fsutil.WriteFileAtomic(path, src, 0o644); err != nil {
			return nil, fmt.Errorf("writing component '%s': %w", spec.Name, err)
		}
		logger.Debug("Component exported.", "component", spec.Name, "path", path)
		paths = append(paths, path)
	}
	logger.Info("✓ Components exported", "count", len(paths), "dir", dir)
	return paths, nil
}
