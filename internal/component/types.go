// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package component

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Kind tells whether an input is bound to a literal value or to an artifact.
type Kind int

const (
	Literal Kind = iota
	Artifact
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Artifact:
		return "artifact"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "literal":
		return Literal, nil
	case "artifact":
		return Artifact, nil
	default:
		return Literal, fmt.Errorf("unknown input kind %q: must be 'literal' or 'artifact'", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// TypeTag names the type of an input or output. Artifact tags are free-form
// labels such as "tabular-csv"; literal tags are HCL type keywords.
type TypeTag string

// Artifact type tags used by the built-in stages.
const (
	TabularCSV   TypeTag = "tabular-csv"
	FeatureFrame TypeTag = "feature-frame"
	TargetSeries TypeTag = "target-series"
	BinaryModel  TypeTag = "binary-model"
	MetricsJSON  TypeTag = "metrics-json"
)

// LiteralType resolves a literal type tag into its cty.Type.
func LiteralType(tag TypeTag) (cty.Type, error) {
	s := strings.ReplaceAll(string(tag), " ", "")
	switch s {
	case "string":
		return cty.String, nil
	case "number":
		return cty.Number, nil
	case "bool":
		return cty.Bool, nil
	case "any":
		return cty.DynamicPseudoType, nil
	}

	for _, ctor := range []string{"list", "set", "map"} {
		prefix := ctor + "("
		if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, ")") {
			continue
		}
		elem, err := LiteralType(TypeTag(s[len(prefix) : len(s)-1]))
		if err != nil {
			return cty.NilType, err
		}
		if elem == cty.DynamicPseudoType {
			return cty.NilType, fmt.Errorf("collection types cannot contain type 'any'")
		}
		switch ctor {
		case "list":
			return cty.List(elem), nil
		case "set":
			return cty.Set(elem), nil
		default:
			return cty.Map(elem), nil
		}
	}
	return cty.NilType, fmt.Errorf("unknown literal type %q", tag)
}

// LiteralTag renders ty as the tag LiteralType accepts.
func LiteralTag(ty cty.Type) (TypeTag, error) {
	switch {
	case ty == cty.DynamicPseudoType:
		return "any", nil
	case ty == cty.String:
		return "string", nil
	case ty == cty.Number:
		return "number", nil
	case ty == cty.Bool:
		return "bool", nil
	case ty.IsListType():
		return wrapTag("list", ty.ElementType())
	case ty.IsSetType():
		return wrapTag("set", ty.ElementType())
	case ty.IsMapType():
		return wrapTag("map", ty.ElementType())
	}
	return "", fmt.Errorf("unsupported literal type %s", ty.FriendlyName())
}

func wrapTag(ctor string, elem cty.Type) (TypeTag, error) {
	inner, err := LiteralTag(elem)
	if err != nil {
		return "", err
	}
	return TypeTag(ctor + "(" + string(inner) + ")"), nil
}
