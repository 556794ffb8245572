package pipeline

import (
	"github.com/vk/gridflow/internal/artifact"
	"github.com/zclconf/go-cty/cty"
)

// Binding is the value given to one input: a literal or a reference to an
// upstream artifact. The zero Binding is a null literal.
type Binding struct {
	value cty.Value
	ref   artifact.Ref
	isRef bool
}

// Bindings maps input names to their bindings.
type Bindings map[string]Binding

// Literal binds an input to a constant value.
func Literal(v cty.Value) Binding {
	return Binding{value: v}
}

// From binds an input to an output of an earlier task.
func From(ref artifact.Ref) Binding {
	return Binding{ref: ref, isRef: true}
}

// String is Literal for a string.
func String(s string) Binding { return Literal(cty.StringVal(s)) }

// Number is Literal for a float.
func Number(f float64) Binding { return Literal(cty.NumberFloatVal(f)) }

// Int is Literal for an integer.
func Int(i int64) Binding { return Literal(cty.NumberIntVal(i)) }

// Bool is Literal for a bool.
func Bool(b bool) Binding { return Literal(cty.BoolVal(b)) }

// Strings is Literal for a list of strings. No arguments yields an empty list.
func Strings(ss ...string) Binding {
	if len(ss) == 0 {
		return Literal(cty.ListValEmpty(cty.String))
	}
	vals := make([]cty.Value, len(ss))
	for i, s := range ss {
		vals[i] = cty.StringVal(s)
	}
	return Literal(cty.ListVal(vals))
}

// IsRef reports whether the binding references an artifact.
func (b Binding) IsRef() bool { return b.isRef }

// Ref returns the referenced artifact. It is the zero Ref for literals.
func (b Binding) Ref() artifact.Ref { return b.ref }

// Value returns the literal value. It is cty.NilVal for references.
func (b Binding) Value() cty.Value { return b.value }

func (b Binding) isNull() bool {
	return !b.isRef && (b.value == cty.NilVal || b.value.IsNull())
}
