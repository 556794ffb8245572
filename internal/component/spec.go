// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package component

import (
	"context"
	"fmt"
	"regexp"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// identifier is the accepted shape of component, input and output names. The
// names end up in file paths and HCL traversals, so they stay conservative.
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// ValidName reports whether s can be used as a component, task, input or output name.
func ValidName(s string) bool {
	return identifier.MatchString(s)
}

// Body is the opaque executable part of a component. Given concrete values
// for every declared input it must write every declared output, or fail.
type Body func(ctx context.Context, inv *Invocation) error

// Input declares one input of a component.
type Input struct {
	Name        string
	Kind        Kind
	Type        TypeTag
	Description string
	// Default makes a literal input optional.
	Default *cty.Value
}

// Optional reports whether the input may be left unbound.
func (in Input) Optional() bool {
	return in.Default != nil
}

// Output declares one output artifact of a component.
type Output struct {
	Name        string
	Type        TypeTag
	Description string
}

// Spec is a declared component. It is immutable after Declare returns.
type Spec struct {
	Name        string
	Description string
	// Handler is the serialisable reference an executor resolves to a Body.
	Handler string
	Inputs  []Input
	Outputs []Output
	// Body may be nil for components loaded from descriptions; the executor
	// then resolves Handler through its registry.
	Body Body
}

// Option customises a Spec during Declare.
type Option func(*Spec)

// WithDescription sets the human readable description.
func WithDescription(d string) Option {
	return func(s *Spec) { s.Description = d }
}

// WithHandler overrides the handler name, which defaults to the component name.
func WithHandler(h string) Option {
	return func(s *Spec) { s.Handler = h }
}

// Declare validates a component declaration and returns its Spec. Nothing is
// registered globally. Duplicate names are rejected here, not at execution time.
func Declare(name string, inputs []Input, outputs []Output, body Body, opts ...Option) (*Spec, error) {
	if !ValidName(name) {
		return nil, &InvalidNameError{Field: "component", Name: name}
	}

	s := &Spec{
		Name:    name,
		Handler: name,
		Inputs:  append([]Input(nil), inputs...),
		Outputs: append([]Output(nil), outputs...),
		Body:    body,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Handler == "" {
		return nil, &InvalidNameError{Component: name, Field: "handler", Name: s.Handler}
	}

	seenInputs := make(map[string]struct{}, len(s.Inputs))
	for i, in := range s.Inputs {
		if !ValidName(in.Name) {
			return nil, &InvalidNameError{Component: name, Field: "input", Name: in.Name}
		}
		if _, dup := seenInputs[in.Name]; dup {
			return nil, &DuplicateInputError{Component: name, Input: in.Name}
		}
		normalized, err := checkInput(name, in)
		if err != nil {
			return nil, err
		}
		s.Inputs[i] = normalized
		seenInputs[in.Name] = struct{}{}
	}

	seenOutputs := make(map[string]struct{}, len(s.Outputs))
	for _, out := range s.Outputs {
		if !ValidName(out.Name) {
			return nil, &InvalidNameError{Component: name, Field: "output", Name: out.Name}
		}
		if _, dup := seenOutputs[out.Name]; dup {
			return nil, &DuplicateOutputError{Component: name, Output: out.Name}
		}
		if out.Type == "" {
			return nil, &InvalidInputError{Component: name, Input: out.Name, Reason: "output has no type tag"}
		}
		seenOutputs[out.Name] = struct{}{}
	}

	return s, nil
}

// MustDeclare is Declare for package-level component tables; it panics on error.
func MustDeclare(name string, inputs []Input, outputs []Output, body Body, opts ...Option) *Spec {
	s, err := Declare(name, inputs, outputs, body, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// checkInput validates one input and converts its default to the declared type.
func checkInput(component string, in Input) (Input, error) {
	if in.Type == "" {
		return in, &InvalidInputError{Component: component, Input: in.Name, Reason: "input has no type tag"}
	}
	if in.Kind == Artifact {
		if in.Default != nil {
			return in, &InvalidInputError{Component: component, Input: in.Name, Reason: "artifact inputs cannot have a default"}
		}
		return in, nil
	}

	ty, err := LiteralType(in.Type)
	if err != nil {
		return in, &InvalidInputError{Component: component, Input: in.Name, Reason: err.Error()}
	}
	if in.Default == nil {
		return in, nil
	}
	v, err := convert.Convert(*in.Default, ty)
	if err != nil {
		return in, &InvalidInputError{
			Component: component,
			Input:     in.Name,
			Reason:    fmt.Sprintf("default does not match type %s: %s", in.Type, err),
		}
	}
	in.Default = &v
	return in, nil
}

// Input returns the declared input called name.
func (s *Spec) Input(name string) (Input, bool) {
	for _, in := range s.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// Output returns the declared output called name.
func (s *Spec) Output(name string) (Output, bool) {
	for _, out := range s.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return Output{}, false
}

// OutputNames lists the output names in declaration order.
func (s *Spec) OutputNames() []string {
	names := make([]string, len(s.Outputs))
	for i, o := range s.Outputs {
		names[i] = o.Name
	}
	return names
}
