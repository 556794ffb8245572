// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package component

import (
	"fmt"
	"math/big"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Invocation is everything a Body receives for one task execution.
//
// Literal inputs arrive as cty values already converted to their declared
// type. Artifact inputs arrive as paths of fully materialised files. Outputs
// are paths assigned by the artifact store; the body must write each of them
// and must not write anywhere else.
type Invocation struct {
	Task      string
	Component string
	Literals  map[string]cty.Value
	Inputs    map[string]string
	Outputs   map[string]string
}

func (inv *Invocation) literal(name string) (cty.Value, error) {
	v, ok := inv.Literals[name]
	if !ok {
		return cty.NilVal, fmt.Errorf("task %q: no literal input %q", inv.Task, name)
	}
	if v.IsNull() || !v.IsKnown() {
		return cty.NilVal, fmt.Errorf("task %q: literal input %q is null", inv.Task, name)
	}
	return v, nil
}

// String returns a string literal input.
func (inv *Invocation) String(name string) (string, error) {
	v, err := inv.literal(name)
	if err != nil {
		return "", err
	}
	var s string
	if err := gocty.FromCtyValue(v, &s); err != nil {
		return "", fmt.Errorf("task %q, input %q: %w", inv.Task, name, err)
	}
	return s, nil
}

// Number returns a number literal input as float64.
func (inv *Invocation) Number(name string) (float64, error) {
	v, err := inv.literal(name)
	if err != nil {
		return 0, err
	}
	if v.Type() != cty.Number {
		return 0, fmt.Errorf("task %q, input %q: expected number, got %s", inv.Task, name, v.Type().FriendlyName())
	}
	f, _ := v.AsBigFloat().Float64()
	return f, nil
}

// Int returns a whole-number literal input.
func (inv *Invocation) Int(name string) (int64, error) {
	v, err := inv.literal(name)
	if err != nil {
		return 0, err
	}
	if v.Type() != cty.Number {
		return 0, fmt.Errorf("task %q, input %q: expected number, got %s", inv.Task, name, v.Type().FriendlyName())
	}
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return 0, fmt.Errorf("task %q, input %q: %s is not a whole number", inv.Task, name, bf.Text('g', -1))
	}
	i, acc := bf.Int64()
	if acc != big.Exact {
		return 0, fmt.Errorf("task %q, input %q: %s overflows int64", inv.Task, name, bf.Text('g', -1))
	}
	return i, nil
}

// Strings returns a list(string) literal input. A null or missing optional
// list yields an empty slice.
func (inv *Invocation) Strings(name string) ([]string, error) {
	v, ok := inv.Literals[name]
	if !ok || v.IsNull() {
		return nil, nil
	}
	var out []string
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return nil, fmt.Errorf("task %q, input %q: %w", inv.Task, name, err)
	}
	return out, nil
}

// Input returns the path of a materialised artifact input.
func (inv *Invocation) Input(name string) (string, error) {
	p, ok := inv.Inputs[name]
	if !ok || p == "" {
		return "", fmt.Errorf("task %q: no artifact input %q", inv.Task, name)
	}
	return p, nil
}

// Output returns the path the body must write output name to.
func (inv *Invocation) Output(name string) (string, error) {
	p, ok := inv.Outputs[name]
	if !ok || p == "" {
		return "", fmt.Errorf("task %q: no output %q", inv.Task, name)
	}
	return p, nil
}
