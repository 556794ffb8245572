// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package component

import (
	"errors"
	"fmt"
)

// ErrInvalidDefinition is the root of every definition error raised while
// declaring components, building graphs or compiling them. Use errors.Is to
// test for the whole family and errors.As for a specific kind.
var ErrInvalidDefinition = errors.New("invalid pipeline definition")

// DuplicateOutputError reports two outputs with the same name on one component.
type DuplicateOutputError struct {
	Component string
	Output    string
}

func (e *DuplicateOutputError) Error() string {
	return fmt.Sprintf("component %q declares output %q more than once", e.Component, e.Output)
}

func (e *DuplicateOutputError) Unwrap() error { return ErrInvalidDefinition }

// DuplicateInputError reports two inputs with the same name on one component.
type DuplicateInputError struct {
	Component string
	Input     string
}

func (e *DuplicateInputError) Error() string {
	return fmt.Sprintf("component %q declares input %q more than once", e.Component, e.Input)
}

func (e *DuplicateInputError) Unwrap() error { return ErrInvalidDefinition }

// InvalidNameError reports an empty or malformed identifier.
type InvalidNameError struct {
	Component string
	Field     string
	Name      string
}

func (e *InvalidNameError) Error() string {
	if e.Component == "" {
		return fmt.Sprintf("invalid %s name %q", e.Field, e.Name)
	}
	return fmt.Sprintf("component %q: invalid %s name %q", e.Component, e.Field, e.Name)
}

func (e *InvalidNameError) Unwrap() error { return ErrInvalidDefinition }

// InvalidInputError reports an input whose declaration is inconsistent, for
// example a default on an artifact input or an unknown type tag.
type InvalidInputError struct {
	Component string
	Input     string
	Reason    string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("component %q, input %q: %s", e.Component, e.Input, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidDefinition }
