// Package registry provides the central "glue" between compiled workflows and
// Go code.
//
// A workflow document refers to component bodies only by handler name. The
// Registry maps those names to component.Body functions and keeps the Go
// declared component specs, so a loader can reuse them and an executor can
// check, before anything runs, that the Go code and the document agree on
// every task's inputs and outputs.
package registry
