// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package component defines the declared unit of work of a pipeline.
//
// A component Spec is the reusable "template" of a task: it declares an
// ordered list of inputs, each either a literal value or an artifact produced
// by another task, an ordered list of typed output artifacts, and an opaque
// Body. A task in a pipeline graph is one instantiation of a Spec with
// concrete bindings for its inputs.
//
// Why declare components up front?
//
// Everything the compiler needs to validate a graph lives in the Spec: names,
// kinds and type tags. Mistakes that would otherwise surface in the middle of
// a run, such as two outputs sharing a name, are rejected by Declare before
// any graph exists. The Body is never inspected; it only has to honour the
// contract described by Invocation.
package component
