// Package stages wires the built-in extract, preprocess, train and evaluate
// components into pipelines.
//
// The helpers in this package are typed front ends over pipeline.Builder:
// each returns a record of artifact references, so a misspelled output name
// is a compile error instead of an UnknownArtifactError at build time.
package stages
