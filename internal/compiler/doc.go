// Package compiler turns a pipeline graph into a Workflow: a self-contained,
// ordered document an executor can run without the in-memory graph.
//
// Compile re-validates every task, orders tasks topologically with ties kept
// in instantiation order, and resolves every binding into either a plain
// literal value or an artifact reference. Compiling the same graph twice
// yields byte-identical documents in every back end.
package compiler
