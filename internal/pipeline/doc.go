// Package pipeline builds task graphs out of declared components.
//
// A Builder instantiates components one at a time. Each input of a new task
// is bound either to a literal value or to an output of a task instantiated
// earlier on the same Builder, so references can only point backwards and the
// resulting graph is acyclic by construction. Every binding is checked as it
// is made: missing inputs, unknown references and type-tag mismatches are
// reported by Instantiate, not later.
//
// There is no package-level state. Each pipeline starts from its own Builder.
package pipeline
