// Package dag holds the bare dependency structure of a pipeline: string node
// IDs and the directed edges between them.
//
// An edge from A to B means B consumes something A produces, so A must run
// first. The package knows nothing about components or artifacts; it answers
// three questions for the compiler: who depends on whom, is the graph acyclic,
// and in which order can the nodes run.
//
// Ordering is deterministic. Every node remembers the position at which it
// was added, and TopologicalOrder breaks ties between independent nodes by
// that position, so a graph built the same way always orders the same way.
package dag
