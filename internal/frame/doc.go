// Package frame holds the data shapes passed between the built-in stages:
// raw CSV tables, numeric feature frames, target series and fitted models.
//
// Frames, series and models are stored as msgpack. Tables stay CSV so the
// extract stage can hand over its input unchanged.
package frame
