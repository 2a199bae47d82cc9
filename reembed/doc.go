// Package reembed rebuilds every stored section vector with the current
// encoder.
//
// Unlike the vector store's backfill, which only fills gaps, a reembed
// overwrites every vector. It is meant to be run after the vocabulary or the
// dimension changes. Vector writes are retried with exponential backoff.
// The "vectors" checkpoint only advances when every section was re-encoded.
package reembed
