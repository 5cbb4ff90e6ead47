// Package embedding turns text into vectors for semantic policy retrieval.
//
// Embedding is best-effort: every Embedder reports a missing vector with
// ok == false instead of an error, and callers fall back to keyword search.
package embedding

import "context"

// Vector is a dense embedding
type Vector []float64

// Embedder produces an embedding for a text. ok is false when no vector
// could be produced for any reason (no credential, transport failure,
// unrecognized response, empty input).
type Embedder interface {
	Embed(ctx context.Context, text string) (vec Vector, ok bool)
}

// Nop never produces a vector. Used when embeddings are disabled.
type Nop struct{}

// Embed implements Embedder
func (Nop) Embed(context.Context, string) (Vector, bool) {
	return nil, false
}
