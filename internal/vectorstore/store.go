// Package vectorstore holds the per-tenant chunk index used for
// retrieval. The current backing is the relational database with a
// brute-force similarity scan, which is adequate at per-tenant corpus
// sizes and keeps ingestion transactional with the rest of the data.
package vectorstore

import (
	"context"

	"supportpilot/internal/model"
)

// ScoredChunk pairs a chunk with its cosine similarity to the query.
type ScoredChunk struct {
	Chunk model.Chunk
	Score float32
}

type Store interface {
	// Upsert replaces the stored chunks of a document with the given
	// set. All chunks must carry the same tenant and document id.
	Upsert(ctx context.Context, tenantID uint, chunks []model.Chunk) error

	// Search returns the top k chunks of a tenant ranked by cosine
	// similarity to the query vector, highest first.
	Search(ctx context.Context, tenantID uint, vector []float32, k int) ([]ScoredChunk, error)

	// DeleteByDocument removes every chunk of one document.
	DeleteByDocument(ctx context.Context, tenantID, documentID uint) error
}
