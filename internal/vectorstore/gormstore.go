package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"

	"supportpilot/internal/model"
	"supportpilot/internal/repository"
)

// GormStore implements Store on top of the chunk table.
type GormStore struct {
	db     *gorm.DB
	chunks *repository.ChunkRepository
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, chunks: repository.NewChunkRepository(db)}
}

func (s *GormStore) Upsert(ctx context.Context, tenantID uint, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	documentID := chunks[0].DocumentID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txChunks := repository.NewChunkRepository(tx)
		if err := txChunks.DeleteByDocumentID(tenantID, documentID); err != nil {
			return err
		}
		return txChunks.CreateBatch(chunks)
	})
	if err != nil {
		return fmt.Errorf("upsert chunks failed: %w", err)
	}
	return nil
}

func (s *GormStore) Search(ctx context.Context, tenantID uint, vector []float32, k int) ([]ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	chunks, err := s.chunks.ListByTenantID(tenantID)
	if err != nil {
		return nil, fmt.Errorf("load chunks for search failed: %w", err)
	}

	scored := make([]ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		score, ok := cosineSimilarity(vector, chunk.EmbeddingVector())
		if !ok {
			continue
		}
		scored = append(scored, ScoredChunk{Chunk: chunk, Score: score})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func (s *GormStore) DeleteByDocument(ctx context.Context, tenantID, documentID uint) error {
	return s.chunks.DeleteByDocumentID(tenantID, documentID)
}

// cosineSimilarity reports ok=false for mismatched or zero-norm inputs.
func cosineSimilarity(a, b []float32) (float32, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB))), true
}
