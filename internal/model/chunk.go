package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Chunk is an immutable text fragment of a document with its embedding.
// Embedding is stored as a JSON array of float32 for portability.
// Chunks are only ever regenerated by re-ingesting the parent document.
type Chunk struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TenantID     uint      `gorm:"not null;index" json:"tenant_id"`
	DocumentID   uint      `gorm:"not null;index" json:"document_id"`
	ChunkKey     string    `gorm:"size:64;not null;index" json:"chunk_key"`
	Ordinal      int       `gorm:"not null" json:"ordinal"`
	SourceOffset int       `gorm:"not null" json:"source_offset"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Embedding    string    `gorm:"type:text" json:"-"` // JSON array of float32
	CreatedAt    time.Time `json:"created_at"`
}

// ChunkKeyFor builds the stable identifier for the i-th chunk of a document.
func ChunkKeyFor(documentID uint, ordinal int) string {
	return fmt.Sprintf("%d_chunk_%d", documentID, ordinal)
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *Chunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *Chunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
