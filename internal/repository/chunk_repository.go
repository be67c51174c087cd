package repository

import (
	"fmt"

	"gorm.io/gorm"

	"supportpilot/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.Create(&chunks).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) ListByTenantID(tenantID uint) ([]model.Chunk, error) {
	var chunks []model.Chunk
	if err := r.db.Where("tenant_id = ?", tenantID).Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("list chunks by tenant failed: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) DeleteByDocumentID(tenantID, documentID uint) error {
	if err := r.db.Where("tenant_id = ? AND document_id = ?", tenantID, documentID).Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete chunks by document failed: %w", err)
	}
	return nil
}

func (r *ChunkRepository) CountByDocumentID(documentID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Chunk{}).Where("document_id = ?", documentID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count chunks by document failed: %w", err)
	}
	return count, nil
}
