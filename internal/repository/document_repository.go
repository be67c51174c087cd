package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"supportpilot/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *model.Document) error {
	if err := r.db.Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) ListByTenantID(tenantID uint) ([]model.Document, error) {
	var list []model.Document
	if err := r.db.Where("tenant_id = ?", tenantID).Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return list, nil
}

func (r *DocumentRepository) GetByIDAndTenantID(id, tenantID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

// UpdateStatus records an ingestion state transition together with the
// resulting chunk count and, for failed documents, the reason.
func (r *DocumentRepository) UpdateStatus(id uint, status string, chunkCount int, failureReason string) error {
	updates := map[string]interface{}{
		"status":         status,
		"chunk_count":    chunkCount,
		"failure_reason": failureReason,
	}
	if err := r.db.Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update document status failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) DeleteByIDAndTenantID(id, tenantID uint) error {
	if err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete document failed: %w", err)
	}
	return nil
}
