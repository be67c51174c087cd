package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"supportpilot/internal/model"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// FindOrCreate returns the conversation for a tenant/customer pair,
// creating it on first contact. The unique index on (tenant_id,
// customer_key) makes concurrent first messages converge on one row.
func (r *ConversationRepository) FindOrCreate(tenantID uint, customerKey, customerName string) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("tenant_id = ? AND customer_key = ?", tenantID, customerKey).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, fmt.Errorf("find conversation failed: %w", err)
	}

	conv = model.Conversation{
		TenantID:          tenantID,
		CustomerKey:       customerKey,
		CustomerName:      customerName,
		LastInteractionAt: time.Now(),
	}
	if err := r.db.Create(&conv).Error; err != nil {
		// Lost the race to another writer; the row now exists.
		var existing model.Conversation
		if lookupErr := r.db.Where("tenant_id = ? AND customer_key = ?", tenantID, customerKey).
			First(&existing).Error; lookupErr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("create conversation failed: %w", err)
	}
	return &conv, nil
}

func (r *ConversationRepository) GetByIDAndTenantID(id, tenantID uint) (*model.Conversation, error) {
	var conv model.Conversation
	err := r.db.Where("id = ? AND tenant_id = ?", id, tenantID).First(&conv).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get conversation by id failed: %w", err)
	}
	return &conv, nil
}

func (r *ConversationRepository) ListByTenantID(tenantID uint) ([]model.Conversation, error) {
	var convs []model.Conversation
	err := r.db.Where("tenant_id = ?", tenantID).
		Order("last_interaction_at DESC").Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations by tenant failed: %w", err)
	}
	return convs, nil
}

func (r *ConversationRepository) TouchLastInteraction(id uint, at time.Time) error {
	err := r.db.Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("last_interaction_at", at).Error
	if err != nil {
		return fmt.Errorf("touch conversation failed: %w", err)
	}
	return nil
}
