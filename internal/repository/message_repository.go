package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"supportpilot/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(id uint) (*model.Message, error) {
	var message model.Message
	err := r.db.First(&message, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get message by id failed: %w", err)
	}
	return &message, nil
}

// ListRecentByConversationID returns the newest messages of a
// conversation in chronological order.
func (r *MessageRepository) ListRecentByConversationID(conversationID uint, limit int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("id DESC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list recent messages failed: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *MessageRepository) ListByConversationID(conversationID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("conversation_id = ?", conversationID).
		Order("id ASC").Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

// ListUnresolved returns customer messages that ended up uncategorized
// or flagged low confidence since the given time. These feed the gap
// analyzer.
func (r *MessageRepository) ListUnresolved(tenantID uint, since time.Time, limit int) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("tenant_id = ? AND role = ? AND created_at >= ?", tenantID, model.RoleCustomer, since).
		Where("category IS NULL OR low_confidence = ?", true).
		Order("id ASC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list unresolved messages failed: %w", err)
	}
	return messages, nil
}

// ListNeedingRecategorization pages through customer messages whose
// stored category is missing or no longer in the active set. Paging by
// id keeps runs resumable after an interruption.
func (r *MessageRepository) ListNeedingRecategorization(tenantID uint, activeNames []string, afterID uint, limit int) ([]model.Message, error) {
	var messages []model.Message
	query := r.db.Where("tenant_id = ? AND role = ? AND id > ?", tenantID, model.RoleCustomer, afterID)
	if len(activeNames) == 0 {
		query = query.Where("category IS NOT NULL")
	} else {
		query = query.Where("category IS NULL OR category NOT IN ?", activeNames)
	}
	err := query.Order("id ASC").Limit(limit).Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages needing recategorization failed: %w", err)
	}
	return messages, nil
}

// UpdateClassification writes category, sentiment and the confidence
// flag only if the message version has not moved since it was read.
// Returns false without error when another writer got there first.
func (r *MessageRepository) UpdateClassification(id, expectedVersion uint, category *string, sentiment *float64, lowConfidence bool) (bool, error) {
	result := r.db.Model(&model.Message{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"category":       category,
			"sentiment":      sentiment,
			"low_confidence": lowConfidence,
			"version":        gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, fmt.Errorf("update message classification failed: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
