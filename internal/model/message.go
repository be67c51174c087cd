package model

import "time"

const (
	RoleCustomer = "customer"
	RoleAgent    = "agent"
)

// Uncategorized is the presentation value for a nil message category.
const Uncategorized = "Uncategorized"

// Message is a single turn. Category and Sentiment are set by the fast
// classifier after the initial write and may later be rewritten by the
// recategorization job only; Version guards both writers with per-message
// optimistic concurrency (later write wins).
type Message struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversation_id"`
	TenantID       uint      `gorm:"not null;index" json:"tenant_id"`
	Role           string    `gorm:"size:16;not null;index" json:"role"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	Category       *string   `gorm:"size:64;index" json:"category"`
	Sentiment      *float64  `json:"sentiment"`
	LowConfidence  bool      `gorm:"not null;default:false;index" json:"low_confidence"`
	Version        uint      `gorm:"not null;default:0" json:"version"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

// CategoryName returns the assigned category or Uncategorized.
func (m *Message) CategoryName() string {
	if m.Category == nil || *m.Category == "" {
		return Uncategorized
	}
	return *m.Category
}
