package model

import "time"

const (
	CategoryStatusSuggested = "suggested"
	CategoryStatusActive    = "active"
	CategoryStatusArchived  = "archived"
)

// Category is a tenant-scoped conversation label. Only active categories
// are eligible classification targets; a suggested category becomes active
// through explicit approval, which also triggers recategorization.
type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	TenantID    uint      `gorm:"not null;index" json:"tenant_id"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Description string    `gorm:"size:512" json:"description"`
	Status      string    `gorm:"size:16;not null;default:suggested" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
