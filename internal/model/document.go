package model

import "time"

const (
	DocumentStatusPending = "pending"
	DocumentStatusChunked = "chunked"
	DocumentStatusIndexed = "indexed"
	DocumentStatusFailed  = "failed"
)

type Document struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TenantID      uint      `gorm:"not null;index" json:"tenant_id"`
	Name          string    `gorm:"size:256;not null" json:"name"`
	Source        string    `gorm:"size:512" json:"source"`
	Status        string    `gorm:"size:16;not null;default:pending" json:"status"`
	FailureReason string    `gorm:"size:512" json:"failure_reason,omitempty"`
	ChunkCount    int       `gorm:"not null;default:0" json:"chunk_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
