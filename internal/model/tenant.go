package model

import "time"

// Tenant is the isolation boundary: every document, chunk, category and
// conversation belongs to exactly one tenant.
type Tenant struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	CompanyName  string `gorm:"size:128;not null;uniqueIndex" json:"company_name"`
	Email        string `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`

	// CategoryVersion increments on every approve/archive of a category.
	// The recategorization job snapshots it at job start.
	CategoryVersion uint `gorm:"not null;default:0" json:"category_version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
