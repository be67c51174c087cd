package model

import "time"

// Conversation is one per customer per tenant. Its messages are append-only
// and monotonically timestamped.
type Conversation struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	TenantID          uint      `gorm:"not null;index:idx_conv_tenant_customer,unique" json:"tenant_id"`
	CustomerKey       string    `gorm:"size:64;not null;index:idx_conv_tenant_customer,unique" json:"customer_key"`
	CustomerName      string    `gorm:"size:128" json:"customer_name"`
	LastInteractionAt time.Time `json:"last_interaction_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
