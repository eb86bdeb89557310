package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/fatflowers/repricer/pkg/types"
)

// NotificationPayload is what the delivery pipeline needs to render a message.
type NotificationPayload struct {
	SubscriptionPriceChangeID string          `json:"subscription_price_change_id"`
	CustomerName              string          `json:"customer_name,omitempty"`
	OldAmount                 decimal.Decimal `json:"old_amount"`
	NewAmount                 decimal.Decimal `json:"new_amount"`
	Reason                    string          `json:"reason,omitempty"`
	ApprovalLink              string          `json:"approval_link,omitempty"`
	AppliedAt                 *time.Time      `json:"applied_at,omitempty"`
}

// NotificationLogEntry is an append-only intent to notify a customer.
// Rows are never updated after insert.
type NotificationLogEntry struct {
	ID             string                                   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SubscriptionID string                                   `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscription_id"`
	EventType      types.NotificationEventType              `gorm:"column:event_type;type:varchar(64);not null" json:"event_type"`
	Channel        types.NotificationChannel                `gorm:"column:channel;type:varchar(16);not null" json:"channel"`
	Recipient      string                                   `gorm:"column:recipient;type:varchar(255);not null" json:"recipient"`
	Payload        datatypes.JSONType[*NotificationPayload] `gorm:"column:payload;type:jsonb" json:"payload"`
	Status         types.NotificationStatus                 `gorm:"column:status;type:varchar(16);not null" json:"status"`
	CreatedAt      time.Time                                `json:"created_at"`
}

func (NotificationLogEntry) TableName() string { return "notification_log_entry" }
