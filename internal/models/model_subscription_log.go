package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/repricer/pkg/types"
)

// SubscriptionLog records changes to subscriptions made by the price change engine.
// Use case: troubleshooting.
type SubscriptionLog struct {
	ID             string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SubscriptionID string `gorm:"column:subscription_id;type:uuid;index:idx_subscription_log_subscription,priority:1;not null"`
	// PriceChangeID is the SubscriptionPriceChange that caused the mutation.
	PriceChangeID string `gorm:"column:price_change_id;type:uuid;not null"`
	// Reason is the change reason.
	Reason types.SubscriptionChangeReason `gorm:"column:reason;type:varchar(64);not null"`
	// Before stores subscription data before the change in JSON format.
	Before datatypes.JSONType[*Subscription] `gorm:"column:before;type:jsonb"`
	// After stores subscription data after the change in JSON format.
	After     datatypes.JSONType[*Subscription] `gorm:"column:after;type:jsonb"`
	CreatedAt time.Time                         `gorm:"index:idx_subscription_log_subscription,priority:2"`
}

func (SubscriptionLog) TableName() string {
	return "subscription_log"
}

// NewSubscriptionLog snapshots before and after. Callers pass copies.
func NewSubscriptionLog(id, priceChangeID string, reason types.SubscriptionChangeReason, before, after Subscription) *SubscriptionLog {
	return &SubscriptionLog{
		ID:             id,
		SubscriptionID: before.ID,
		PriceChangeID:  priceChangeID,
		Reason:         reason,
		Before:         datatypes.NewJSONType(&before),
		After:          datatypes.NewJSONType(&after),
	}
}
