package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/repricer/pkg/types"
)

// ProductPriceChange is one product-level price change intent. Status only
// moves pending -> applying -> applied, or pending -> cancelled.
type ProductPriceChange struct {
	ID              string                     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID       string                     `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	OldBaseAmount   decimal.Decimal            `gorm:"column:old_base_amount;type:decimal(12,2);not null" json:"old_base_amount"`
	NewBaseAmount   decimal.Decimal            `gorm:"column:new_base_amount;type:decimal(12,2);not null" json:"new_base_amount"`
	Reason          string                     `gorm:"column:reason;type:text" json:"reason"`
	ChangeType      types.PriceChangeType      `gorm:"column:change_type;type:varchar(16);not null" json:"change_type"`
	ApplicationType types.PriceApplicationType `gorm:"column:application_type;type:varchar(16);not null" json:"application_type"`
	ScheduledDate   *time.Time                 `gorm:"column:scheduled_date" json:"scheduled_date"`
	// Policy snapshots taken from the product when the change was created.
	RequiresApprovalForFixed      bool                           `gorm:"column:requires_approval_for_fixed;not null" json:"requires_approval_for_fixed"`
	AutoSuspendFixedUntilApproval bool                           `gorm:"column:auto_suspend_fixed_until_approval;not null" json:"auto_suspend_fixed_until_approval"`
	Status                        types.ProductPriceChangeStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	SubscriptionsApplied          int                            `gorm:"column:subscriptions_applied;not null" json:"subscriptions_applied"`
	SubscriptionsPendingApproval  int                            `gorm:"column:subscriptions_pending_approval;not null" json:"subscriptions_pending_approval"`
	SubscriptionsFailed           int                            `gorm:"column:subscriptions_failed;not null" json:"subscriptions_failed"`
	TotalSubscriptionsAffected    int                            `gorm:"column:total_subscriptions_affected;not null" json:"total_subscriptions_affected"`
	AppliedAt                     *time.Time                     `gorm:"column:applied_at" json:"applied_at"`
	CreatedBy                     string                         `gorm:"column:created_by;type:varchar(64)" json:"created_by"`
	CreatedAt                     time.Time                      `json:"created_at"`
	UpdatedAt                     time.Time                      `json:"updated_at"`
}

func (ProductPriceChange) TableName() string {
	return "product_price_change"
}

// PriceChangeTally is the outcome of one orchestrator run.
type PriceChangeTally struct {
	Applied         int `json:"applied"`
	PendingApproval int `json:"pending_approval"`
	Failed          int `json:"failed"`
}

func (t PriceChangeTally) Total() int {
	return t.Applied + t.PendingApproval + t.Failed
}
