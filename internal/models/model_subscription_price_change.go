package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/types"
)

// SubscriptionPriceChange tracks consent and application of a price change for one subscription.
// Status and ClientApprovalStatus are persisted separately; State folds them into one value.
type SubscriptionPriceChange struct {
	ID             string `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SubscriptionID string `gorm:"column:subscription_id;type:uuid;not null;index" json:"subscription_id"`
	// ProductPriceChangeID is nil for ad-hoc subscription-level changes.
	ProductPriceChangeID   *string                     `gorm:"column:product_price_change_id;type:uuid;index" json:"product_price_change_id"`
	OldAmount              decimal.Decimal             `gorm:"column:old_amount;type:decimal(12,2);not null" json:"old_amount"`
	NewAmount              decimal.Decimal             `gorm:"column:new_amount;type:decimal(12,2);not null" json:"new_amount"`
	Reason                 string                      `gorm:"column:reason;type:text" json:"reason"`
	RequiresClientApproval bool                        `gorm:"column:requires_client_approval;not null" json:"requires_client_approval"`
	ClientApprovalStatus   types.ClientApprovalStatus  `gorm:"column:client_approval_status;type:varchar(16);not null;index:idx_spc_status_approval,priority:2" json:"client_approval_status"`
	ClientApprovalDate     *time.Time                  `gorm:"column:client_approval_date" json:"client_approval_date"`
	ClientApprovalMethod   *types.ClientApprovalMethod `gorm:"column:client_approval_method;type:varchar(32)" json:"client_approval_method"`
	// ApprovalToken is set iff RequiresClientApproval.
	ApprovalToken *string `gorm:"column:approval_token;type:varchar(64);uniqueIndex" json:"-"`
	// SubscriptionSuspended records that the subscription was paused when the consent request was created.
	SubscriptionSuspended bool                                `gorm:"column:subscription_suspended;not null" json:"subscription_suspended"`
	Status                types.SubscriptionPriceChangeStatus `gorm:"column:status;type:varchar(16);not null;index:idx_spc_status_approval,priority:1" json:"status"`
	ScheduledDate         *time.Time                          `gorm:"column:scheduled_date" json:"scheduled_date"`
	AppliedAt             *time.Time                          `gorm:"column:applied_at" json:"applied_at"`
	CreatedAt             time.Time                           `gorm:"index" json:"created_at"`
	UpdatedAt             time.Time                           `json:"updated_at"`
}

func (SubscriptionPriceChange) TableName() string {
	return "subscription_price_change"
}

// PriceChangeState is the composite of Status and ClientApprovalStatus.
type PriceChangeState string

const (
	PriceChangeStatePendingApproval PriceChangeState = "pending_approval"
	PriceChangeStateReadyToApply    PriceChangeState = "ready_to_apply"
	PriceChangeStateApplied         PriceChangeState = "applied"
	PriceChangeStateCancelled       PriceChangeState = "cancelled"
	PriceChangeStateInvalid         PriceChangeState = "invalid"
)

// State derives the composite state. Combinations that no transition can
// produce, such as applied without AppliedAt, are Invalid.
func (c *SubscriptionPriceChange) State() PriceChangeState {
	switch c.Status {
	case types.SubscriptionPriceChangeStatusPending:
		if c.RequiresClientApproval &&
			c.ClientApprovalStatus == types.ClientApprovalStatusPending &&
			c.ApprovalToken != nil && *c.ApprovalToken != "" {
			return PriceChangeStatePendingApproval
		}
	case types.SubscriptionPriceChangeStatusScheduled:
		if c.AppliedAt == nil && c.ClientApprovalStatus.Applicable() {
			return PriceChangeStateReadyToApply
		}
	case types.SubscriptionPriceChangeStatusApplied:
		if c.AppliedAt != nil && c.ClientApprovalStatus.Applicable() {
			return PriceChangeStateApplied
		}
	case types.SubscriptionPriceChangeStatusCancelled:
		return PriceChangeStateCancelled
	}
	return PriceChangeStateInvalid
}

func illegalTransition(c *SubscriptionPriceChange, op string) error {
	return ierr.NewError("illegal price change transition").
		WithMessagef("%s from state %s (id=%s)", op, c.State(), c.ID).
		WithHint("The price change is not in a state that allows this operation").
		Mark(ierr.ErrConflict)
}

// Approve records customer consent and schedules the change. ScheduledDate
// defaults to the approval time.
func (c *SubscriptionPriceChange) Approve(at time.Time, method types.ClientApprovalMethod) error {
	if c.State() != PriceChangeStatePendingApproval {
		return illegalTransition(c, "approve")
	}
	c.ClientApprovalStatus = types.ClientApprovalStatusApproved
	c.ClientApprovalDate = &at
	c.ClientApprovalMethod = &method
	c.Status = types.SubscriptionPriceChangeStatusScheduled
	if c.ScheduledDate == nil {
		c.ScheduledDate = &at
	}
	return nil
}

// AutoApprove approves a consent request the customer never answered.
func (c *SubscriptionPriceChange) AutoApprove(at time.Time) error {
	return c.Approve(at, types.ClientApprovalMethodAutoApprovedNoResponse)
}

// Reject cancels the change permanently.
func (c *SubscriptionPriceChange) Reject(at time.Time) error {
	if c.State() != PriceChangeStatePendingApproval {
		return illegalTransition(c, "reject")
	}
	method := types.ClientApprovalMethodEmailLink
	c.ClientApprovalStatus = types.ClientApprovalStatusRejected
	c.ClientApprovalDate = &at
	c.ClientApprovalMethod = &method
	c.Status = types.SubscriptionPriceChangeStatusCancelled
	return nil
}

// MarkApplied moves a ready change to applied. It fails on a second call.
func (c *SubscriptionPriceChange) MarkApplied(at time.Time) error {
	if c.State() != PriceChangeStateReadyToApply {
		return illegalTransition(c, "apply")
	}
	c.Status = types.SubscriptionPriceChangeStatusApplied
	c.AppliedAt = &at
	return nil
}

// Due reports whether a ready change has reached its scheduled date.
func (c *SubscriptionPriceChange) Due(now time.Time) bool {
	return c.State() == PriceChangeStateReadyToApply &&
		c.ScheduledDate != nil && !c.ScheduledDate.After(now)
}

// ConsentExpired reports whether a pending consent request is older than window.
func (c *SubscriptionPriceChange) ConsentExpired(now time.Time, window time.Duration) bool {
	return c.State() == PriceChangeStatePendingApproval && !c.CreatedAt.After(now.Add(-window))
}
