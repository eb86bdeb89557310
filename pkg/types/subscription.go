package types

import "github.com/samber/lo"

type ProductType string

const (
	ProductTypeFixed    ProductType = "fixed"
	ProductTypeVariable ProductType = "variable"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
)

// BillableSubscriptionStatuses are the statuses a product price change fans out to.
var BillableSubscriptionStatuses = []SubscriptionStatus{SubscriptionStatusActive, SubscriptionStatusTrial}

func (s SubscriptionStatus) Billable() bool {
	return lo.Contains(BillableSubscriptionStatuses, s)
}

// SubscriptionChangeReason is recorded on every subscription log entry written by the engine.
type SubscriptionChangeReason string

const (
	SubscriptionChangeReasonPriceChangeApplied   SubscriptionChangeReason = "price_change_applied"
	SubscriptionChangeReasonSuspendedForApproval SubscriptionChangeReason = "suspended_for_approval"
	SubscriptionChangeReasonResumedAfterApproval SubscriptionChangeReason = "resumed_after_approval"
)
