package types

import "github.com/samber/lo"

type ProductPriceChangeStatus string

const (
	ProductPriceChangeStatusPending   ProductPriceChangeStatus = "pending"
	ProductPriceChangeStatusApplying  ProductPriceChangeStatus = "applying"
	ProductPriceChangeStatusApplied   ProductPriceChangeStatus = "applied"
	ProductPriceChangeStatusCancelled ProductPriceChangeStatus = "cancelled"
)

type PriceChangeType string

const (
	PriceChangeTypeUpgrade   PriceChangeType = "upgrade"
	PriceChangeTypeDowngrade PriceChangeType = "downgrade"
	PriceChangeTypeInflation PriceChangeType = "inflation"
	PriceChangeTypeCustom    PriceChangeType = "custom"
)

type PriceApplicationType string

const (
	PriceApplicationTypeImmediate PriceApplicationType = "immediate"
	PriceApplicationTypeNextCycle PriceApplicationType = "next_cycle"
	PriceApplicationTypeScheduled PriceApplicationType = "scheduled"
)

type SubscriptionPriceChangeStatus string

const (
	SubscriptionPriceChangeStatusPending   SubscriptionPriceChangeStatus = "pending"
	SubscriptionPriceChangeStatusScheduled SubscriptionPriceChangeStatus = "scheduled"
	SubscriptionPriceChangeStatusApplied   SubscriptionPriceChangeStatus = "applied"
	SubscriptionPriceChangeStatusCancelled SubscriptionPriceChangeStatus = "cancelled"
)

type ClientApprovalStatus string

const (
	ClientApprovalStatusPending     ClientApprovalStatus = "pending"
	ClientApprovalStatusApproved    ClientApprovalStatus = "approved"
	ClientApprovalStatusRejected    ClientApprovalStatus = "rejected"
	ClientApprovalStatusNotRequired ClientApprovalStatus = "not_required"
)

// ApplicableApprovalStatuses are the approval states that allow a price change to be applied.
var ApplicableApprovalStatuses = []ClientApprovalStatus{ClientApprovalStatusApproved, ClientApprovalStatusNotRequired}

func (s ClientApprovalStatus) Applicable() bool {
	return lo.Contains(ApplicableApprovalStatuses, s)
}

type ClientApprovalMethod string

const (
	ClientApprovalMethodEmailLink              ClientApprovalMethod = "email_link"
	ClientApprovalMethodAutoApprovedNoResponse ClientApprovalMethod = "auto_approved_no_response"
	ClientApprovalMethodNotRequired            ClientApprovalMethod = "not_required"
)

type ConsentAction string

const (
	ConsentActionApprove ConsentAction = "approve"
	ConsentActionReject  ConsentAction = "reject"
)

func (a ConsentAction) Valid() bool {
	return a == ConsentActionApprove || a == ConsentActionReject
}
