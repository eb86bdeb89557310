package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/repricer/pkg/types"
)

// Product is a shared recurring offering. Only BaseAmount is written by the
// price change engine; everything else is managed elsewhere.
type Product struct {
	ID         string            `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OwnerID    string            `gorm:"column:owner_id;type:varchar(64);not null;index" json:"owner_id"`
	Name       string            `gorm:"column:name;type:varchar(255);not null" json:"name"`
	BaseAmount decimal.Decimal   `gorm:"column:base_amount;type:decimal(12,2);not null" json:"base_amount"`
	Currency   string            `gorm:"column:currency;type:varchar(3);not null" json:"currency"`
	Type       types.ProductType `gorm:"column:type;type:varchar(16);not null" json:"type"`
	// RequiresApprovalForFixed makes fixed subscriptions wait for customer consent.
	RequiresApprovalForFixed bool `gorm:"column:requires_approval_for_fixed;not null" json:"requires_approval_for_fixed"`
	// AutoSuspendFixedUntilApproval pauses a fixed subscription while its consent request is open.
	AutoSuspendFixedUntilApproval bool      `gorm:"column:auto_suspend_fixed_until_approval;not null" json:"auto_suspend_fixed_until_approval"`
	CreatedAt                     time.Time `json:"created_at"`
	UpdatedAt                     time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "product"
}
