package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/repricer/pkg/types"
)

// Subscription is a customer's recurring billing agreement for one Product.
// Type, not the product's type, decides how a price change propagates.
type Subscription struct {
	ID            string                   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ProductID     string                   `gorm:"column:product_id;type:uuid;not null;index:idx_subscription_product_status,priority:1" json:"product_id"`
	OwnerID       string                   `gorm:"column:owner_id;type:varchar(64);not null;index" json:"owner_id"`
	CustomerEmail string                   `gorm:"column:customer_email;type:varchar(255);not null" json:"customer_email"`
	CustomerName  string                   `gorm:"column:customer_name;type:varchar(255)" json:"customer_name"`
	Amount        decimal.Decimal          `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Type          types.ProductType        `gorm:"column:type;type:varchar(16);not null" json:"type"`
	Status        types.SubscriptionStatus `gorm:"column:status;type:varchar(16);not null;index:idx_subscription_product_status,priority:2" json:"status"`
	// PriceChangeHistoryCount counts applied price changes; it only grows.
	PriceChangeHistoryCount int        `gorm:"column:price_change_history_count;not null" json:"price_change_history_count"`
	LastPriceChangeDate     *time.Time `gorm:"column:last_price_change_date" json:"last_price_change_date"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscription"
}

func (s *Subscription) IsVariable() bool {
	return s != nil && s.Type == types.ProductTypeVariable
}
