package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/types"
)

// Store is the entity store used by the price change engine.
//
// Every method that changes a status is a conditional write: it returns
// changed=false, and no error, when the record was not in the expected state.
// Callers treat that as an idempotent no-op.
type Store interface {
	// Transaction runs fn against a store bound to one database transaction.
	// Returning an error from fn rolls back every write made through tx.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	GetProduct(ctx context.Context, id string) (*models.Product, error)
	UpdateProductBaseAmount(ctx context.Context, id string, amount decimal.Decimal) error

	GetProductPriceChange(ctx context.Context, id string) (*models.ProductPriceChange, error)
	TransitionProductPriceChange(ctx context.Context, id string, from, to types.ProductPriceChangeStatus) (bool, error)
	// CompleteProductPriceChange moves an applying record to applied and writes its tallies.
	CompleteProductPriceChange(ctx context.Context, id string, tally models.PriceChangeTally, total int, appliedAt time.Time) (bool, error)

	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	ListSubscriptionsByProduct(ctx context.Context, productID string, statuses []types.SubscriptionStatus) ([]*models.Subscription, error)
	// ApplySubscriptionAmount sets the amount, bumps the history counter and stamps the change date.
	ApplySubscriptionAmount(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (bool, error)
	TransitionSubscriptionStatus(ctx context.Context, id string, from []types.SubscriptionStatus, to types.SubscriptionStatus) (bool, error)
	CreateSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error

	CreateSubscriptionPriceChange(ctx context.Context, change *models.SubscriptionPriceChange) error
	GetSubscriptionPriceChange(ctx context.Context, id string) (*models.SubscriptionPriceChange, error)
	// GetPendingSubscriptionPriceChangeByToken only matches requests still awaiting consent.
	GetPendingSubscriptionPriceChangeByToken(ctx context.Context, token string) (*models.SubscriptionPriceChange, error)
	// ResolveConsent persists the approval fields of change, guarded on the request still awaiting consent.
	ResolveConsent(ctx context.Context, change *models.SubscriptionPriceChange) (bool, error)
	// MarkSubscriptionPriceChangeApplied is guarded on status=scheduled, an applicable
	// approval status and applied_at IS NULL.
	MarkSubscriptionPriceChangeApplied(ctx context.Context, id string, at time.Time) (bool, error)
	ListDueSubscriptionPriceChanges(ctx context.Context, now time.Time, limit int) ([]*models.SubscriptionPriceChange, error)
	ListStaleConsentRequests(ctx context.Context, createdBefore time.Time, limit int) ([]*models.SubscriptionPriceChange, error)
	ScanSubscriptionPriceChanges(ctx context.Context, req *ScanRequest) ([]*models.SubscriptionPriceChange, int64, error)

	AppendNotification(ctx context.Context, entry *models.NotificationLogEntry) error
}

// ScanRequest pages through the subscription price changes of one product price change.
// Filters must already be validated against an allow-list.
type ScanRequest struct {
	ProductPriceChangeID string
	Filters              types.FiltersAnd
	SortBy               string
	SortDesc             bool
	Offset               int
	Limit                int
}
