package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/types"
)

// GormStore implements Store on postgres through gorm.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var Module = fx.Options(
	fx.Provide(
		NewGormStore,
		func(s *GormStore) Store { return s },
	),
)

func wrapErr(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ierr.WithError(err).
			WithHintf("%s not found", entity).
			Mark(ierr.ErrNotFound)
	}
	return ierr.WithError(err).
		WithMessagef("%s query failed", entity).
		WithHint("Internal error").
		Mark(ierr.ErrDatabase)
}

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

func (s *GormStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, wrapErr(err, "Product")
	}
	return &p, nil
}

func (s *GormStore) UpdateProductBaseAmount(ctx context.Context, id string, amount decimal.Decimal) error {
	res := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ?", id).
		Update("base_amount", amount)
	return wrapErr(res.Error, "Product")
}

func (s *GormStore) GetProductPriceChange(ctx context.Context, id string) (*models.ProductPriceChange, error) {
	var c models.ProductPriceChange
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, wrapErr(err, "Price change")
	}
	return &c, nil
}

func (s *GormStore) TransitionProductPriceChange(ctx context.Context, id string, from, to types.ProductPriceChangeStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.ProductPriceChange{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Update("status", to)
	if res.Error != nil {
		return false, wrapErr(res.Error, "Price change")
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) CompleteProductPriceChange(ctx context.Context, id string, tally models.PriceChangeTally, total int, appliedAt time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.ProductPriceChange{}).
		Where("id = ?", id).
		Where("status = ?", types.ProductPriceChangeStatusApplying).
		Updates(map[string]any{
			"status":                         types.ProductPriceChangeStatusApplied,
			"applied_at":                     appliedAt,
			"subscriptions_applied":          tally.Applied,
			"subscriptions_pending_approval": tally.PendingApproval,
			"subscriptions_failed":           tally.Failed,
			"total_subscriptions_affected":   total,
		})
	if res.Error != nil {
		return false, wrapErr(res.Error, "Price change")
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		return nil, wrapErr(err, "Subscription")
	}
	return &sub, nil
}

func (s *GormStore) ListSubscriptionsByProduct(ctx context.Context, productID string, statuses []types.SubscriptionStatus) ([]*models.Subscription, error) {
	var subs []*models.Subscription
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Where("status IN ?", statuses).
		Order("id").
		Find(&subs).Error
	if err != nil {
		return nil, wrapErr(err, "Subscription")
	}
	return subs, nil
}

func (s *GormStore) ApplySubscriptionAmount(ctx context.Context, id string, amount decimal.Decimal, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"amount":                     amount,
			"price_change_history_count": gorm.Expr("price_change_history_count + 1"),
			"last_price_change_date":     at,
		})
	if res.Error != nil {
		return false, wrapErr(res.Error, "Subscription")
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) TransitionSubscriptionStatus(ctx context.Context, id string, from []types.SubscriptionStatus, to types.SubscriptionStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("id = ?", id).
		Where("status IN ?", from).
		Update("status", to)
	if res.Error != nil {
		return false, wrapErr(res.Error, "Subscription")
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) CreateSubscriptionLog(ctx context.Context, log *models.SubscriptionLog) error {
	return wrapErr(s.db.WithContext(ctx).Create(log).Error, "Subscription log")
}

func (s *GormStore) CreateSubscriptionPriceChange(ctx context.Context, change *models.SubscriptionPriceChange) error {
	return wrapErr(s.db.WithContext(ctx).Create(change).Error, "Subscription price change")
}

func (s *GormStore) GetSubscriptionPriceChange(ctx context.Context, id string) (*models.SubscriptionPriceChange, error) {
	var c models.SubscriptionPriceChange
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, wrapErr(err, "Subscription price change")
	}
	return &c, nil
}

func (s *GormStore) GetPendingSubscriptionPriceChangeByToken(ctx context.Context, token string) (*models.SubscriptionPriceChange, error) {
	var c models.SubscriptionPriceChange
	err := s.db.WithContext(ctx).
		Where("approval_token = ?", token).
		Where("client_approval_status = ?", types.ClientApprovalStatusPending).
		First(&c).Error
	if err != nil {
		return nil, wrapErr(err, "Subscription price change")
	}
	return &c, nil
}

func (s *GormStore) ResolveConsent(ctx context.Context, change *models.SubscriptionPriceChange) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.SubscriptionPriceChange{}).
		Where("id = ?", change.ID).
		Where("status = ?", types.SubscriptionPriceChangeStatusPending).
		Where("client_approval_status = ?", types.ClientApprovalStatusPending).
		Updates(map[string]any{
			"status":                 change.Status,
			"client_approval_status": change.ClientApprovalStatus,
			"client_approval_date":   change.ClientApprovalDate,
			"client_approval_method": change.ClientApprovalMethod,
			"scheduled_date":         change.ScheduledDate,
		})
	if res.Error != nil {
		return false, wrapErr(res.Error, "Subscription price change")
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) MarkSubscriptionPriceChangeApplied(ctx context.Context, id string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.SubscriptionPriceChange{}).
		Where("id = ?", id).
		Where("status = ?", types.SubscriptionPriceChangeStatusScheduled).
		Where("client_approval_status IN ?", types.ApplicableApprovalStatuses).
		Where("applied_at IS NULL").
		Updates(map[string]any{
			"status":     types.SubscriptionPriceChangeStatusApplied,
			"applied_at": at,
		})
	if res.Error != nil {
		return false, wrapErr(res.Error, "Subscription price change")
	}
	return res.RowsAffected > 0, nil
}

func (s *GormStore) ListDueSubscriptionPriceChanges(ctx context.Context, now time.Time, limit int) ([]*models.SubscriptionPriceChange, error) {
	var changes []*models.SubscriptionPriceChange
	err := s.db.WithContext(ctx).
		Where("status = ?", types.SubscriptionPriceChangeStatusScheduled).
		Where("scheduled_date <= ?", now).
		Where("client_approval_status IN ?", types.ApplicableApprovalStatuses).
		Where("applied_at IS NULL").
		Order("scheduled_date").
		Limit(limit).
		Find(&changes).Error
	if err != nil {
		return nil, wrapErr(err, "Subscription price change")
	}
	return changes, nil
}

func (s *GormStore) ListStaleConsentRequests(ctx context.Context, createdBefore time.Time, limit int) ([]*models.SubscriptionPriceChange, error) {
	var changes []*models.SubscriptionPriceChange
	err := s.db.WithContext(ctx).
		Where("status = ?", types.SubscriptionPriceChangeStatusPending).
		Where("requires_client_approval = ?", true).
		Where("client_approval_status = ?", types.ClientApprovalStatusPending).
		Where("created_at <= ?", createdBefore).
		Order("created_at").
		Limit(limit).
		Find(&changes).Error
	if err != nil {
		return nil, wrapErr(err, "Subscription price change")
	}
	return changes, nil
}

func (s *GormStore) ScanSubscriptionPriceChanges(ctx context.Context, req *ScanRequest) ([]*models.SubscriptionPriceChange, int64, error) {
	q := s.db.WithContext(ctx).Model(&models.SubscriptionPriceChange{}).
		Where("product_price_change_id = ?", req.ProductPriceChangeID).
		Where(clause.Where{Exprs: []clause.Expression{req.Filters}})

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, wrapErr(err, "Subscription price change")
	}

	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	var changes []*models.SubscriptionPriceChange
	err := q.Order(clause.OrderByColumn{Column: clause.Column{Name: sortBy}, Desc: req.SortDesc}).
		Order("id").
		Offset(req.Offset).
		Limit(req.Limit).
		Find(&changes).Error
	if err != nil {
		return nil, 0, wrapErr(err, "Subscription price change")
	}
	return changes, total, nil
}

func (s *GormStore) AppendNotification(ctx context.Context, entry *models.NotificationLogEntry) error {
	return wrapErr(s.db.WithContext(ctx).Create(entry).Error, "Notification")
}
