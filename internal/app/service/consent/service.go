package consent

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/internal/app/repository"
	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/config"
	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/logctx"
	"github.com/fatflowers/repricer/pkg/tool"
	"github.com/fatflowers/repricer/pkg/types"
)

// InvalidTokenMessage is returned for every token that cannot be resolved,
// whatever the reason.
const InvalidTokenMessage = "invalid or already processed"

// Service resolves customer consent requests by approval token. It never
// applies prices or reactivates subscriptions; the reconciler does that.
type Service struct {
	store            repository.Store
	autoApproveAfter time.Duration
	log              *zap.SugaredLogger
	now              func() time.Time
}

func NewService(store repository.Store, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{
		store:            store,
		autoApproveAfter: cfg.Consent.AutoApproveAfter,
		log:              log,
		now:              time.Now,
	}
}

var Module = fx.Options(
	fx.Provide(NewService),
)

type ResolveResult struct {
	Action  types.ConsentAction `json:"action"`
	Message string              `json:"message"`
}

type Preview struct {
	ProductName   string          `json:"product_name"`
	Currency      string          `json:"currency"`
	OldAmount     decimal.Decimal `json:"old_amount" swaggertype:"string"`
	NewAmount     decimal.Decimal `json:"new_amount" swaggertype:"string"`
	Reason        string          `json:"reason"`
	ScheduledDate *time.Time      `json:"scheduled_date"`
	// AutoApproveAt is when silence counts as approval.
	AutoApproveAt time.Time `json:"auto_approve_at"`
}

// invalidToken builds a fresh error so no store hint reaches the customer.
func (s *Service) invalidToken(ctx context.Context, cause error) error {
	if cause != nil {
		logctx.FromCtx(ctx, s.log).Debugw("approval token not resolvable", "err", cause)
	}
	return ierr.NewError("unresolvable approval token").
		WithHint(InvalidTokenMessage).
		Mark(ierr.ErrNotFound)
}

// lookup finds a request still awaiting consent. Every miss is reported as
// the same not-found error.
func (s *Service) lookup(ctx context.Context, token string) (*models.SubscriptionPriceChange, error) {
	if !tool.ValidTokenFormat(token) {
		return nil, s.invalidToken(ctx, nil)
	}
	change, err := s.store.GetPendingSubscriptionPriceChangeByToken(ctx, token)
	if err != nil {
		if ierr.IsNotFound(err) {
			return nil, s.invalidToken(ctx, err)
		}
		return nil, err
	}
	if change.State() != models.PriceChangeStatePendingApproval {
		return nil, s.invalidToken(ctx, nil)
	}
	return change, nil
}

// Resolve records the customer's answer to a consent request.
func (s *Service) Resolve(ctx context.Context, token string, action types.ConsentAction) (*ResolveResult, error) {
	if !action.Valid() {
		return nil, ierr.NewError("unknown consent action").
			WithMessagef("action=%q", action).
			WithHint("action must be approve or reject").
			Mark(ierr.ErrValidation)
	}
	change, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &ResolveResult{Action: action}
	switch action {
	case types.ConsentActionApprove:
		err = change.Approve(now, types.ClientApprovalMethodEmailLink)
		result.Message = "Price change approved. It will take effect on the scheduled date."
	case types.ConsentActionReject:
		err = change.Reject(now)
		result.Message = "Price change rejected. Your current price stays in place."
	}
	if err != nil {
		return nil, s.invalidToken(ctx, err)
	}

	changed, err := s.store.ResolveConsent(ctx, change)
	if err != nil {
		return nil, err
	}
	if !changed {
		// someone else resolved it between lookup and write
		return nil, s.invalidToken(ctx, nil)
	}
	logctx.FromCtx(ctx, s.log).Infow("consent resolved",
		"subscription_price_change_id", change.ID,
		"subscription_id", change.SubscriptionID,
		"action", action)
	return result, nil
}

// Preview describes a pending consent request to the customer holding token.
func (s *Service) Preview(ctx context.Context, token string) (*Preview, error) {
	change, err := s.lookup(ctx, token)
	if err != nil {
		return nil, err
	}
	sub, err := s.store.GetSubscription(ctx, change.SubscriptionID)
	if err != nil {
		return nil, err
	}
	product, err := s.store.GetProduct(ctx, sub.ProductID)
	if err != nil {
		return nil, err
	}
	return &Preview{
		ProductName:   product.Name,
		Currency:      product.Currency,
		OldAmount:     change.OldAmount,
		NewAmount:     change.NewAmount,
		Reason:        change.Reason,
		ScheduledDate: change.ScheduledDate,
		AutoApproveAt: change.CreatedAt.Add(s.autoApproveAfter),
	}, nil
}
