package pricechange

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fatflowers/repricer/internal/app/repository"
	notificationlog "github.com/fatflowers/repricer/internal/app/service/notification_log"
	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/config"
	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/logctx"
	"github.com/fatflowers/repricer/pkg/metrics"
	"github.com/fatflowers/repricer/pkg/tool"
	"github.com/fatflowers/repricer/pkg/types"
)

const metricsComponent = "orchestrator"

// Service fans product price changes out to subscriptions.
type Service struct {
	store       repository.Store
	notify      *notificationlog.Service
	tokens      tool.TokenIssuer
	concurrency int
	log         *zap.SugaredLogger
	now         func() time.Time
}

func NewService(store repository.Store, notify *notificationlog.Service, tokens tool.TokenIssuer, cfg *config.Config, log *zap.SugaredLogger) *Service {
	concurrency := cfg.PriceChange.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		store:       store,
		notify:      notify,
		tokens:      tokens,
		concurrency: concurrency,
		log:         log,
		now:         time.Now,
	}
}

// authorizeChange loads a product price change and checks the caller owns its product.
func (s *Service) authorizeChange(ctx context.Context, callerID, changeID string) (*models.ProductPriceChange, *models.Product, error) {
	if callerID == "" {
		return nil, nil, ierr.NewError("missing caller").
			WithHint("Authentication required").
			Mark(ierr.ErrUnauthenticated)
	}
	if changeID == "" {
		return nil, nil, ierr.NewError("missing product_price_change_id").
			WithHint("product_price_change_id is required").
			Mark(ierr.ErrValidation)
	}
	change, err := s.store.GetProductPriceChange(ctx, changeID)
	if err != nil {
		return nil, nil, err
	}
	product, err := s.store.GetProduct(ctx, change.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if product.OwnerID != callerID {
		return nil, nil, ierr.NewError("caller does not own product").
			WithMessagef("product=%s caller=%s", product.ID, callerID).
			WithHint("You do not have access to this price change").
			Mark(ierr.ErrPermissionDenied)
	}
	return change, product, nil
}

func alreadyProcessed(change *models.ProductPriceChange) error {
	return ierr.NewError("price change not pending").
		WithMessagef("id=%s status=%s", change.ID, change.Status).
		WithHint("Price change has already been processed").
		Mark(ierr.ErrConflict)
}

// Apply runs a pending product price change against every active or trial
// subscription of its product. Per-subscription failures are counted, never
// returned. The returned tally is also persisted on the change record.
func (s *Service) Apply(ctx context.Context, callerID, changeID string) (*models.PriceChangeTally, error) {
	start := time.Now()
	defer metrics.ObserveProcess("price_change", "apply", start)
	lg := logctx.FromCtx(ctx, s.log).With("product_price_change_id", changeID)

	change, product, err := s.authorizeChange(ctx, callerID, changeID)
	if err != nil {
		return nil, err
	}
	if change.Status != types.ProductPriceChangeStatusPending {
		return nil, alreadyProcessed(change)
	}

	// guard against a concurrent run of the same change
	changed, err := s.store.TransitionProductPriceChange(ctx, change.ID, types.ProductPriceChangeStatusPending, types.ProductPriceChangeStatusApplying)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, alreadyProcessed(change)
	}
	// once claimed, the run must reach applied even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	subs, err := s.store.ListSubscriptionsByProduct(ctx, product.ID, types.BillableSubscriptionStatuses)
	if err != nil {
		if _, rerr := s.store.TransitionProductPriceChange(ctx, change.ID, types.ProductPriceChangeStatusApplying, types.ProductPriceChangeStatusPending); rerr != nil {
			lg.Errorw("failed to release price change after load failure", "err", rerr)
		}
		return nil, err
	}

	tally := s.execute(ctx, change, Plan(change, subs))

	appliedAt := s.now()
	if ok, err := s.store.CompleteProductPriceChange(ctx, change.ID, tally, len(subs), appliedAt); err != nil {
		lg.Errorw("failed to complete price change", "err", err, "tally", tally)
	} else if !ok {
		lg.Warnw("price change left applying state before completion", "tally", tally)
	}
	if err := s.store.UpdateProductBaseAmount(ctx, product.ID, change.NewBaseAmount); err != nil {
		lg.Errorw("failed to update product base amount", "product_id", product.ID, "err", err)
	}

	metrics.CountOutcome(metricsComponent, metrics.OutcomeApplied, tally.Applied)
	metrics.CountOutcome(metricsComponent, metrics.OutcomePendingApproval, tally.PendingApproval)
	metrics.CountOutcome(metricsComponent, metrics.OutcomeFailed, tally.Failed)
	lg.Infow("price change applied",
		"applied", tally.Applied,
		"pending_approval", tally.PendingApproval,
		"failed", tally.Failed,
		"total", len(subs))
	return &tally, nil
}

// execute runs mutations with bounded parallelism. Each mutation commits in
// its own transaction so one failure leaves the others intact.
func (s *Service) execute(ctx context.Context, change *models.ProductPriceChange, mutations []Mutation) models.PriceChangeTally {
	var (
		mu    sync.Mutex
		tally models.PriceChangeTally
		g     errgroup.Group
	)
	g.SetLimit(s.concurrency)
	for _, m := range mutations {
		g.Go(func() error {
			err := s.runMutation(ctx, change, m)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				tally.Failed++
				logctx.FromCtx(ctx, s.log).Warnw("subscription price change failed",
					"product_price_change_id", change.ID,
					"subscription_id", m.Subscription.ID,
					"kind", m.Kind,
					"err", err)
			case m.Kind == MutationApplyNow:
				tally.Applied++
			default:
				tally.PendingApproval++
			}
			return nil
		})
	}
	_ = g.Wait()
	return tally
}

func (s *Service) runMutation(ctx context.Context, change *models.ProductPriceChange, m Mutation) error {
	spc := &models.SubscriptionPriceChange{
		ID:                   tool.GenerateUUIDV7(),
		SubscriptionID:       m.Subscription.ID,
		ProductPriceChangeID: &change.ID,
		OldAmount:            m.Subscription.Amount,
		NewAmount:            m.NewAmount,
		Reason:               change.Reason,
		ScheduledDate:        change.ScheduledDate,
	}
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if m.Kind == MutationApplyNow {
			return s.applyNow(ctx, tx, m.Subscription, spc)
		}
		return s.requestConsent(ctx, tx, m.Subscription, spc, m.Suspend)
	})
}

// applyNow updates the subscription amount and records an applied change.
func (s *Service) applyNow(ctx context.Context, tx repository.Store, sub *models.Subscription, spc *models.SubscriptionPriceChange) error {
	now := s.now()
	changed, err := tx.ApplySubscriptionAmount(ctx, sub.ID, spc.NewAmount, now)
	if err != nil {
		return err
	}
	if !changed {
		return ierr.NewError("subscription vanished").
			WithMessagef("subscription=%s", sub.ID).
			WithHint("Subscription not found").
			Mark(ierr.ErrNotFound)
	}

	method := types.ClientApprovalMethodNotRequired
	spc.RequiresClientApproval = false
	spc.ClientApprovalStatus = types.ClientApprovalStatusNotRequired
	spc.ClientApprovalMethod = &method
	spc.Status = types.SubscriptionPriceChangeStatusApplied
	spc.ScheduledDate = &now
	spc.AppliedAt = &now
	if err := tx.CreateSubscriptionPriceChange(ctx, spc); err != nil {
		return err
	}

	after := *sub
	after.Amount = spc.NewAmount
	after.PriceChangeHistoryCount++
	after.LastPriceChangeDate = &now
	return tx.CreateSubscriptionLog(ctx, models.NewSubscriptionLog(
		tool.GenerateUUIDV7(), spc.ID, types.SubscriptionChangeReasonPriceChangeApplied, *sub, after))
}

// requestConsent opens a consent request for spc, optionally pausing the
// subscription, and queues the approval-request notification.
func (s *Service) requestConsent(ctx context.Context, tx repository.Store, sub *models.Subscription, spc *models.SubscriptionPriceChange, suspend bool) error {
	token, err := s.tokens.Issue()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Internal error").
			Mark(ierr.ErrSystem)
	}
	spc.RequiresClientApproval = true
	spc.ClientApprovalStatus = types.ClientApprovalStatusPending
	spc.ClientApprovalMethod = nil
	spc.ApprovalToken = &token
	spc.Status = types.SubscriptionPriceChangeStatusPending

	if suspend {
		paused, err := tx.TransitionSubscriptionStatus(ctx, sub.ID, types.BillableSubscriptionStatuses, types.SubscriptionStatusPaused)
		if err != nil {
			return err
		}
		if paused {
			spc.SubscriptionSuspended = true
		}
	}
	if err := tx.CreateSubscriptionPriceChange(ctx, spc); err != nil {
		return err
	}
	if spc.SubscriptionSuspended {
		after := *sub
		after.Status = types.SubscriptionStatusPaused
		if err := tx.CreateSubscriptionLog(ctx, models.NewSubscriptionLog(
			tool.GenerateUUIDV7(), spc.ID, types.SubscriptionChangeReasonSuspendedForApproval, *sub, after)); err != nil {
			return err
		}
	}
	return s.notify.RecordApprovalRequest(ctx, tx, sub, spc)
}

// Cancel withdraws a pending product price change.
func (s *Service) Cancel(ctx context.Context, callerID, changeID string) error {
	change, _, err := s.authorizeChange(ctx, callerID, changeID)
	if err != nil {
		return err
	}
	changed, err := s.store.TransitionProductPriceChange(ctx, change.ID, types.ProductPriceChangeStatusPending, types.ProductPriceChangeStatusCancelled)
	if err != nil {
		return err
	}
	if !changed {
		return alreadyProcessed(change)
	}
	logctx.FromCtx(ctx, s.log).Infow("price change cancelled", "product_price_change_id", change.ID)
	return nil
}

// ScheduleRequest creates an ad-hoc price change for a single subscription.
type ScheduleRequest struct {
	SubscriptionID string          `json:"subscription_id" validate:"required"`
	NewAmount      decimal.Decimal `json:"new_amount" swaggertype:"string" example:"120.00"`
	Reason         string          `json:"reason" validate:"max=1000"`
	// ScheduledDate defaults to now.
	ScheduledDate *time.Time `json:"scheduled_date"`
}

// SchedulePriceChange records an ad-hoc change. It is applied by the
// reconciler once due and, when required, approved.
func (s *Service) SchedulePriceChange(ctx context.Context, callerID string, req *ScheduleRequest) (*models.SubscriptionPriceChange, error) {
	if callerID == "" {
		return nil, ierr.NewError("missing caller").
			WithHint("Authentication required").
			Mark(ierr.ErrUnauthenticated)
	}
	if !req.NewAmount.IsPositive() {
		return nil, ierr.NewError("non-positive amount").
			WithHint("new_amount must be greater than zero").
			Mark(ierr.ErrValidation)
	}
	sub, err := s.store.GetSubscription(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.OwnerID != callerID {
		return nil, ierr.NewError("caller does not own subscription").
			WithMessagef("subscription=%s caller=%s", sub.ID, callerID).
			WithHint("You do not have access to this subscription").
			Mark(ierr.ErrPermissionDenied)
	}
	if !sub.Status.Billable() {
		return nil, ierr.NewError("subscription not billable").
			WithMessagef("subscription=%s status=%s", sub.ID, sub.Status).
			WithHint("Subscription is not active").
			Mark(ierr.ErrConflict)
	}
	product, err := s.store.GetProduct(ctx, sub.ProductID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	scheduled := now
	if req.ScheduledDate != nil {
		scheduled = *req.ScheduledDate
	}
	spc := &models.SubscriptionPriceChange{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: sub.ID,
		OldAmount:      sub.Amount,
		NewAmount:      req.NewAmount,
		Reason:         req.Reason,
		ScheduledDate:  &scheduled,
	}
	requiresApproval := !sub.IsVariable() && product.RequiresApprovalForFixed
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if requiresApproval {
			return s.requestConsent(ctx, tx, sub, spc, product.AutoSuspendFixedUntilApproval)
		}
		method := types.ClientApprovalMethodNotRequired
		spc.ClientApprovalStatus = types.ClientApprovalStatusNotRequired
		spc.ClientApprovalMethod = &method
		spc.Status = types.SubscriptionPriceChangeStatusScheduled
		return tx.CreateSubscriptionPriceChange(ctx, spc)
	})
	if err != nil {
		return nil, err
	}
	logctx.FromCtx(ctx, s.log).Infow("subscription price change scheduled",
		"subscription_price_change_id", spc.ID,
		"subscription_id", sub.ID,
		"requires_approval", requiresApproval)
	return spc, nil
}
