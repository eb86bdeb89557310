package reconciler

import (
	"context"
	"time"

	"go.uber.org/zap"

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

const metricsComponent = "reconciler"

type Pass string

const (
	PassApplyDue    Pass = "apply_due"
	PassAutoApprove Pass = "auto_approve"
)

type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeAutoApproved Outcome = "auto_approved"
	// OutcomeAutoApprovedApplied means the change was auto-approved and applied in the same run.
	OutcomeAutoApprovedApplied Outcome = "auto_approved_applied"
	// OutcomeSkipped means another writer got there first; nothing changed.
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

type ItemResult struct {
	SubscriptionPriceChangeID string  `json:"subscription_price_change_id"`
	SubscriptionID            string  `json:"subscription_id"`
	Pass                      Pass    `json:"pass"`
	Outcome                   Outcome `json:"outcome"`
	// Error is the caller-safe message; details are only logged.
	Error string `json:"error,omitempty"`
}

// Report summarises one reconciliation run. AppliedCount covers the apply-due
// pass; AutoApprovedCount covers approvals made by the auto-approve pass.
type Report struct {
	AppliedCount      int          `json:"applied_count"`
	AutoApprovedCount int          `json:"auto_approved_count"`
	FailedCount       int          `json:"failed_count"`
	PerItemResults    []ItemResult `json:"per_item_results"`
}

func (r *Report) add(item ItemResult) {
	r.PerItemResults = append(r.PerItemResults, item)
	switch item.Outcome {
	case OutcomeFailed:
		r.FailedCount++
	case OutcomeApplied:
		r.AppliedCount++
	case OutcomeAutoApproved, OutcomeAutoApprovedApplied:
		r.AutoApprovedCount++
		if item.Error != "" {
			r.FailedCount++
		}
	}
}

// Service applies due subscription price changes and auto-approves consent
// requests nobody answered. It keeps no state between runs.
type Service struct {
	store         repository.Store
	notify        *notificationlog.Service
	window        time.Duration
	batchSize     int
	runTimeout    time.Duration
	resumeOnApply bool
	log           *zap.SugaredLogger
	now           func() time.Time
}

func NewService(store repository.Store, notify *notificationlog.Service, cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{
		store:         store,
		notify:        notify,
		window:        cfg.Consent.AutoApproveAfter,
		batchSize:     cfg.Reconciler.BatchSize,
		runTimeout:    cfg.Reconciler.RunTimeout,
		resumeOnApply: cfg.Reconciler.ResumeSuspendedOnApply,
		log:           log,
		now:           time.Now,
	}
}

// Run executes both passes. Item failures are recorded in the report; only a
// failure to load a batch aborts the run.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	defer metrics.ObserveProcess("reconciler", "run", start)
	// a dropped trigger request must not abort a run halfway; runTimeout bounds it instead
	ctx = context.WithoutCancel(ctx)
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}
	lg := logctx.FromCtx(ctx, s.log)
	now := s.now()
	report := &Report{PerItemResults: []ItemResult{}}

	due, err := s.store.ListDueSubscriptionPriceChanges(ctx, now, s.batchSize)
	if err != nil {
		return nil, err
	}
	for _, change := range due {
		report.add(s.applyDue(ctx, change, now))
	}

	stale, err := s.store.ListStaleConsentRequests(ctx, now.Add(-s.window), s.batchSize)
	if err != nil {
		return nil, err
	}
	for _, change := range stale {
		report.add(s.autoApprove(ctx, change, now))
	}

	metrics.CountOutcome(metricsComponent, metrics.OutcomeApplied, report.AppliedCount)
	metrics.CountOutcome(metricsComponent, metrics.OutcomeAutoApproved, report.AutoApprovedCount)
	metrics.CountOutcome(metricsComponent, metrics.OutcomeFailed, report.FailedCount)
	lg.Infow("reconciliation finished",
		"applied", report.AppliedCount,
		"auto_approved", report.AutoApprovedCount,
		"failed", report.FailedCount,
		"elapsed_ms", time.Since(start).Milliseconds())
	return report, nil
}

func (s *Service) failed(ctx context.Context, item ItemResult, err error) ItemResult {
	logctx.FromCtx(ctx, s.log).Warnw("reconciliation item failed",
		"subscription_price_change_id", item.SubscriptionPriceChangeID,
		"pass", item.Pass,
		"err", err)
	item.Outcome = OutcomeFailed
	item.Error = ierr.DisplayMessage(err)
	return item
}

func (s *Service) applyDue(ctx context.Context, change *models.SubscriptionPriceChange, now time.Time) ItemResult {
	item := ItemResult{
		SubscriptionPriceChangeID: change.ID,
		SubscriptionID:            change.SubscriptionID,
		Pass:                      PassApplyDue,
	}
	applied, err := s.apply(ctx, change, now)
	if err != nil {
		return s.failed(ctx, item, err)
	}
	item.Outcome = OutcomeSkipped
	if applied {
		item.Outcome = OutcomeApplied
	}
	return item
}

func (s *Service) autoApprove(ctx context.Context, change *models.SubscriptionPriceChange, now time.Time) ItemResult {
	item := ItemResult{
		SubscriptionPriceChangeID: change.ID,
		SubscriptionID:            change.SubscriptionID,
		Pass:                      PassAutoApprove,
		Outcome:                   OutcomeSkipped,
	}
	if !change.ConsentExpired(now, s.window) {
		return item
	}
	if err := change.AutoApprove(now); err != nil {
		return s.failed(ctx, item, err)
	}
	changed, err := s.store.ResolveConsent(ctx, change)
	if err != nil {
		return s.failed(ctx, item, err)
	}
	if !changed {
		return item
	}
	item.Outcome = OutcomeAutoApproved
	if !change.Due(now) {
		return item
	}
	// a failed apply is picked up by the next run's apply-due pass
	applied, err := s.apply(ctx, change, now)
	if err != nil {
		logctx.FromCtx(ctx, s.log).Warnw("auto-approved change not applied",
			"subscription_price_change_id", change.ID, "err", err)
		item.Error = ierr.DisplayMessage(err)
		return item
	}
	if applied {
		item.Outcome = OutcomeAutoApprovedApplied
	}
	return item
}

// apply marks change applied and updates the subscription in one transaction.
// It returns false when the change was already applied or is no longer ready.
func (s *Service) apply(ctx context.Context, change *models.SubscriptionPriceChange, now time.Time) (bool, error) {
	var applied bool
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		changed, err := tx.MarkSubscriptionPriceChangeApplied(ctx, change.ID, now)
		if err != nil || !changed {
			return err
		}
		sub, err := tx.GetSubscription(ctx, change.SubscriptionID)
		if err != nil {
			return err
		}
		if _, err := tx.ApplySubscriptionAmount(ctx, sub.ID, change.NewAmount, now); err != nil {
			return err
		}
		after := *sub
		after.Amount = change.NewAmount
		after.PriceChangeHistoryCount++
		after.LastPriceChangeDate = &now
		if err := tx.CreateSubscriptionLog(ctx, models.NewSubscriptionLog(
			tool.GenerateUUIDV7(), change.ID, types.SubscriptionChangeReasonPriceChangeApplied, *sub, after)); err != nil {
			return err
		}

		if s.resumeOnApply && change.SubscriptionSuspended {
			resumed, err := tx.TransitionSubscriptionStatus(ctx, sub.ID,
				[]types.SubscriptionStatus{types.SubscriptionStatusPaused}, types.SubscriptionStatusActive)
			if err != nil {
				return err
			}
			if resumed {
				before := after
				after.Status = types.SubscriptionStatusActive
				if err := tx.CreateSubscriptionLog(ctx, models.NewSubscriptionLog(
					tool.GenerateUUIDV7(), change.ID, types.SubscriptionChangeReasonResumedAfterApproval, before, after)); err != nil {
					return err
				}
			}
		}

		if err := s.notify.RecordPriceChangeApplied(ctx, tx, &after, change, now); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}
