package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/internal/app/service/consent"
	notificationlog "github.com/fatflowers/repricer/internal/app/service/notification_log"
	"github.com/fatflowers/repricer/internal/app/service/pricechange"
	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/internal/testutil"
	"github.com/fatflowers/repricer/pkg/config"
	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/tool"
	"github.com/fatflowers/repricer/pkg/types"
)

const week = 7 * 24 * time.Hour

var t0 = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func testConfig(resume bool) *config.Config {
	return &config.Config{
		Consent:    config.ConsentConfig{BaseURL: "https://billing.example.com/consent", AutoApproveAfter: week},
		Reconciler: config.ReconcilerConfig{BatchSize: 100, RunTimeout: time.Minute, ResumeSuspendedOnApply: resume},
	}
}

func newReconciler(store *testutil.InMemoryStore, cfg *config.Config, now time.Time) *Service {
	log := zap.NewNop().Sugar()
	svc := NewService(store, notificationlog.New(cfg, log), cfg, log)
	svc.now = func() time.Time { return now }
	return svc
}

func seedSubscription(store *testutil.InMemoryStore, id string, status types.SubscriptionStatus) {
	store.AddSubscription(models.Subscription{
		ID: id, ProductID: "p1", OwnerID: "o1", CustomerEmail: id + "@example.com",
		Amount: decimal.NewFromInt(100), Type: types.ProductTypeFixed, Status: status,
	})
}

func pendingConsent(id, subID string, created time.Time) models.SubscriptionPriceChange {
	return models.SubscriptionPriceChange{
		ID:                     id,
		SubscriptionID:         subID,
		OldAmount:              decimal.NewFromInt(100),
		NewAmount:              decimal.NewFromInt(120),
		RequiresClientApproval: true,
		ClientApprovalStatus:   types.ClientApprovalStatusPending,
		ApprovalToken:          lo.ToPtr("tok-" + id),
		Status:                 types.SubscriptionPriceChangeStatusPending,
		CreatedAt:              created,
	}
}

func scheduled(id, subID string, at time.Time, approval types.ClientApprovalStatus) models.SubscriptionPriceChange {
	return models.SubscriptionPriceChange{
		ID:                   id,
		SubscriptionID:       subID,
		OldAmount:            decimal.NewFromInt(100),
		NewAmount:            decimal.NewFromInt(110),
		ClientApprovalStatus: approval,
		Status:               types.SubscriptionPriceChangeStatusScheduled,
		ScheduledDate:        &at,
		CreatedAt:            at.Add(-time.Hour),
	}
}

func TestRun_PassAAppliesDueChangesOnly(t *testing.T) {
	store := testutil.NewInMemoryStore()
	seedSubscription(store, "s1", types.SubscriptionStatusActive)
	seedSubscription(store, "s2", types.SubscriptionStatusActive)
	store.AddSubscriptionPriceChange(scheduled("due", "s1", t0.Add(-time.Minute), types.ClientApprovalStatusNotRequired))
	store.AddSubscriptionPriceChange(scheduled("future", "s2", t0.Add(time.Hour), types.ClientApprovalStatusApproved))

	report, err := newReconciler(store, testConfig(false), t0).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.AppliedCount)
	require.Equal(t, 0, report.AutoApprovedCount)
	require.Len(t, report.PerItemResults, 1)
	require.Equal(t, ItemResult{SubscriptionPriceChangeID: "due", SubscriptionID: "s1", Pass: PassApplyDue, Outcome: OutcomeApplied}, report.PerItemResults[0])

	ctx := context.Background()
	s1, _ := store.GetSubscription(ctx, "s1")
	require.True(t, s1.Amount.Equal(decimal.NewFromInt(110)))
	require.Equal(t, 1, s1.PriceChangeHistoryCount)
	s2, _ := store.GetSubscription(ctx, "s2")
	require.True(t, s2.Amount.Equal(decimal.NewFromInt(100)))

	c, _ := store.GetSubscriptionPriceChange(ctx, "due")
	require.Equal(t, models.PriceChangeStateApplied, c.State())
	require.Equal(t, t0, *c.AppliedAt)

	notifications := store.Notifications()
	require.Len(t, notifications, 1)
	require.Equal(t, types.NotificationEventTypePriceChangeApplied, notifications[0].EventType)
}

func TestRun_CompletesAfterCallerCancels(t *testing.T) {
	store := testutil.NewInMemoryStore()
	seedSubscription(store, "s1", types.SubscriptionStatusActive)
	seedSubscription(store, "s2", types.SubscriptionStatusPaused)
	store.AddSubscriptionPriceChange(scheduled("due", "s1", t0.Add(-time.Minute), types.ClientApprovalStatusApproved))
	store.AddSubscriptionPriceChange(pendingConsent("stale", "s2", t0.Add(-week)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := newReconciler(store, testConfig(false), t0).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.AppliedCount)
	require.Equal(t, 1, report.AutoApprovedCount)
	require.Zero(t, report.FailedCount)

	c, _ := store.GetSubscriptionPriceChange(context.Background(), "due")
	require.Equal(t, models.PriceChangeStateApplied, c.State())
}

func TestRun_IsIdempotent(t *testing.T) {
	store := testutil.NewInMemoryStore()
	seedSubscription(store, "s1", types.SubscriptionStatusActive)
	store.AddSubscriptionPriceChange(scheduled("due", "s1", t0, types.ClientApprovalStatusApproved))
	svc := newReconciler(store, testConfig(false), t0)

	_, err := svc.Run(context.Background())
	require.NoError(t, err)
	report, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, report.AppliedCount)
	require.Empty(t, report.PerItemResults)

	s1, _ := store.GetSubscription(context.Background(), "s1")
	require.Equal(t, 1, s1.PriceChangeHistoryCount)
	require.Len(t, store.Notifications(), 1)
}

func TestRun_AutoApprovalWindowBoundary(t *testing.T) {
	store := testutil.NewInMemoryStore()
	seedSubscription(store, "s1", types.SubscriptionStatusPaused)
	store.AddSubscriptionPriceChange(pendingConsent("c1", "s1", t0))
	ctx := context.Background()

	report, err := newReconciler(store, testConfig(false), t0.Add(week-time.Second)).Run(ctx)
	require.NoError(t, err)
	require.Zero(t, report.AutoApprovedCount)
	c, _ := store.GetSubscriptionPriceChange(ctx, "c1")
	require.Equal(t, models.PriceChangeStatePendingApproval, c.State())

	at := t0.Add(week)
	report, err = newReconciler(store, testConfig(false), at).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.AutoApprovedCount)
	require.Equal(t, 0, report.AppliedCount)
	require.Equal(t, OutcomeAutoApprovedApplied, report.PerItemResults[0].Outcome)
	require.Equal(t, PassAutoApprove, report.PerItemResults[0].Pass)

	c, _ = store.GetSubscriptionPriceChange(ctx, "c1")
	require.Equal(t, models.PriceChangeStateApplied, c.State())
	require.Equal(t, types.ClientApprovalMethodAutoApprovedNoResponse, *c.ClientApprovalMethod)
	s1, _ := store.GetSubscription(ctx, "s1")
	require.True(t, s1.Amount.Equal(decimal.NewFromInt(120)))
	// reactivation is off by default
	require.Equal(t, types.SubscriptionStatusPaused, s1.Status)

	report, err = newReconciler(store, testConfig(false), at.Add(time.Hour)).Run(ctx)
	require.NoError(t, err)
	require.Empty(t, report.PerItemResults)
}

func TestRun_AutoApprovedButScheduledLater(t *testing.T) {
	store := testutil.NewInMemoryStore()
	seedSubscription(store, "s1", types.SubscriptionStatusActive)
	c := pendingConsent("c1", "s1", t0)
	later := t0.Add(30 * 24 * time.Hour)
	c.ScheduledDate = &later
	store.AddSubscriptionPriceChange(c)

	report, err := newReconciler(store, testConfig(false), t0.Add(8*24*time.Hour)).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeAutoApproved, report.PerItemResults[0].Outcome)

	got, _ := store.GetSubscriptionPriceChange(context.Background(), "c1")
	require.Equal(t, models.PriceChangeStateReadyToApply, got.State())

	report, err = newReconciler(store, testConfig(false), later).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.AppliedCount)
}

func TestRun_RejectedIsNeverApplied(t *testing.T) {
	store := testutil.NewInMemoryStore()
	seedSubscription(store, "s1", types.SubscriptionStatusActive)
	c := pendingConsent("c1", "s1", t0)
	require.NoError(t, c.Reject(t0.Add(time.Hour)))
	store.AddSubscriptionPriceChange(c)

	report, err := newReconciler(store, testConfig(false), t0.Add(60*24*time.Hour)).Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.PerItemResults)
	got, _ := store.GetSubscriptionPriceChange(context.Background(), "c1")
	require.Equal(t, types.SubscriptionPriceChangeStatusCancelled, got.Status)
}

func TestRun_ResumeSuspendedOnApply(t *testing.T) {
	store := testutil.NewInMemoryStore()
	seedSubscription(store, "s1", types.SubscriptionStatusPaused)
	c := pendingConsent("c1", "s1", t0)
	c.SubscriptionSuspended = true
	store.AddSubscriptionPriceChange(c)

	_, err := newReconciler(store, testConfig(true), t0.Add(week)).Run(context.Background())
	require.NoError(t, err)
	s1, _ := store.GetSubscription(context.Background(), "s1")
	require.Equal(t, types.SubscriptionStatusActive, s1.Status)

	reasons := lo.Map(store.SubscriptionLogs(), func(l models.SubscriptionLog, _ int) types.SubscriptionChangeReason { return l.Reason })
	require.Equal(t, []types.SubscriptionChangeReason{
		types.SubscriptionChangeReasonPriceChangeApplied,
		types.SubscriptionChangeReasonResumedAfterApproval,
	}, reasons)
}

func TestRun_ItemFailureDoesNotAbortBatch(t *testing.T) {
	store := testutil.NewInMemoryStore()
	seedSubscription(store, "s1", types.SubscriptionStatusActive)
	seedSubscription(store, "s2", types.SubscriptionStatusActive)
	store.AddSubscriptionPriceChange(scheduled("a", "s1", t0.Add(-2*time.Hour), types.ClientApprovalStatusNotRequired))
	store.AddSubscriptionPriceChange(scheduled("b", "s2", t0.Add(-time.Hour), types.ClientApprovalStatusNotRequired))
	store.FailOn("ApplySubscriptionAmount", "s1", errors.New("pq: deadlock detected at 10.1.2.3"))

	report, err := newReconciler(store, testConfig(false), t0).Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.AppliedCount)
	require.Equal(t, 1, report.FailedCount)
	require.Equal(t, OutcomeFailed, report.PerItemResults[0].Outcome)
	require.NotContains(t, report.PerItemResults[0].Error, "10.1.2.3")

	// the failed item rolled back entirely and stays eligible
	a, _ := store.GetSubscriptionPriceChange(context.Background(), "a")
	require.Equal(t, models.PriceChangeStateReadyToApply, a.State())
	require.Len(t, store.Notifications(), 1)
}

func TestRun_BatchLoadFailureAborts(t *testing.T) {
	store := testutil.NewInMemoryStore()
	store.FailOn("ListDueSubscriptionPriceChanges", "", ierr.NewError("timeout").WithHint("Internal error").Mark(ierr.ErrDatabase))

	_, err := newReconciler(store, testConfig(false), t0).Run(context.Background())
	require.True(t, ierr.IsDatabase(err))
}

// Full flow: fan-out, customer approval eight days later, then Pass A.
func TestScenario_ApprovedAfterEightDaysAppliedByPassA(t *testing.T) {
	store := testutil.NewInMemoryStore()
	cfg := testConfig(false)
	cfg.PriceChange.Concurrency = 1
	log := zap.NewNop().Sugar()
	ctx := context.Background()

	store.AddProduct(models.Product{
		ID: "p1", OwnerID: "o1", BaseAmount: decimal.NewFromInt(100), Type: types.ProductTypeFixed,
		RequiresApprovalForFixed: true, AutoSuspendFixedUntilApproval: true,
	})
	seedSubscription(store, "s2", types.SubscriptionStatusActive)
	store.AddProductPriceChange(models.ProductPriceChange{
		ID: "ppc1", ProductID: "p1",
		OldBaseAmount: decimal.NewFromInt(100), NewBaseAmount: decimal.NewFromInt(120),
		RequiresApprovalForFixed: true, AutoSuspendFixedUntilApproval: true,
		Status: types.ProductPriceChangeStatusPending,
	})

	notify := notificationlog.New(cfg, log)
	orchestrator := pricechange.NewService(store, notify, tool.NewTokenIssuer(), cfg, log)
	_, err := orchestrator.Apply(ctx, "o1", "ppc1")
	require.NoError(t, err)

	spc := store.SubscriptionPriceChangesFor("s2")[0]
	require.Equal(t, models.PriceChangeStatePendingApproval, spc.State())

	_, err = consent.NewService(store, cfg, log).Resolve(ctx, *spc.ApprovalToken, types.ConsentActionApprove)
	require.NoError(t, err)

	// the consent service stamps wall-clock time, so reconcile from just after it
	report, err := newReconciler(store, cfg, time.Now().Add(8*24*time.Hour)).Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.AppliedCount)
	require.Zero(t, report.AutoApprovedCount)
	require.Equal(t, PassApplyDue, report.PerItemResults[0].Pass)

	s2, _ := store.GetSubscription(ctx, "s2")
	require.True(t, s2.Amount.Equal(decimal.NewFromInt(120)))
	got, _ := store.GetSubscriptionPriceChange(ctx, spc.ID)
	require.Equal(t, types.SubscriptionPriceChangeStatusApplied, got.Status)
}

func TestNewScheduler(t *testing.T) {
	store := testutil.NewInMemoryStore()
	svc := newReconciler(store, testConfig(false), t0)

	s, err := NewScheduler(&config.Config{}, svc, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.False(t, s.Enabled())
	require.NoError(t, s.Stop(context.Background()))

	s, err = NewScheduler(&config.Config{Reconciler: config.ReconcilerConfig{Schedule: "*/10 * * * *"}}, svc, zap.NewNop().Sugar())
	require.NoError(t, err)
	require.True(t, s.Enabled())
	s.Start()
	require.NoError(t, s.Stop(context.Background()))

	_, err = NewScheduler(&config.Config{Reconciler: config.ReconcilerConfig{Schedule: "every tuesday"}}, svc, zap.NewNop().Sugar())
	require.Error(t, err)
}
