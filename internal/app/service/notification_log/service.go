package notification_log

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/repricer/internal/app/repository"
	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/config"
	"github.com/fatflowers/repricer/pkg/logctx"
	"github.com/fatflowers/repricer/pkg/tool"
	"github.com/fatflowers/repricer/pkg/types"
)

// Service records that a customer should be notified. Delivery happens elsewhere;
// entries are written through the caller's store so they commit with the change.
type Service struct {
	baseURL string
	log     *zap.SugaredLogger
}

func New(cfg *config.Config, log *zap.SugaredLogger) *Service {
	return &Service{baseURL: cfg.Consent.BaseURL, log: log}
}

// ApprovalLink is the customer-facing consent URL for token.
func (s *Service) ApprovalLink(token string) string {
	return s.baseURL + "/" + url.PathEscape(token)
}

// RecordApprovalRequest appends a consent request for change.
func (s *Service) RecordApprovalRequest(ctx context.Context, store repository.Store, sub *models.Subscription, change *models.SubscriptionPriceChange) error {
	payload := basePayload(sub, change)
	if change.ApprovalToken != nil {
		payload.ApprovalLink = s.ApprovalLink(*change.ApprovalToken)
	}
	return s.append(ctx, store, sub, types.NotificationEventTypeApprovalRequest, payload)
}

// RecordPriceChangeApplied appends a notice that change took effect.
func (s *Service) RecordPriceChangeApplied(ctx context.Context, store repository.Store, sub *models.Subscription, change *models.SubscriptionPriceChange, appliedAt time.Time) error {
	payload := basePayload(sub, change)
	payload.AppliedAt = &appliedAt
	return s.append(ctx, store, sub, types.NotificationEventTypePriceChangeApplied, payload)
}

func basePayload(sub *models.Subscription, change *models.SubscriptionPriceChange) *models.NotificationPayload {
	return &models.NotificationPayload{
		SubscriptionPriceChangeID: change.ID,
		CustomerName:              sub.CustomerName,
		OldAmount:                 change.OldAmount,
		NewAmount:                 change.NewAmount,
		Reason:                    change.Reason,
	}
}

func (s *Service) append(ctx context.Context, store repository.Store, sub *models.Subscription, event types.NotificationEventType, payload *models.NotificationPayload) error {
	entry := &models.NotificationLogEntry{
		ID:             tool.GenerateUUIDV7(),
		SubscriptionID: sub.ID,
		EventType:      event,
		Channel:        types.NotificationChannelEmail,
		Recipient:      sub.CustomerEmail,
		Payload:        datatypes.NewJSONType(payload),
		Status:         types.NotificationStatusQueued,
	}
	if err := store.AppendNotification(ctx, entry); err != nil {
		logctx.FromCtx(ctx, s.log).Errorw("failed to append notification",
			"subscription_id", sub.ID, "event_type", event, "err", err)
		return err
	}
	return nil
}
