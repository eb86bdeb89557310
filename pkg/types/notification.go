package types

type NotificationEventType string

const (
	NotificationEventTypeApprovalRequest    NotificationEventType = "price_change_approval_request"
	NotificationEventTypePriceChangeApplied NotificationEventType = "price_change_applied"
)

type NotificationChannel string

const (
	NotificationChannelEmail NotificationChannel = "email"
)

// NotificationStatus is only ever "queued" here; delivery state belongs to the downstream pipeline.
type NotificationStatus string

const (
	NotificationStatusQueued NotificationStatus = "queued"
)
