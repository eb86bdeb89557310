package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const businessSubsystem = "repricer"

// Outcome labels for MetricsSubscriptionOutcome.
const (
	OutcomeApplied         = "applied"
	OutcomePendingApproval = "pending_approval"
	OutcomeAutoApproved    = "auto_approved"
	OutcomeFailed          = "failed"
	OutcomeSkipped         = "skipped"
)

var MetricsSubscriptionOutcome = &Metric{
	ID:          "pcOutcome",
	Name:        "price_change_subscription_total",
	Description: "Per-subscription price change outcomes, partitioned by component.",
	Type:        "counter_vec",
	Args:        []string{"component", "outcome"},
}

var (
	businessOnce sync.Once
	bpDur        *prometheus.HistogramVec
	outcomeCnt   *prometheus.CounterVec
)

func business() {
	businessOnce.Do(func() {
		bpDur = registerOrExisting(NewMetric(MetricsBusinessProcess, businessSubsystem)).(*prometheus.HistogramVec)
		outcomeCnt = registerOrExisting(NewMetric(MetricsSubscriptionOutcome, businessSubsystem)).(*prometheus.CounterVec)
	})
}

func registerOrExisting(c prometheus.Collector) prometheus.Collector {
	if err := prometheus.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector
		}
	}
	return c
}

// ObserveProcess records the latency of a business process step.
func ObserveProcess(typ, subtype string, start time.Time) {
	business()
	bpDur.WithLabelValues(typ, subtype).Observe(MillisecondsSince(start))
}

// CountOutcome adds n to the per-subscription outcome counter.
func CountOutcome(component, outcome string, n int) {
	if n <= 0 {
		return
	}
	business()
	outcomeCnt.WithLabelValues(component, outcome).Add(float64(n))
}
