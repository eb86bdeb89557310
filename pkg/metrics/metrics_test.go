package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestCountOutcome(t *testing.T) {
	CountOutcome("orchestrator", OutcomeApplied, 0)
	CountOutcome("orchestrator", OutcomeApplied, 3)
	CountOutcome("orchestrator", OutcomeApplied, 2)
	require.Equal(t, float64(5), gathered(t, "repricer_price_change_subscription_total", "orchestrator", OutcomeApplied))
}

func gathered(t *testing.T, name string, labelValues ...string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			var values []string
			for _, lp := range m.GetLabel() {
				values = append(values, lp.GetValue())
			}
			if strings.Join(values, ",") == strings.Join(labelValues, ",") {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestObserveProcess(t *testing.T) {
	ObserveProcess("reconciler", "run", time.Now().Add(-time.Second))
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	found := false
	for _, mf := range families {
		if mf.GetName() == "repricer_bp_dur" {
			found = true
			require.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
		}
	}
	require.True(t, found)
}

func TestComputeApproximateRequestSize(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/v1/price_changes/apply", strings.NewReader(`{"id":"x"}`))
	r.Header.Set("Content-Type", "application/json")
	size := computeApproximateRequestSize(r)
	require.Greater(t, size, len(`{"id":"x"}`))
}

func TestMillisecondsSince(t *testing.T) {
	require.GreaterOrEqual(t, MillisecondsSince(time.Now().Add(-10*time.Millisecond)), float64(10))
}

func TestPrometheusMiddleware_LabelsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	p := NewPrometheus(NewPrometheusOptions{Subsystem: "mwtest"})
	p.Use(r)
	r.GET("/consent/:token", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, token := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/consent/"+token, nil))
	}
	require.Equal(t, float64(2), gathered(t, "mwtest_req_total", "204", http.MethodGet, "/consent/:token"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "mwtest_req_total")

	// a second instance reuses the registered collectors
	require.NotPanics(t, func() { NewPrometheus(NewPrometheusOptions{Subsystem: "mwtest"}) })
}
