package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/internal/app/service/consent"
	"github.com/fatflowers/repricer/internal/app/service/pricechange"
	"github.com/fatflowers/repricer/internal/app/service/reconciler"
	"github.com/fatflowers/repricer/internal/app/service/statistics"
	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/logctx"
	"github.com/fatflowers/repricer/pkg/response"
	"github.com/fatflowers/repricer/pkg/types"
)

func init() { gin.SetMode(gin.TestMode) }

type stubPriceChanges struct {
	callerID string
	changeID string
	tally    *models.PriceChangeTally
	err      error
}

func (s *stubPriceChanges) Apply(_ context.Context, callerID, changeID string) (*models.PriceChangeTally, error) {
	s.callerID, s.changeID = callerID, changeID
	return s.tally, s.err
}

func (s *stubPriceChanges) Cancel(_ context.Context, callerID, changeID string) error {
	s.callerID, s.changeID = callerID, changeID
	return s.err
}

func (s *stubPriceChanges) ListSubscriptionChanges(_ context.Context, callerID string, req *pricechange.ListRequest) (*pricechange.ListResponse, error) {
	s.callerID, s.changeID = callerID, req.ProductPriceChangeID
	return &pricechange.ListResponse{Items: []*models.SubscriptionPriceChange{}}, s.err
}

func (s *stubPriceChanges) SchedulePriceChange(_ context.Context, callerID string, req *pricechange.ScheduleRequest) (*models.SubscriptionPriceChange, error) {
	s.callerID = callerID
	return &models.SubscriptionPriceChange{ID: "spc-1", SubscriptionID: req.SubscriptionID}, s.err
}

type stubConsent struct {
	token  string
	action types.ConsentAction
	err    error
}

func (s *stubConsent) Resolve(_ context.Context, token string, action types.ConsentAction) (*consent.ResolveResult, error) {
	s.token, s.action = token, action
	if s.err != nil {
		return nil, s.err
	}
	return &consent.ResolveResult{Action: action, Message: "Price change approved"}, nil
}

func (s *stubConsent) Preview(_ context.Context, token string) (*consent.Preview, error) {
	s.token = token
	if s.err != nil {
		return nil, s.err
	}
	return &consent.Preview{ProductName: "Gym"}, nil
}

type stubReconciler struct{ report *reconciler.Report }

func (s stubReconciler) Run(context.Context) (*reconciler.Report, error) { return s.report, nil }

type stubStatistics struct{}

func (stubStatistics) GetPriceChangeStatistic(_ context.Context, callerID string, _ *statistics.PriceChangeStatisticRequest) (*statistics.PriceChangeStatisticResponse, error) {
	return &statistics.PriceChangeStatisticResponse{DataItems: map[statistics.StatisticType][]statistics.PriceChangeStatisticResponseDataItem{
		statistics.StatisticTypeTotalPendingApproval: {{Label: callerID, Value: 2}},
	}}, nil
}

// withCaller mimics AuthMiddleware.
func withCaller(callerID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logctx.CallerIDKey, callerID))
		c.Next()
	}
}

func do(t *testing.T, r *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, response.APIResponse[json.RawMessage]) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var env response.APIResponse[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func newPriceChangeEngine(svc PriceChangeService) *gin.Engine {
	r := gin.New()
	g := r.Group("/api/v1", withCaller("owner-1"))
	RegisterPriceChangeRoutes(g, svc, zap.NewNop().Sugar())
	return r
}

func TestApiApplyPriceChange(t *testing.T) {
	svc := &stubPriceChanges{tally: &models.PriceChangeTally{Applied: 1, PendingApproval: 1}}
	r := newPriceChangeEngine(svc)

	w, env := do(t, r, http.MethodPost, "/api/v1/price_changes/apply", map[string]string{"product_price_change_id": "ppc-1"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.APIResponseCodeOK, env.Code)
	require.JSONEq(t, `{"results":{"applied":1,"pending_approval":1,"failed":0}}`, string(env.Data))
	require.Equal(t, "owner-1", svc.callerID)
	require.Equal(t, "ppc-1", svc.changeID)
}

func TestApiApplyPriceChange_Errors(t *testing.T) {
	cases := []struct {
		name    string
		body    any
		err     error
		status  int
		code    response.APIResponseCode
		message string
	}{
		{
			name: "missing id", body: map[string]string{},
			status: http.StatusBadRequest, code: response.APIResponseCodeBadRequest, message: "Request validation failed",
		},
		{
			name: "forbidden", body: map[string]string{"product_price_change_id": "ppc-1"},
			err:    ierr.NewError("owner mismatch").WithHint("You do not have access to this price change").Mark(ierr.ErrPermissionDenied),
			status: http.StatusForbidden, code: response.APIResponseCodeForbidden, message: "You do not have access to this price change",
		},
		{
			name: "already processed", body: map[string]string{"product_price_change_id": "ppc-1"},
			err:    ierr.NewError("status applied").WithHint("Price change has already been processed").Mark(ierr.ErrConflict),
			status: http.StatusConflict, code: response.APIResponseCodeConflict, message: "Price change has already been processed",
		},
		{
			name: "database detail hidden", body: map[string]string{"product_price_change_id": "ppc-1"},
			err:    ierr.NewError("dial tcp 10.0.0.5:5432: connection refused").Mark(ierr.ErrDatabase),
			status: http.StatusInternalServerError, code: response.APIResponseCodeError,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newPriceChangeEngine(&stubPriceChanges{err: tc.err})
			w, env := do(t, r, http.MethodPost, "/api/v1/price_changes/apply", tc.body)
			require.Equal(t, tc.status, w.Code)
			require.Equal(t, tc.code, env.Code)
			if tc.message != "" {
				require.Equal(t, tc.message, env.Message)
			}
			require.NotContains(t, w.Body.String(), "10.0.0.5")
		})
	}
}

func TestPriceChangeRoutes(t *testing.T) {
	svc := &stubPriceChanges{}
	r := newPriceChangeEngine(svc)

	w, _ := do(t, r, http.MethodPost, "/api/v1/price_changes/cancel", map[string]string{"product_price_change_id": "ppc-2"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ppc-2", svc.changeID)

	w, env := do(t, r, http.MethodPost, "/api/v1/price_changes/list_subscription_changes", map[string]any{"product_price_change_id": "ppc-3", "limit": 10})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"items":[],"total":0}`, string(env.Data))

	w, _ = do(t, r, http.MethodPost, "/api/v1/price_changes/list_subscription_changes", map[string]any{"product_price_change_id": "ppc-3", "limit": 1000})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodPost, "/api/v1/subscriptions/schedule_price_change", map[string]any{"subscription_id": "sub-1", "new_amount": "120.00"})
	require.Equal(t, http.StatusOK, w.Code)
	var change models.SubscriptionPriceChange
	require.NoError(t, json.Unmarshal(env.Data, &change))
	require.Equal(t, "sub-1", change.SubscriptionID)
}

func TestConsentRoutes(t *testing.T) {
	svc := &stubConsent{}
	r := gin.New()
	RegisterConsentRoutes(r.Group("/api/v1"), svc, zap.NewNop().Sugar())

	w, env := do(t, r, http.MethodPost, "/api/v1/consent/resolve", map[string]string{"token": "tok", "action": "approve"})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"action":"approve","message":"Price change approved"}`, string(env.Data))
	require.Equal(t, types.ConsentActionApprove, svc.action)

	w, _ = do(t, r, http.MethodPost, "/api/v1/consent/resolve", map[string]string{"token": "tok", "action": "maybe"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/v1/consent/tok-9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "tok-9", svc.token)

	svc.err = ierr.NewError("unresolvable approval token").WithHint(consent.InvalidTokenMessage).Mark(ierr.ErrNotFound)
	w, env = do(t, r, http.MethodPost, "/api/v1/consent/resolve", map[string]string{"token": "tok", "action": "reject"})
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, consent.InvalidTokenMessage, env.Message)
}

func TestCronAndAdminRoutes(t *testing.T) {
	r := gin.New()
	log := zap.NewNop().Sugar()
	RegisterCronRoutes(r.Group("/api/v1"), stubReconciler{report: &reconciler.Report{AppliedCount: 2, PerItemResults: []reconciler.ItemResult{}}}, log)
	RegisterAdminRoutes(r.Group("/api/v1/admin", withCaller("owner-1")), stubStatistics{}, log)

	w, env := do(t, r, http.MethodPost, "/api/v1/cron/reconcile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"applied_count":2,"auto_approved_count":0,"failed_count":0,"per_item_results":[]}`, string(env.Data))

	w, env = do(t, r, http.MethodPost, "/api/v1/admin/get_price_change_statistic", map[string]any{
		"data_items": []map[string]string{{"id": "total_pending_approval"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"data_items":{"total_pending_approval":[{"label":"owner-1","value":2}]}}`, string(env.Data))

	w, _ = do(t, r, http.MethodPost, "/api/v1/admin/get_price_change_statistic", map[string]any{"data_items": []any{}})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthz(t *testing.T) {
	r := gin.New()
	RegisterHealthRoutes(r)
	w, env := do(t, r, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}
