package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/logctx"
)

const secret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func newAuthEngine() *gin.Engine {
	r := gin.New()
	log := zap.NewNop().Sugar()
	r.Use(TraceMiddleware(), RequestLoggerMiddleware(log), AccessLogMiddleware())
	r.GET("/me", AuthMiddleware(secret, log), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logctx.CallerIDKey)+"|"+logctx.CallerID(c.Request.Context()))
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	r := newAuthEngine()
	valid := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": "owner-1"})

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{name: "valid", header: "Bearer " + valid, status: http.StatusOK, body: "owner-1|owner-1"},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not-a-jwt", status: http.StatusUnauthorized},
		{name: "wrong secret", header: "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"user_id": "owner-1"}), status: http.StatusUnauthorized},
		{name: "no user_id", header: "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "owner-1"}), status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": "owner-1", "exp": time.Now().Add(-time.Hour).Unix()}), status: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				require.Equal(t, tc.body, w.Body.String())
			} else {
				require.JSONEq(t, `{"code":40100,"message":"authentication required","data":null}`, w.Body.String())
			}
			require.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestParseCallerID_RequiresSecret(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, []byte(""), jwt.MapClaims{"user_id": "owner-1"})
	_, err := ParseCallerID(token, "")
	require.True(t, ierr.IsUnauthenticated(err))
}

func TestCronKeyMiddleware(t *testing.T) {
	newEngine := func(key string) *gin.Engine {
		r := gin.New()
		r.POST("/cron", CronKeyMiddleware(key), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}
	call := func(r *gin.Engine, header string) int {
		req := httptest.NewRequest(http.MethodPost, "/cron", nil)
		if header != "" {
			req.Header.Set(CronKeyHeader, header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	r := newEngine("k3y")
	require.Equal(t, http.StatusNoContent, call(r, "k3y"))
	require.Equal(t, http.StatusUnauthorized, call(r, "wrong"))
	require.Equal(t, http.StatusUnauthorized, call(r, ""))

	// unconfigured key denies everything
	require.Equal(t, http.StatusUnauthorized, call(newEngine(""), ""))
}

func TestTraceMiddleware_KeepsClientRequestID(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(logctx.TraceIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, "req-42", w.Body.String())
	require.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}
