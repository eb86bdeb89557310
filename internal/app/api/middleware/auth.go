package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/logctx"
	"github.com/fatflowers/repricer/pkg/response"
)

// CronKeyHeader carries the shared secret of the scheduler calling the reconciler.
const CronKeyHeader = "X-Cron-Key"

// ParseCallerID verifies an HS256 bearer token and returns its user_id claim.
func ParseCallerID(tokenString, secret string) (string, error) {
	if secret == "" {
		return "", ierr.NewError("jwt secret not configured").
			WithHint("Authentication required").
			Mark(ierr.ErrUnauthenticated)
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ierr.NewError("unexpected signing method").
				WithHintf("unexpected signing method: %v", token.Header["alg"]).
				Mark(ierr.ErrUnauthenticated)
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", ierr.WithError(err).
			WithHint("Authentication required").
			Mark(ierr.ErrUnauthenticated)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ierr.NewError("invalid token claims").
			WithHint("Authentication required").
			Mark(ierr.ErrUnauthenticated)
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", ierr.NewError("token missing user_id").
			WithHint("Authentication required").
			Mark(ierr.ErrUnauthenticated)
	}
	return userID, nil
}

// AuthMiddleware authenticates the bearer token and stores the caller id on
// gin.Context and the request context under logctx.CallerIDKey.
func AuthMiddleware(secret string, base *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(tokenString) == "" {
			abortUnauthenticated(c)
			return
		}
		callerID, err := ParseCallerID(strings.TrimSpace(tokenString), secret)
		if err != nil {
			logctx.FromGin(c, base).Debugw("bearer token rejected", "err", err)
			abortUnauthenticated(c)
			return
		}

		lg := logctx.FromGin(c, base).With("caller_id", callerID)
		c.Set(logctx.CallerIDKey, callerID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logctx.CallerIDKey, callerID))
		setLogger(c, lg)
		c.Next()
	}
}

// CronKeyMiddleware admits requests whose X-Cron-Key matches key. An empty
// key rejects every request.
func CronKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(CronKeyHeader)
		if key == "" || got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			abortUnauthenticated(c)
			return
		}
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		response.ErrorT[any](response.APIResponseCodeUnauthenticated, nil))
}
