package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/internal/app/service/consent"
	"github.com/fatflowers/repricer/pkg/response"
	"github.com/fatflowers/repricer/pkg/types"
)

type ConsentService interface {
	Resolve(ctx context.Context, token string, action types.ConsentAction) (*consent.ResolveResult, error)
	Preview(ctx context.Context, token string) (*consent.Preview, error)
}

type ResolveConsentRequest struct {
	Token  string              `json:"token" validate:"required"`
	Action types.ConsentAction `json:"action" validate:"required,oneof=approve reject"`
}

// @Summary      Preview Price Change
// @Description  Shows the customer the price change an approval token refers to.
// @Tags         Consent
// @Produce      json
// @Param        token path string true "Approval token"
// @Success      200  {object}  handlers.RespConsentPreview
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/consent/{token} [get]
func ApiPreviewConsent(svc ConsentService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		preview, err := svc.Preview(c.Request.Context(), c.Param("token"))
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(preview))
	}
}

// @Summary      Resolve Price Change Consent
// @Description  Approves or rejects a pending price change. Unknown and already used tokens get the same answer.
// @Tags         Consent
// @Accept       json
// @Produce      json
// @Param        request body ResolveConsentRequest true "Token and action"
// @Success      200  {object}  handlers.RespResolveConsent
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/consent/resolve [post]
func ApiResolveConsent(svc ConsentService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResolveConsentRequest
		if !bindJSON(c, log, &req) {
			return
		}
		res, err := svc.Resolve(c.Request.Context(), req.Token, req.Action)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// RegisterConsentRoutes registers the customer-facing routes; the token is the credential.
func RegisterConsentRoutes(r gin.IRouter, svc ConsentService, log *zap.SugaredLogger) {
	r.POST("/consent/resolve", ApiResolveConsent(svc, log))
	r.GET("/consent/:token", ApiPreviewConsent(svc, log))
}
