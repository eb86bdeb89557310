package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/internal/app/service/pricechange"
	"github.com/fatflowers/repricer/internal/models"
	"github.com/fatflowers/repricer/pkg/logctx"
	"github.com/fatflowers/repricer/pkg/response"
)

// PriceChangeService is the part of pricechange.Service the HTTP layer uses.
type PriceChangeService interface {
	Apply(ctx context.Context, callerID, changeID string) (*models.PriceChangeTally, error)
	Cancel(ctx context.Context, callerID, changeID string) error
	ListSubscriptionChanges(ctx context.Context, callerID string, req *pricechange.ListRequest) (*pricechange.ListResponse, error)
	SchedulePriceChange(ctx context.Context, callerID string, req *pricechange.ScheduleRequest) (*models.SubscriptionPriceChange, error)
}

type PriceChangeIDRequest struct {
	ProductPriceChangeID string `json:"product_price_change_id" validate:"required"`
}

type ApplyPriceChangeResponse struct {
	Results *models.PriceChangeTally `json:"results"`
}

// @Summary      Apply Product Price Change
// @Description  Propagates a pending product price change to every billable subscription of the product.
// @Tags         PriceChange
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PriceChangeIDRequest true "Product price change to apply"
// @Success      200  {object}  handlers.RespApplyPriceChange
// @Failure      401  {object}  handlers.RespOK
// @Failure      403  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespOK
// @Failure      409  {object}  handlers.RespOK
// @Router       /api/v1/price_changes/apply [post]
func ApiApplyPriceChange(svc PriceChangeService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PriceChangeIDRequest
		if !bindJSON(c, log, &req) {
			return
		}
		ctx := c.Request.Context()
		tally, err := svc.Apply(ctx, logctx.CallerID(ctx), req.ProductPriceChangeID)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(&ApplyPriceChangeResponse{Results: tally}))
	}
}

// @Summary      Cancel Product Price Change
// @Description  Cancels a product price change that has not been applied yet.
// @Tags         PriceChange
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PriceChangeIDRequest true "Product price change to cancel"
// @Success      200  {object}  handlers.RespOK
// @Failure      409  {object}  handlers.RespOK
// @Router       /api/v1/price_changes/cancel [post]
func ApiCancelPriceChange(svc PriceChangeService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PriceChangeIDRequest
		if !bindJSON(c, log, &req) {
			return
		}
		ctx := c.Request.Context()
		if err := svc.Cancel(ctx, logctx.CallerID(ctx), req.ProductPriceChangeID); err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      List Subscription Price Changes
// @Description  Pages through the per-subscription records of a product price change.
// @Tags         PriceChange
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body pricechange.ListRequest true "Filters, sorting and paging"
// @Success      200  {object}  handlers.RespListSubscriptionChanges
// @Router       /api/v1/price_changes/list_subscription_changes [post]
func ApiListSubscriptionChanges(svc PriceChangeService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pricechange.ListRequest
		if !bindJSON(c, log, &req) {
			return
		}
		ctx := c.Request.Context()
		res, err := svc.ListSubscriptionChanges(ctx, logctx.CallerID(ctx), &req)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Schedule Subscription Price Change
// @Description  Records an ad-hoc price change for one subscription; the reconciler applies it when due.
// @Tags         PriceChange
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body pricechange.ScheduleRequest true "Subscription price change"
// @Success      200  {object}  handlers.RespSubscriptionPriceChange
// @Router       /api/v1/subscriptions/schedule_price_change [post]
func ApiSchedulePriceChange(svc PriceChangeService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pricechange.ScheduleRequest
		if !bindJSON(c, log, &req) {
			return
		}
		ctx := c.Request.Context()
		change, err := svc.SchedulePriceChange(ctx, logctx.CallerID(ctx), &req)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(change))
	}
}

// RegisterPriceChangeRoutes expects r to sit behind AuthMiddleware.
func RegisterPriceChangeRoutes(r gin.IRouter, svc PriceChangeService, log *zap.SugaredLogger) {
	r.POST("/price_changes/apply", ApiApplyPriceChange(svc, log))
	r.POST("/price_changes/cancel", ApiCancelPriceChange(svc, log))
	r.POST("/price_changes/list_subscription_changes", ApiListSubscriptionChanges(svc, log))
	r.POST("/subscriptions/schedule_price_change", ApiSchedulePriceChange(svc, log))
}
