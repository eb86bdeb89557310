package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/internal/app/service/statistics"
	"github.com/fatflowers/repricer/pkg/logctx"
	"github.com/fatflowers/repricer/pkg/response"
)

type StatisticsService interface {
	GetPriceChangeStatistic(ctx context.Context, callerID string, request *statistics.PriceChangeStatisticRequest) (*statistics.PriceChangeStatisticResponse, error)
}

// @Summary      Get Price Change Statistics (Admin)
// @Description  Daily and aggregate statistics over the caller's subscription price changes.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body statistics.PriceChangeStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespPriceChangeStatistic
// @Router       /api/v1/admin/get_price_change_statistic [post]
func ApiGetPriceChangeStatistic(svc StatisticsService, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.PriceChangeStatisticRequest
		if !bindJSON(c, log, &req) {
			return
		}
		ctx := c.Request.Context()
		res, err := svc.GetPriceChangeStatistic(ctx, logctx.CallerID(ctx), &req)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, stats StatisticsService, log *zap.SugaredLogger) {
	r.POST("/get_price_change_statistic", ApiGetPriceChangeStatistic(stats, log))
}
