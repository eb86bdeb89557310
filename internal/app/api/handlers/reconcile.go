package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/internal/app/service/reconciler"
	"github.com/fatflowers/repricer/pkg/response"
)

type Reconciler interface {
	Run(ctx context.Context) (*reconciler.Report, error)
}

// @Summary      Run Billing Reconciliation
// @Description  Applies due price changes and auto-approves unanswered consent requests.
// @Tags         Cron
// @Produce      json
// @Param        X-Cron-Key header string true "Scheduler key"
// @Success      200  {object}  handlers.RespReconcileReport
// @Failure      401  {object}  handlers.RespOK
// @Router       /api/v1/cron/reconcile [post]
func ApiReconcile(svc Reconciler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := svc.Run(c.Request.Context())
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(report))
	}
}

// RegisterCronRoutes expects r to sit behind CronKeyMiddleware.
func RegisterCronRoutes(r gin.IRouter, svc Reconciler, log *zap.SugaredLogger) {
	r.POST("/cron/reconcile", ApiReconcile(svc, log))
}
