package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/repricer/pkg/ierr"
	"github.com/fatflowers/repricer/pkg/logctx"
	"github.com/fatflowers/repricer/pkg/response"
	"github.com/fatflowers/repricer/pkg/validator"
)

// respondError logs err in full and answers with its status and display message only.
func respondError(c *gin.Context, log *zap.SugaredLogger, err error) {
	status := ierr.HTTPStatusFromErr(err)
	lg := logctx.FromGin(c, log)
	if status >= 500 {
		lg.Errorw("request failed", "status", status, "err", err)
	} else {
		lg.Infow("request rejected", "status", status, "err", err)
	}
	c.JSON(status, response.ErrorMsgT[any](response.CodeFromHTTPStatus(status), ierr.DisplayMessage(err), nil))
}

// bindJSON decodes and validates the body. It writes the 400 itself and returns false on failure.
func bindJSON(c *gin.Context, log *zap.SugaredLogger, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondError(c, log, ierr.WithError(err).WithHint("Invalid request body").Mark(ierr.ErrValidation))
		return false
	}
	if err := validator.ValidateRequest(req); err != nil {
		respondError(c, log, err)
		return false
	}
	return true
}
