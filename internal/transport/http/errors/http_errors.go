// Package errors renders service errors as JSON responses for gin.
package errors

import (
	"github.com/gin-gonic/gin"

	svcErr "github.com/oggyb/h1bee-match/internal/errors"
	"github.com/oggyb/h1bee-match/internal/logger"
	"github.com/oggyb/h1bee-match/internal/observability"
	"github.com/oggyb/h1bee-match/internal/transport/http/dto"
)

// Write aborts the request with {"error": msg}. Server side failures are
// logged and reported; their details never reach the client.
func Write(c *gin.Context, err error) {
	status, msg := svcErr.HTTPStatus(err)
	if status >= 500 {
		ctx := c.Request.Context()
		logger.FromContext(ctx, nil).Error("request failed", "route", c.FullPath(), "err", err)
		observability.CaptureError(ctx, err)
	}
	c.AbortWithStatusJSON(status, dto.ErrorResponse{Error: msg})
}
