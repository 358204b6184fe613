package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/h1bee-match/internal/transport/http/dto"
)

// Pinger is anything the health check can ping.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler builds a HealthHandler. redis may be nil.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Check reports liveness. Dependency problems are reported in the body
// without failing the check.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        pingStatus(ctx, h.db),
	}
	if h.redis != nil {
		resp.Redis = pingStatus(ctx, h.redis)
	}
	c.JSON(http.StatusOK, resp)
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "unknown"
	}
	if err := p.PingContext(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "ok"
}
