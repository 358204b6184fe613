package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/oggyb/h1bee-match/internal/config"
	"github.com/oggyb/h1bee-match/internal/observability"
	"github.com/oggyb/h1bee-match/internal/transport/http/handlers"
	"github.com/oggyb/h1bee-match/internal/transport/http/middleware"
)

// Handlers groups the HTTP handlers mounted by NewRouter.
type Handlers struct {
	Match  *handlers.MatchHandler
	Likes  *handlers.LikesHandler
	Health *handlers.HealthHandler
}

// NewRouter builds the gin engine. Every /api route except health requires
// a bearer token.
func NewRouter(cfg *config.Config, logger *slog.Logger, verifier middleware.TokenVerifier, h Handlers) *gin.Engine {
	if cfg.App.ENV != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		otelgin.Middleware(cfg.Tracing.ServiceName),
		observability.SentryMiddleware(logger),
		observability.HTTPMetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	r.GET("/metrics", observability.MetricsHandler())

	api := r.Group("/api")
	api.GET("/health", h.Health.Check)

	authed := api.Group("", middleware.Auth(verifier))

	matches := authed.Group("/matches")
	matches.GET("/discover", h.Match.Discover)
	matches.POST("/swipe", h.Match.Swipe)
	matches.GET("", h.Match.ListMatches)
	matches.DELETE("/:matchId", h.Match.Unmatch)

	authed.POST("/conversations/:conversationId/read", h.Match.MarkRead)

	likes := authed.Group("/likes")
	likes.GET("", h.Likes.List)
	likes.GET("/new", h.Likes.ListNew)
	likes.GET("/count", h.Likes.Count)

	return r
}

// StartHTTPServer serves handler until ctx is cancelled, then drains
// in-flight requests for up to 10s.
func StartHTTPServer(ctx context.Context, cfg *config.Config, logger *slog.Logger, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%s", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("stopping HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
