package observability

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "h1bee_http_requests_total",
			Help: "Total number of HTTP requests processed by the match service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "h1bee_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	grpcServerHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grpc_server_handled_total",
			Help: "Total number of gRPC requests handled by the server.",
		},
		[]string{"grpc_service", "grpc_method", "grpc_code"},
	)
	swipesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "h1bee_swipes_total",
			Help: "Swipes recorded, by action.",
		},
		[]string{"action"},
	)
	matchesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "h1bee_matches_created_total",
			Help: "Matches created by reciprocal likes.",
		},
	)
	unmatchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "h1bee_unmatches_total",
			Help: "Matches dissolved by a participant.",
		},
	)
	notifyFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "h1bee_notify_failures_total",
			Help: "Match notifications that could not be delivered.",
		},
		[]string{"driver"},
	)
	discoveryCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "h1bee_discovery_candidates",
			Help:    "Number of candidates returned per discover call.",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 40, 50},
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		grpcServerHandledTotal,
		swipesTotal,
		matchesCreatedTotal,
		unmatchesTotal,
		notifyFailuresTotal,
		discoveryCandidates,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// MetricsHandler serves the default registry.
func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func GRPCServerMetricsUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		statusInfo := status.Convert(err)
		service, method := splitFullMethod(info.FullMethod)
		grpcServerHandledTotal.WithLabelValues(service, method, statusInfo.Code().String()).Inc()
		return resp, err
	}
}

func splitFullMethod(fullMethod string) (string, string) {
	parts := strings.Split(fullMethod, "/")
	if len(parts) < 3 {
		return "unknown", "unknown"
	}
	return parts[1], parts[2]
}

func IncSwipe(action string) {
	swipesTotal.WithLabelValues(action).Inc()
}

func IncMatchCreated() {
	matchesCreatedTotal.Inc()
}

func IncUnmatch() {
	unmatchesTotal.Inc()
}

func IncNotifyFailure(driver string) {
	notifyFailuresTotal.WithLabelValues(driver).Inc()
}

func ObserveDiscoveryCandidates(n int) {
	discoveryCandidates.Observe(float64(n))
}
