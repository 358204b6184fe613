package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// HealthRegistrar exposes grpc.health.v1 for the whole process and for the
// named services.
type HealthRegistrar struct {
	Health   *health.Server
	services []string
}

// NewHealthRegistrar creates a health server reporting SERVING for services.
func NewHealthRegistrar(services ...string) *HealthRegistrar {
	return &HealthRegistrar{Health: health.NewServer(), services: services}
}

// Register attaches the health service to the gRPC server
func (r *HealthRegistrar) Register(s *grpc.Server) {
	r.Health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	for _, name := range r.services {
		r.Health.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	healthpb.RegisterHealthServer(s, r.Health)
}

// Shutdown flips every service to NOT_SERVING.
func (r *HealthRegistrar) Shutdown() {
	r.Health.Shutdown()
}
