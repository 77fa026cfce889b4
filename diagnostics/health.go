// Package diagnostics exposes the actor system's health over the standard
// gRPC health-checking protocol. It needs no protoc-generated code of its
// own -- health.Server and the health-check wire types ship pre-generated
// inside google.golang.org/grpc/health.
package diagnostics

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/phuhao00/actorcore/actor"
)

// ServiceName is the health-check service name this package reports
// under.
const ServiceName = "actorcore.System"

// Server wraps grpc/health.Server, driven entirely by the actor system's
// failsafe registry rather than its own polling.
type Server struct {
	health *health.Server
}

func New() *Server {
	h := health.NewServer()
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return &Server{health: h}
}

// Register exposes the health service on grpcServer.
func (s *Server) Register(grpcServer *grpc.Server) {
	healthpb.RegisterHealthServer(grpcServer, s.health)
}

// WatchFailsafe registers a FailsafeHandler on system: any watchdog fault
// flips this service's reported status to NOT_SERVING. Matching the
// watchdog's own observe-only contract, nothing here ever restores
// SERVING automatically -- that decision belongs to whatever external
// operator is watching this health check.
func (s *Server) WatchFailsafe(system *actor.System) {
	system.RegisterFailsafeHandler(func(class actor.FailsafeClassification, id actor.Identity, err error) {
		if class == actor.ClassWatchdog {
			s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
		}
	})
}
