// Package grpcprobe exposes the standard gRPC health service.
//
// Edge deployments that front the daemon with gRPC-aware infrastructure
// (service meshes, load balancers) probe this endpoint instead of the HTTP
// health server. It serves the stock grpc.health.v1 protocol, so any
// standard health checker works against it.
package grpcprobe

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server wraps a gRPC server that serves only the health service.
type Server struct {
	port   int
	server *grpc.Server
	health *health.Server
}

// New creates a gRPC health probe server on the given port.
func New(port int) *Server {
	return &Server{port: port, health: health.NewServer()}
}

// SetReady flips the reported serving status.
func (s *Server) SetReady(ready bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if ready {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Listen starts the gRPC server. It blocks until the context is cancelled.
func (s *Server) Listen(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	s.server = grpc.NewServer()
	healthpb.RegisterHealthServer(s.server, s.health)

	slog.Info("grpc health probe listening", "port", s.port)

	go func() {
		<-ctx.Done()
		slog.Info("grpc health probe shutting down")
		s.server.GracefulStop()
	}()

	return s.server.Serve(lis)
}
