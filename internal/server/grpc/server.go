// Package grpcserver runs the gRPC health endpoint of the vault server.
package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health service name reported alongside the overall "" entry.
const ServiceName = "zkvault.Vault"

// Pinger reports storage reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configure the gRPC server.
type Options struct {
	// Creds enables TLS when set.
	Creds credentials.TransportCredentials
	// Reflection registers server reflection (dev only).
	Reflection bool
}

// Server serves grpc.health.v1 with logging and recovery interceptors.
type Server struct {
	srv    *grpc.Server
	health *health.Server
	log    *zap.Logger
}

// New constructs a gRPC server. Health starts as NOT_SERVING.
func New(log *zap.Logger, opts Options) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	var so []grpc.ServerOption
	if opts.Creds != nil {
		so = append(so, grpc.Creds(opts.Creds))
	}
	so = append(so,
		grpc.ChainUnaryInterceptor(RecoverUnary(log), LoggingUnary(log)),
		grpc.ChainStreamInterceptor(RecoverStream(log), LoggingStream(log)),
	)
	s := grpc.NewServer(so...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	if opts.Reflection {
		reflection.Register(s)
	}

	srv := &Server{srv: s, health: hs, log: log}
	srv.SetServing(false)
	return srv
}

// SetServing flips the reported health status.
func (s *Server) SetServing(ok bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(ServiceName, st)
}

// Serve blocks serving on lis.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

// WatchStorage pings storage every interval and mirrors the result into the
// health status until ctx is done.
func (s *Server) WatchStorage(ctx context.Context, p Pinger, interval time.Duration) {
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, interval)
		defer cancel()
		err := p.Ping(pctx)
		if err != nil && ctx.Err() == nil {
			s.log.Warn("storage ping failed", zap.Error(err))
		}
		s.SetServing(err == nil)
	}

	check()
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			check()
		}
	}
}

// Stop marks the server NOT_SERVING and stops gracefully, forcing a hard
// stop once ctx expires.
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.srv.Stop()
	}
}
