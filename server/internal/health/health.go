package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name clients can query for the store.
const ServiceName = "resultcard.Store"

// pingTimeout bounds a single store ping.
const pingTimeout = 5 * time.Second

// Pinger is implemented by every store backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker keeps a gRPC health server in step with the store.
type Checker struct {
	pinger   Pinger
	interval time.Duration
	srv      *grpchealth.Server

	mu      sync.Mutex
	serving bool
	known   bool // false until the first ping completes
}

// New creates a Checker. Until the first ping completes every service
// reports NOT_SERVING.
func New(p Pinger, interval time.Duration) *Checker {
	c := &Checker{pinger: p, interval: interval, srv: grpchealth.NewServer()}
	c.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	return c
}

// Register adds the health service to s.
func (c *Checker) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, c.srv)
}

// Server returns the underlying health server.
func (c *Checker) Server() healthpb.HealthServer { return c.srv }

// Check pings the store once, updates the serving status and reports
// whether the store answered.
func (c *Checker) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	err := c.pinger.Ping(ctx)
	ok := err == nil

	c.mu.Lock()
	changed := !c.known || c.serving != ok
	c.known, c.serving = true, ok
	c.mu.Unlock()

	if !changed {
		return ok
	}
	if ok {
		slog.Info("health: store reachable")
		c.setStatus(healthpb.HealthCheckResponse_SERVING)
	} else {
		slog.Warn("health: store unreachable", "err", err)
		c.setStatus(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return ok
}

// Run checks immediately, then every interval until ctx is cancelled. On
// return all services are marked NOT_SERVING and watchers are released.
func (c *Checker) Run(ctx context.Context) {
	c.Check(ctx)

	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			c.srv.Shutdown()
			return
		case <-t.C:
			c.Check(ctx)
		}
	}
}

func (c *Checker) setStatus(s healthpb.HealthCheckResponse_ServingStatus) {
	c.srv.SetServingStatus("", s)
	c.srv.SetServingStatus(ServiceName, s)
}
