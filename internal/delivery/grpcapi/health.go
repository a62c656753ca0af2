package grpcapi

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const BillingServiceName = "billing.v1.BillingService"

// HealthHandler serves grpc.health.v1 and flips between SERVING and
// NOT_SERVING as the database answers pings.
type HealthHandler struct {
	server   *health.Server
	ping     func(ctx context.Context) error
	interval time.Duration
	logger   *zap.Logger
}

func NewHealthHandler(ping func(ctx context.Context) error, interval time.Duration, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		server:   health.NewServer(),
		ping:     ping,
		interval: interval,
		logger:   logger.Named("health"),
	}
}

func (h *HealthHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.server)
}

// Check pings once and publishes the result.
func (h *HealthHandler) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := h.ping(ctx); err != nil {
		h.logger.Warn("database ping failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(BillingServiceName, status)
	return status
}

func (h *HealthHandler) Run(ctx context.Context) {
	h.Check(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.server.Shutdown()
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}
