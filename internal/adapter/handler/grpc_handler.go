package handler

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/rl1809/storefront/internal/core/service"
)

// CatalogHealthService is the health-check service name reporting catalog readiness.
const CatalogHealthService = "storefront.catalog"

// GRPCHandler serves the standard gRPC health protocol. The catalog service is SERVING while
// the last load returned at least one product.
type GRPCHandler struct {
	health  *health.Server
	catalog *service.CatalogService
	logger  *zap.Logger
}

func NewGRPCHandler(catalog *service.CatalogService, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	h := &GRPCHandler{
		health:  health.NewServer(),
		catalog: catalog,
		logger:  logger,
	}
	h.health.SetServingStatus(CatalogHealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
	reflection.Register(s)
}

func (h *GRPCHandler) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if len(h.catalog.LoadProducts(ctx)) > 0 {
		status = healthpb.HealthCheckResponse_SERVING
	}

	h.health.SetServingStatus(CatalogHealthService, status)
	return status
}

// Watch refreshes the catalog status every interval until ctx is done, then marks every
// service NOT_SERVING.
func (h *GRPCHandler) Watch(ctx context.Context, interval time.Duration) {
	defer h.health.Shutdown()

	last := h.Refresh(ctx)
	h.logger.Info("catalog readiness", zap.Stringer("status", last))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if status := h.Refresh(ctx); status != last {
				h.logger.Info("catalog readiness changed", zap.Stringer("status", status))
				last = status
			}
		}
	}
}
