package health

import (
	"context"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Service is the name under which engine readiness is published.
const Service = "ipvgo.Engine"

type Readiness interface {
	Ready() bool
	Closed() bool
}

// Watch mirrors engine readiness into hs until ctx is done.
func Watch(ctx context.Context, hs *health.Server, engine Readiness, interval time.Duration, log *zap.SugaredLogger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		status := healthpb.HealthCheckResponse_NOT_SERVING
		if engine.Ready() && !engine.Closed() {
			status = healthpb.HealthCheckResponse_SERVING
		}
		if status != last {
			hs.SetServingStatus("", status)
			hs.SetServingStatus(Service, status)
			log.Infow("engine health changed", "status", status.String())
			last = status
		}

		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
		}
	}
}
