package container

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/alchemorsel/recipegen/internal/infrastructure/ai"
	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/server"
	"github.com/alchemorsel/recipegen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipegen/internal/infrastructure/pdf"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/alchemorsel/recipegen/pkg/healthcheck"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RegisterHealthChecks registers the store, generation backend and PDF
// engine checks and exposes the store size as a metric
func RegisterHealthChecks(
	health *healthcheck.HealthCheck,
	repo outbound.RecipeRepository,
	aiService outbound.AIService,
	renderer *pdf.Renderer,
	metrics *monitoring.MetricsCollector,
) {
	health.Register("store", healthcheck.CheckerFunc(func(ctx context.Context) healthcheck.Check {
		start := time.Now()
		count, err := repo.Count(ctx)
		check := healthcheck.Check{
			LastChecked: start,
			Duration:    time.Since(start),
			Status:      healthcheck.StatusHealthy,
			Metadata:    map[string]int{"recipes": count},
		}
		if err != nil {
			check.Status = healthcheck.StatusUnhealthy
			check.Message = err.Error()
		}
		return check
	}))

	health.Register("ai", ai.NewHealthChecker(aiService))

	// A PDF engine that cannot start only breaks exports
	health.Register("pdf", healthcheck.CheckerFunc(func(ctx context.Context) healthcheck.Check {
		start := time.Now()
		err := renderer.HealthCheck(ctx)
		check := healthcheck.Check{
			LastChecked: start,
			Duration:    time.Since(start),
			Status:      healthcheck.StatusHealthy,
		}
		if err != nil {
			check.Status = healthcheck.StatusDegraded
			check.Message = err.Error()
		}
		return check
	}))

	metrics.RegisterStoreSize(repo.Count)
}

// RegisterLifecycleHooks starts the server and the rate limiter janitor and
// stops them on shutdown
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	srv *server.Server,
	limiter *middleware.RateLimiter,
) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("Starting recipegen",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
			)

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return err
			}

			if limiter != nil {
				go limiter.Run(ctx)
			}

			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			log.Info("Shutting down recipegen")
			cancel()

			if err := srv.Shutdown(stopCtx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
