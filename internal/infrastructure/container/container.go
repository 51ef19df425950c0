// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"os"
	"time"

	appai "github.com/alchemorsel/recipegen/internal/application/ai"
	"github.com/alchemorsel/recipegen/internal/application/recipe"
	domain "github.com/alchemorsel/recipegen/internal/domain/recipe"
	"github.com/alchemorsel/recipegen/internal/infrastructure/config"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipegen/internal/infrastructure/http/server"
	"github.com/alchemorsel/recipegen/internal/infrastructure/monitoring"
	"github.com/alchemorsel/recipegen/internal/infrastructure/pdf"
	"github.com/alchemorsel/recipegen/internal/infrastructure/persistence/memory"
	redisstore "github.com/alchemorsel/recipegen/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/recipegen/internal/infrastructure/security"
	"github.com/alchemorsel/recipegen/internal/ports/inbound"
	"github.com/alchemorsel/recipegen/internal/ports/outbound"
	"github.com/alchemorsel/recipegen/pkg/healthcheck"
	"github.com/alchemorsel/recipegen/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// ConfigPath is the config file the application was started with. Empty
// means the default search paths.
type ConfigPath string

// Module assembles the whole application around an already loaded config
func Module(cfg *config.Config, path ConfigPath) fx.Option {
	options := []fx.Option{
		fx.Supply(cfg, path),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		LoggerModule,
		MonitoringModule,
		StoreModule,
		GenerationModule,
		PDFModule,
		AuthModule,
		ServiceModule,
		HTTPModule,
		LifecycleModule,
	}
	if cfg.Server.ShutdownTimeout > 0 {
		options = append(options, fx.StopTimeout(cfg.Server.ShutdownTimeout))
	}
	return fx.Options(options...)
}

// LoggerModule provides logging and keeps the level in sync with the
// config file
var LoggerModule = fx.Options(
	fx.Provide(func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	}),
	fx.Invoke(WatchLogLevel),
)

// MonitoringModule provides metrics, tracing and the health registry
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	NewTracingProvider,
	func(cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) *healthcheck.HealthCheck {
		health := healthcheck.New(cfg.App.Version, log)
		health.SetMetrics(healthcheck.NewHealthMetrics("recipegen", metrics.Registry()))
		return health
	},
)

// StoreModule provides the taxonomy and the recipe store
var StoreModule = fx.Provide(
	func(cfg *config.Config) (*domain.Taxonomy, error) {
		return LoadTaxonomy(cfg.Recipes)
	},
	fx.Annotate(
		memory.NewRecipeRepository,
		fx.As(new(outbound.RecipeRepository)),
	),
)

// GenerationModule provides the configured generation backend, which is
// nil when its credentials are missing
var GenerationModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) outbound.AIService {
		return appai.NewAIService(cfg.AI, log)
	},
)

// PDFModule provides the HTML to PDF engine and the metadata stamper
var PDFModule = fx.Provide(
	NewPDFRenderer,
	func(r *pdf.Renderer) outbound.PDFRenderer { return r },
	func(cfg *config.Config) outbound.PDFStamper {
		if !cfg.PDF.StampMetadata {
			return nil
		}
		return pdf.NewStamper()
	},
)

// AuthModule provides the token denylist and the session service
var AuthModule = fx.Provide(
	NewTokenDenylist,
	func(cfg *config.Config, denylist outbound.TokenDenylist, log *zap.Logger) (*security.AuthService, error) {
		return security.NewAuthService(cfg.Auth, denylist, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	NewRecipeService,
)

// HTTPModule provides the rate limiter and the HTTP server
var HTTPModule = fx.Provide(
	NewRateLimiter,
	NewServer,
)

// LifecycleModule registers health checks and starts the server
var LifecycleModule = fx.Invoke(
	RegisterHealthChecks,
	RegisterLifecycleHooks,
)

// LoadTaxonomy reads the taxonomy file, or returns the built-in taxonomy
// when none is configured
func LoadTaxonomy(cfg config.RecipesConfig) (*domain.Taxonomy, error) {
	if cfg.TaxonomyFile == "" {
		return domain.DefaultTaxonomy(), nil
	}

	data, err := os.ReadFile(cfg.TaxonomyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	taxonomy, err := domain.ParseTaxonomy(data)
	if err != nil {
		return nil, fmt.Errorf("invalid taxonomy file %s: %w", cfg.TaxonomyFile, err)
	}
	return taxonomy, nil
}

// WatchLogLevel applies app.log_level edits in the config file without a
// restart
func WatchLogLevel(path ConfigPath, level zap.AtomicLevel, log *zap.Logger) error {
	watching, err := config.Watch(string(path), func(cfg *config.Config, err error) {
		if err != nil {
			log.Warn("Ignoring invalid configuration change", zap.Error(err))
			return
		}
		newLevel := logger.ParseLevel(cfg.App.LogLevel)
		if newLevel != level.Level() {
			level.SetLevel(newLevel)
			log.Info("Log level changed", zap.String("level", newLevel.String()))
		}
	})
	if err != nil {
		return err
	}
	if !watching {
		log.Debug("No config file to watch")
	}
	return nil
}

// NewTracingProvider creates the tracing provider and flushes it on stop
func NewTracingProvider(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
	tracing, err := monitoring.NewTracingProvider(monitoring.TracingConfig{
		ServiceName:    cfg.App.Name,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		SamplingRate:   cfg.Monitoring.SamplingRate,
		Enabled:        cfg.Monitoring.EnableTracing,
	}, log)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: tracing.Shutdown,
	})
	return tracing, nil
}

// NewPDFRenderer creates the browser-backed renderer. The browser starts
// on the first export and is closed on stop.
func NewPDFRenderer(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) *pdf.Renderer {
	renderer := pdf.NewRenderer(pdf.Config{
		RemoteURL:     cfg.PDF.RemoteURL,
		BrowserBin:    cfg.PDF.BrowserBin,
		NoSandbox:     cfg.PDF.NoSandbox,
		RenderTimeout: cfg.PDF.RenderTimeout,
	}, log)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return renderer.Close()
		},
	})
	return renderer
}

// NewTokenDenylist stores revoked sessions in Redis when it is enabled and
// in memory otherwise
func NewTokenDenylist(lc fx.Lifecycle, cfg *config.Config, health *healthcheck.HealthCheck, log *zap.Logger) (outbound.TokenDenylist, error) {
	if !cfg.Redis.Enabled {
		denylist := memory.NewTokenDenylist(time.Minute)
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return denylist.Close()
			},
		})
		return denylist, nil
	}

	client, err := redisstore.NewClient(context.Background(), cfg.Redis, log)
	if err != nil {
		return nil, err
	}
	health.Register("redis", healthcheck.NewRedisChecker(client))
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})
	return redisstore.NewTokenDenylist(client, cfg.Redis.KeyPrefix, log), nil
}

// NewRecipeService wires the recipe use cases
func NewRecipeService(
	repo outbound.RecipeRepository,
	taxonomy *domain.Taxonomy,
	aiService outbound.AIService,
	renderer outbound.PDFRenderer,
	stamper outbound.PDFStamper,
	metrics *monitoring.MetricsCollector,
	tracing *monitoring.TracingProvider,
	log *zap.Logger,
) inbound.RecipeService {
	return recipe.NewRecipeService(repo, taxonomy, aiService, renderer, stamper, metrics, tracing.Tracer(), log)
}

// NewRateLimiter limits generation requests per client. It returns nil
// when rate limiting is off.
func NewRateLimiter(cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) *middleware.RateLimiter {
	if !cfg.RateLimit.Enable {
		return nil
	}
	return middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
		BurstSize:       cfg.RateLimit.BurstSize,
		CleanupInterval: cfg.RateLimit.CleanupInterval,
	}, metrics.RateLimited, log)
}

// ServerParams are the server's dependencies
type ServerParams struct {
	fx.In

	Config        *config.Config
	Logger        *zap.Logger
	RecipeService inbound.RecipeService
	Auth          *security.AuthService
	Health        *healthcheck.HealthCheck
	Metrics       *monitoring.MetricsCollector
	Tracing       *monitoring.TracingProvider
	RateLimiter   *middleware.RateLimiter
}

// NewServer creates the HTTP server
func NewServer(p ServerParams) *server.Server {
	deps := server.Dependencies{
		RecipeService: p.RecipeService,
		Auth:          p.Auth,
		Health:        p.Health,
		Tracing:       p.Tracing,
		RateLimiter:   p.RateLimiter,
	}
	if p.Config.Monitoring.EnableMetrics {
		deps.Metrics = p.Metrics
	}
	return server.NewServer(p.Config, p.Logger, deps)
}
