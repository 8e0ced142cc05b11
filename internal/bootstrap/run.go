package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/checkqueue/config"
	"github.com/target/checkqueue/internal/adapters/sweeper"
)

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	Services    *ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// backgroundService describes a startable component.
type backgroundService struct {
	name  string
	start func(context.Context) error
}

// RunServicesWithShutdown runs every enabled component until SIGINT/SIGTERM or
// the first component failure, then stops the rest.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	services, err := buildBackgroundServices(cfg, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		g.Go(func() error {
			logger.InfoContext(gctx, "background service started", "service", svc.name)
			if err := svc.start(gctx); err != nil {
				return fmt.Errorf("%s failed: %w", svc.name, err)
			}
			logger.InfoContext(gctx, "background service stopped", "service", svc.name)
			return nil
		})
	}

	runErr := g.Wait()
	if closeErr := cfg.Services.Close(); closeErr != nil {
		logger.Warn("release services", "error", closeErr)
	}
	if runErr != nil {
		logger.Error("service error", "error", runErr)
		return runErr
	}
	logger.Info("all services stopped")
	return nil
}

func buildBackgroundServices(cfg *ServiceOrchestrationConfig, logger *slog.Logger) ([]backgroundService, error) {
	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return nil, fmt.Errorf("determine enabled services: %w", err)
	}
	app := cfg.Config
	svcs := cfg.Services
	var out []backgroundService

	if enabled[config.ServiceModeHTTP] {
		server, err := NewHTTPServer(&HTTPServerConfig{
			Config:      app,
			Services:    svcs,
			DB:          cfg.DB,
			RedisClient: cfg.RedisClient,
			Logger:      logger,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, backgroundService{
			name: "http",
			start: func(ctx context.Context) error {
				return ServeHTTPServer(ctx, server, app.HTTP.ShutdownTimeout, logger)
			},
		})
	}

	if enabled[config.ServiceModeSweeper] {
		runner, err := sweeper.NewRunner(sweeper.RunnerOptions{
			Repo:    svcs.Repo,
			Tracker: svcs.Tracker,
			Config:  app.Sweeper,
			Logger:  logger,
			Metrics: svcs.Metrics,
		})
		if err != nil {
			return nil, fmt.Errorf("create sweeper: %w", err)
		}
		out = append(out, backgroundService{name: "sweeper", start: runner.Run})
	}

	if app.Courses.Watch && svcs.Catalog != nil {
		out = append(out, backgroundService{name: "course-watcher", start: svcs.Catalog.Run})
	}

	if svcs.HandledBus != nil {
		bus, queue := svcs.HandledBus, svcs.Queue
		out = append(out, backgroundService{
			name: "handled-bus",
			start: func(ctx context.Context) error {
				return bus.Run(ctx, queue.MarkHandledRemote)
			},
		})
	}

	return out, nil
}
