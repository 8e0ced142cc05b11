package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/checkqueue/config"
	"github.com/target/checkqueue/internal/adapters/courses"
	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/data"
	"github.com/target/checkqueue/internal/domain/checking"
	"github.com/target/checkqueue/internal/observability/statsd"
	"github.com/target/checkqueue/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Queue      *service.QueueService
	Repo       *data.SubmissionRepo
	Tracker    *checking.Tracker
	Notifier   *checking.Notifier
	Catalog    *courses.Catalog
	HandledBus *data.HandledBus // nil without Redis
	Metrics    statsd.Sink      // nil when metrics are disabled

	metricsCloser func() error
}

// Close releases resources owned by the container.
func (c *ServiceContainer) Close() error {
	if c.Notifier != nil {
		c.Notifier.StopAll()
	}
	if c.metricsCloser != nil {
		return c.metricsCloser()
	}
	return nil
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient // Optional: enables the text cache and the handled bus
	Logger      *slog.Logger
}

// NewServices wires stores, the rendezvous tracker and the queue services.
func NewServices(deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service config is required")
	}
	if deps.DB == nil {
		return nil, errors.New("database connection is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	metrics, closer := buildMetrics(logger, cfg.Observability.Metrics)

	catalog, err := courses.New(courses.Options{
		Dir:            cfg.Courses.Dir,
		ReloadDebounce: cfg.Courses.ReloadDebounce,
		Logger:         logger,
	})
	if err != nil {
		return nil, fmt.Errorf("load course catalog: %w", err)
	}

	texts := buildTextStore(deps.DB, deps.RedisClient, cfg.TextCache, logger)
	repo := data.NewSubmissionRepo(deps.DB, data.RepoConfig{Texts: texts, Logger: logger})

	tracker := checking.NewTracker(checking.TrackerOptions{
		Retention:    cfg.Queue.Retention,
		PollInterval: cfg.Queue.PollInterval,
		Logger:       logger,
	})
	notifier, err := checking.NewNotifier(checking.NotifierOptions{Waiter: repo})
	if err != nil {
		return nil, fmt.Errorf("create job notifier: %w", err)
	}

	var (
		bus       *data.HandledBus
		publisher core.HandledPublisher
	)
	if deps.RedisClient != nil {
		bus, err = data.NewHandledBus(data.HandledBusOptions{
			Client:  deps.RedisClient,
			Channel: cfg.Redis.HandledChannel,
			Logger:  logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create handled bus: %w", err)
		}
		publisher = bus
	}

	claims, err := service.NewClaimCoordinator(service.ClaimCoordinatorOptions{
		Repo:          repo,
		Tracker:       tracker,
		RecencyWindow: cfg.Queue.RecencyWindow,
		GateTimeout:   cfg.Queue.GateTimeout,
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create claim coordinator: %w", err)
	}

	recorder, err := service.NewResultRecorder(service.ResultRecorderOptions{
		Repo:      repo,
		Texts:     texts,
		Catalog:   catalog,
		Skips:     data.NewSkipRepo(deps.DB),
		Tracker:   tracker,
		Publisher: publisher,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create result recorder: %w", err)
	}

	queue, err := service.NewQueueService(service.QueueServiceOptions{
		Repo:      repo,
		Catalog:   catalog,
		Tracker:   tracker,
		Claims:    claims,
		Recorder:  recorder,
		Notifier:  notifier,
		WaitSlice: cfg.Queue.WaitSlice,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create queue service: %w", err)
	}

	return &ServiceContainer{
		Queue:         queue,
		Repo:          repo,
		Tracker:       tracker,
		Notifier:      notifier,
		Catalog:       catalog,
		HandledBus:    bus,
		Metrics:       metrics,
		metricsCloser: closer,
	}, nil
}

// buildTextStore puts the Redis read-through cache in front of the texts table when enabled.
//
//nolint:ireturn // callers only need the TextStore port
func buildTextStore(
	db *sql.DB,
	client redis.UniversalClient,
	cfg config.TextCacheConfig,
	logger *slog.Logger,
) core.TextStore {
	store := data.NewTextRepo(db)
	if client == nil || !cfg.Enabled {
		return store
	}
	logger.Info("text cache enabled", "ttl", cfg.TTL)
	return data.NewRedisTextCache(data.RedisTextCacheOptions{
		Store:  store,
		Cache:  data.NewRedisCacheRepo(client),
		TTL:    cfg.TTL,
		Logger: logger,
	})
}

// buildMetrics dials StatsD when enabled. Failures only disable metrics.
//
//nolint:ireturn // Sink is the metrics port
func buildMetrics(logger *slog.Logger, cfg config.ObservabilityMetricsConfig) (statsd.Sink, func() error) {
	if !cfg.IsEnabled() {
		return nil, nil
	}
	client, err := statsd.NewClient(statsd.Config{
		Enabled:       true,
		Address:       cfg.StatsdAddress,
		Prefix:        cfg.Prefix,
		GlobalTags:    cfg.Tags,
		FlushInterval: cfg.FlushInterval,
		MaxPacketSize: cfg.MaxPacketSize,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil, nil
	}
	return client, client.Close
}
