// Package sweeper provides adapters for running the queue sweeper.
package sweeper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/checkqueue/config"
	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/data"
	"github.com/target/checkqueue/internal/domain/checking"
	"github.com/target/checkqueue/internal/observability/statsd"
	"github.com/target/checkqueue/internal/service"
)

// Runner provides a simple adapter to run the sweeper loop.
type Runner struct {
	sweeper *service.SweeperService
	logger  *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB      *sql.DB
	Tracker *checking.Tracker
	Config  config.SweeperConfig
	Logger  *slog.Logger

	// Optional dependency injection for testing/decoupling
	Repo    core.SubmissionRepository
	Metrics statsd.Sink
}

// NewRunner creates a new sweeper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	repo := opts.Repo
	if repo == nil {
		repo = data.NewSubmissionRepo(opts.DB, data.RepoConfig{Logger: opts.Logger})
	}

	svc, err := service.NewSweeperService(service.SweeperServiceOptions{
		Repo:    repo,
		Tracker: opts.Tracker,
		Config:  opts.Config,
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("wire sweeper service: %w", err)
	}

	return &Runner{sweeper: svc, logger: opts.Logger}, nil
}

func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && opts.Repo == nil {
		return errors.New("database connection is required")
	}
	if opts.Tracker == nil {
		return errors.New("rendezvous tracker is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// Run starts the sweeper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting sweeper runner")
	return r.sweeper.Run(ctx)
}
