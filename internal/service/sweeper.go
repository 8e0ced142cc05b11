package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/checkqueue/config"
	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/domain/checking"
	obserrors "github.com/target/checkqueue/internal/observability/errors"
	"github.com/target/checkqueue/internal/observability/metrics"
	"github.com/target/checkqueue/internal/observability/statsd"
)

// SweeperServiceOptions groups dependencies for SweeperService.
type SweeperServiceOptions struct {
	Repo    core.SubmissionRepository // Required: submission/job store
	Tracker *checking.Tracker         // Required: rendezvous tracker to sweep
	Config  config.SweeperConfig      // Required: sweeper configuration
	Now     func() time.Time          // Optional: clock override for tests
	Logger  *slog.Logger              // Optional: structured logger
	Metrics statsd.Sink               // Optional: metrics sink (StatsD-compatible)
}

// SweeperService keeps the process healthy between requests.
//
// Each pass:
// - Evicts rendezvous entries older than the retention window.
// - Reports running jobs older than StaleRunningAfter. They are not reclaimed.
// - Publishes queue depth gauges.
type SweeperService struct {
	repo    core.SubmissionRepository
	tracker *checking.Tracker
	config  config.SweeperConfig
	now     func() time.Time
	logger  *slog.Logger
	metrics statsd.Sink
}

// SweepReport summarises one sweeper pass.
type SweepReport struct {
	PendingDropped int
	HandledDropped int
	StaleRunning   int
	Waiting        int
	Running        int
}

// NewSweeperService constructs a new SweeperService.
func NewSweeperService(opts SweeperServiceOptions) (*SweeperService, error) {
	if opts.Repo == nil {
		return nil, errors.New("SubmissionRepository is required")
	}
	if opts.Tracker == nil {
		return nil, errors.New("Tracker is required")
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.New("sweeper interval must be positive")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "sweeper_service")
		logger.Debug("SweeperService initialized",
			"interval", opts.Config.Interval,
			"stale_running_after", opts.Config.StaleRunningAfter,
		)
	}

	return &SweeperService{
		repo:    opts.Repo,
		tracker: opts.Tracker,
		config:  opts.Config,
		now:     now,
		logger:  logger,
		metrics: opts.Metrics,
	}, nil
}

// Run starts the sweeper loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *SweeperService) Run(ctx context.Context) error {
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting sweeper service", "interval", s.config.Interval)
	}

	s.waitWithJitter(ctx)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if _, err := s.Sweep(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "sweeper service stopping", "reason", ctx.Err())
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logSweepError(err, "sweep")
			}
		}
	}
}

// waitWithJitter adds a random delay up to 10% of the interval so replicas do not sweep in lockstep.
func (s *SweeperService) waitWithJitter(ctx context.Context) {
	maxJitter := int64(s.config.Interval / 10)
	if maxJitter <= 0 {
		return
	}

	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "failed to generate jitter, skipping", "error", err)
		}
		return
	}

	jitterNanos := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	jitter := time.Duration(int64(jitterNanos)) // #nosec G115 - bounded by maxJitter which is int64

	timer := time.NewTimer(jitter)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Sweep runs one pass. Store failures do not stop the in-memory sweep; they are joined into the returned error.
func (s *SweeperService) Sweep(ctx context.Context) (SweepReport, error) {
	start := s.now()
	var (
		report SweepReport
		errs   []error
	)

	report.PendingDropped, report.HandledDropped = s.tracker.Sweep()
	if s.logger != nil && report.PendingDropped+report.HandledDropped > 0 {
		s.logger.DebugContext(ctx, "evicted stale rendezvous entries",
			"pending", report.PendingDropped,
			"handled", report.HandledDropped)
	}

	stale, err := s.repo.CountStaleRunning(ctx, start.Add(-s.config.StaleRunningAfter))
	if err != nil {
		errs = append(errs, fmt.Errorf("count stale running jobs: %w", err))
	} else {
		report.StaleRunning = stale
		if stale > 0 && s.logger != nil {
			s.logger.WarnContext(ctx, "running jobs exceed expected duration",
				"count", stale,
				"older_than", s.config.StaleRunningAfter)
		}
	}

	stats, err := s.repo.Stats(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("queue stats: %w", err))
	} else {
		report.Waiting = stats.Waiting
		report.Running = stats.Running
	}

	joined := errors.Join(errs...)
	s.emitSweepMetrics(report, s.now().Sub(start), joined)

	if joined != nil {
		if isContextCancellation(joined) {
			return report, context.Canceled
		}
		return report, fmt.Errorf("sweep failed: %w", joined)
	}
	return report, nil
}

func (s *SweeperService) emitSweepMetrics(report SweepReport, elapsed time.Duration, err error) {
	if s.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	tags := map[string]string{"result": result}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	s.metrics.Count("sweeper.run", 1, tags)
	if elapsed > 0 {
		s.metrics.Timing("sweeper.duration", elapsed, metrics.CloneTags(tags))
	}
	if dropped := report.PendingDropped + report.HandledDropped; dropped > 0 {
		s.metrics.Count("rendezvous.evicted", int64(dropped), nil)
	}

	metrics.EmitQueueGauges(s.metrics, metrics.QueueGauges{
		Waiting:      report.Waiting,
		Running:      report.Running,
		StaleRunning: report.StaleRunning,
		Pending:      len(s.tracker.ListPending()),
	})
}

func (s *SweeperService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}
	s.logger.Error(label+" failed", "error", err)
}

func isContextCancellation(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
