package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/domain/checking"
	"github.com/target/checkqueue/internal/domain/model"
	"github.com/target/checkqueue/internal/observability/metrics"
	"github.com/target/checkqueue/internal/observability/statsd"
)

// Claim defaults.
const (
	DefaultRecencyWindow = 15 * time.Minute
	DefaultGateTimeout   = 2 * time.Second
)

// ClaimCoordinatorOptions groups dependencies for ClaimCoordinator.
type ClaimCoordinatorOptions struct {
	Repo          core.SubmissionRepository // Required: submission/job store
	Tracker       *checking.Tracker         // Optional: rendezvous tracker; claimed ids leave its pending set
	RecencyWindow time.Duration             // Optional: only jobs newer than this are claimable (default 15m)
	GateTimeout   time.Duration             // Optional: how long to wait for the claim gate (default 2s)
	Now           func() time.Time          // Optional: clock override for tests
	Metrics       statsd.Sink               // Optional: metrics sink
	Logger        *slog.Logger              // Optional: structured logger
}

// ClaimCoordinator hands each waiting job to at most one agent.
//
// Candidate lookup runs without any lock. The state change itself runs behind a
// single process-wide gate inside a REPEATABLE READ transaction, and the UPDATE
// is guarded on status = 'waiting' so a second process cannot double-claim either.
type ClaimCoordinator struct {
	repo        core.SubmissionRepository
	tracker     *checking.Tracker
	gate        *semaphore.Weighted
	recency     time.Duration
	gateTimeout time.Duration
	now         func() time.Time
	metrics     statsd.Sink
	logger      *slog.Logger
}

// NewClaimCoordinator constructs a ClaimCoordinator.
func NewClaimCoordinator(opts ClaimCoordinatorOptions) (*ClaimCoordinator, error) {
	if opts.Repo == nil {
		return nil, errors.New("SubmissionRepository is required")
	}

	recency := opts.RecencyWindow
	if recency <= 0 {
		recency = DefaultRecencyWindow
	}
	gateTimeout := opts.GateTimeout
	if gateTimeout <= 0 {
		gateTimeout = DefaultGateTimeout
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	logger := slog.Default()
	if opts.Logger != nil {
		logger = opts.Logger
	}

	return &ClaimCoordinator{
		repo:        opts.Repo,
		tracker:     opts.Tracker,
		gate:        semaphore.NewWeighted(1),
		recency:     recency,
		gateTimeout: gateTimeout,
		now:         now,
		metrics:     opts.Metrics,
		logger:      logger.With("component", "claim_coordinator"),
	}, nil
}

// MustNewClaimCoordinator constructs a ClaimCoordinator and panics on error.
func MustNewClaimCoordinator(opts ClaimCoordinatorOptions) *ClaimCoordinator {
	c, err := NewClaimCoordinator(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor is expected to panic on invalid wiring
		panic(err)
	}
	return c
}

// TryClaim claims the newest eligible job in one of sandboxes for agentName.
// It returns model.ErrNoJobAvailable when there is nothing to claim or the
// claim lost a race; other errors come from the candidate lookup.
func (c *ClaimCoordinator) TryClaim(
	ctx context.Context,
	agentName string,
	sandboxes []string,
) (*model.ClaimedSubmission, error) {
	start := c.now()

	ids, err := c.repo.FindEligibleForClaim(ctx, sandboxes, start.Add(-c.recency))
	if err != nil {
		c.emit(metrics.ResultError, "", start, err)
		return nil, fmt.Errorf("find eligible jobs: %w", err)
	}
	if len(ids) == 0 {
		return nil, model.ErrNoJobAvailable
	}
	candidate := slices.Max(ids)

	// Submission identity fields and texts are immutable, so they can be read
	// before taking the gate.
	sub, err := c.repo.FindSubmission(ctx, candidate, true)
	if err != nil {
		c.logger.ErrorContext(ctx, "load claim candidate", "submission_id", candidate, "error", err)
		c.emit(metrics.ResultError, "", start, err)
		return nil, fmt.Errorf("load submission %d: %w", candidate, err)
	}

	job, err := c.claimUnderGate(ctx, candidate, agentName)
	if err != nil {
		if !errors.Is(err, model.ErrNoJobAvailable) {
			c.logger.ErrorContext(ctx, "claim failed",
				"submission_id", candidate,
				"agent", agentName,
				"error", err)
			c.emit(metrics.ResultError, sub.Sandbox, start, err)
		} else {
			c.emit(metrics.ResultNoop, sub.Sandbox, start, nil)
		}
		return nil, model.ErrNoJobAvailable
	}

	if c.tracker != nil {
		c.tracker.Claimed(candidate)
	}

	sub.Job = job
	token := model.ClaimToken{
		Token:        uuid.New(),
		JobID:        job.ID,
		SubmissionID: candidate,
		AgentName:    agentName,
		ClaimedAt:    derefTime(job.ClaimedAt),
	}

	c.logger.InfoContext(ctx, "job claimed",
		"submission_id", candidate,
		"job_id", job.ID,
		"agent", agentName,
		"sandbox", sub.Sandbox,
		"claim_token", token.Token)
	c.emit(metrics.ResultSuccess, sub.Sandbox, start, nil)

	return &model.ClaimedSubmission{Claim: token, Submission: sub}, nil
}

func (c *ClaimCoordinator) claimUnderGate(
	ctx context.Context,
	submissionID int64,
	agentName string,
) (*model.CheckingJob, error) {
	gateCtx, cancel := context.WithTimeout(ctx, c.gateTimeout)
	defer cancel()
	if err := c.gate.Acquire(gateCtx, 1); err != nil {
		return nil, fmt.Errorf("acquire claim gate: %w", err)
	}
	defer c.gate.Release(1)

	var claimed *model.CheckingJob
	txOpts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead}
	err := c.repo.WithTx(ctx, txOpts, func(tx *sql.Tx) error {
		job, err := c.repo.FindBySubmissionInTx(ctx, tx, submissionID)
		if err != nil {
			return fmt.Errorf("reload job: %w", err)
		}
		if job.Status != model.JobStatusWaiting {
			return model.ErrNoJobAvailable
		}

		at := c.now()
		ok, err := c.repo.MarkRunning(ctx, tx, core.MarkRunningParams{
			JobID:     job.ID,
			AgentName: agentName,
			At:        at,
		})
		if err != nil {
			return fmt.Errorf("mark running: %w", err)
		}
		if !ok {
			return model.ErrNoJobAvailable
		}

		job.Status = model.JobStatusRunning
		job.AgentName = &agentName
		job.ClaimedAt = &at
		claimed = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (c *ClaimCoordinator) emit(result, sandbox string, start time.Time, err error) {
	metrics.EmitQueueTransition(c.metrics, metrics.QueueMetric{
		Transition: metrics.TransitionClaim,
		Result:     result,
		Sandbox:    sandbox,
		Duration:   c.now().Sub(start),
		Err:        err,
	})
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
