package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/domain/checking"
	"github.com/target/checkqueue/internal/domain/model"
	"github.com/target/checkqueue/internal/observability/metrics"
	"github.com/target/checkqueue/internal/observability/statsd"
)

// Queue service defaults.
const (
	DefaultWaitSlice     = 5 * time.Second
	DefaultLookupRetries = 3
	DefaultLookupDelay   = 200 * time.Millisecond
	claimRetryBackoff    = 250 * time.Millisecond
)

// QueueServiceOptions groups dependencies for QueueService.
type QueueServiceOptions struct {
	Repo     core.SubmissionRepository // Required: submission/job store
	Catalog  core.CourseCatalog        // Required: decides whether a submission needs checking
	Tracker  *checking.Tracker         // Required: rendezvous tracker shared with the recorder
	Claims   *ClaimCoordinator         // Required: claim coordinator
	Recorder *ResultRecorder           // Required: result recorder
	Notifier core.JobNotifier          // Optional: wakes long-polling agents on new jobs

	WaitSlice     time.Duration    // Optional: granularity of submitter waits (default 5s)
	LookupRetries int              // Optional: attempts to re-read a submission while waiting (default 3)
	LookupDelay   time.Duration    // Optional: delay between lookup attempts (default 200ms)
	Now           func() time.Time // Optional: clock override for tests
	Metrics       statsd.Sink      // Optional: metrics sink
	Logger        *slog.Logger     // Optional: structured logger
}

// QueueService is the façade used by the HTTP layer: submitters create and
// wait, agents claim and report.
type QueueService struct {
	repo     core.SubmissionRepository
	catalog  core.CourseCatalog
	tracker  *checking.Tracker
	claims   *ClaimCoordinator
	recorder *ResultRecorder
	notifier core.JobNotifier

	waitSlice     time.Duration
	lookupRetries int
	lookupDelay   time.Duration
	now           func() time.Time
	metrics       statsd.Sink
	logger        *slog.Logger
}

// NewQueueService constructs a QueueService.
func NewQueueService(opts QueueServiceOptions) (*QueueService, error) {
	switch {
	case opts.Repo == nil:
		return nil, errors.New("SubmissionRepository is required")
	case opts.Catalog == nil:
		return nil, errors.New("CourseCatalog is required")
	case opts.Tracker == nil:
		return nil, errors.New("Tracker is required")
	case opts.Claims == nil:
		return nil, errors.New("ClaimCoordinator is required")
	case opts.Recorder == nil:
		return nil, errors.New("ResultRecorder is required")
	}

	s := &QueueService{
		repo:          opts.Repo,
		catalog:       opts.Catalog,
		tracker:       opts.Tracker,
		claims:        opts.Claims,
		recorder:      opts.Recorder,
		notifier:      opts.Notifier,
		waitSlice:     opts.WaitSlice,
		lookupRetries: opts.LookupRetries,
		lookupDelay:   opts.LookupDelay,
		now:           opts.Now,
		metrics:       opts.Metrics,
	}
	if s.waitSlice <= 0 {
		s.waitSlice = DefaultWaitSlice
	}
	if s.lookupRetries <= 0 {
		s.lookupRetries = DefaultLookupRetries
	}
	if s.lookupDelay <= 0 {
		s.lookupDelay = DefaultLookupDelay
	}
	if s.now == nil {
		s.now = time.Now
	}

	logger := slog.Default()
	if opts.Logger != nil {
		logger = opts.Logger
	}
	s.logger = logger.With("component", "queue_service")
	return s, nil
}

// MustNewQueueService constructs a QueueService and panics on error.
func MustNewQueueService(opts QueueServiceOptions) *QueueService {
	s, err := NewQueueService(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor is expected to panic on invalid wiring
		panic(err)
	}
	return s
}

// SubmitAndOptionallyWait creates a submission and, when waitUntilChecked is
// set and the submission was queued, blocks until its verdict is recorded.
//
// The wait returns model.ErrSubmissionCheckingTimeout once timeout has passed
// (checked after every wait slice) and model.ErrSubmissionLookupFailed when the
// submission disappears.
func (s *QueueService) SubmitAndOptionallyWait(
	ctx context.Context,
	req *model.CreateSubmissionRequest,
	timeout time.Duration,
	waitUntilChecked bool,
) (*model.Submission, error) {
	if req == nil {
		return nil, errors.New("submission request is required")
	}
	start := s.now()

	req.Normalize()
	ex, _ := s.catalog.FindExercise(req.CourseID, req.SlideID)
	req.RequiresChecking = checking.RequiresChecking(req.Language, ex)

	sub, job, err := s.repo.Create(ctx, req)
	if err != nil {
		s.emit(metrics.TransitionSubmit, metrics.ResultError, req.Sandbox, start, err)
		return nil, fmt.Errorf("create submission: %w", err)
	}
	sub.Job = job
	s.emit(metrics.TransitionSubmit, metrics.ResultSuccess, sub.Sandbox, start, nil)

	s.logger.InfoContext(ctx, "submission created",
		"submission_id", sub.ID,
		"course_id", sub.CourseID,
		"sandbox", sub.Sandbox,
		"queued", job != nil)

	if job == nil {
		return sub, nil
	}
	s.tracker.RegisterInterest(sub.ID)
	if !waitUntilChecked {
		return sub, nil
	}

	checked, err := s.waitForVerdict(ctx, sub.ID, start.Add(timeout))
	if err != nil {
		return nil, err
	}
	return checked, nil
}

// WatchHandled waits until the submission's verdict is recorded or timeout
// passes. On timeout it returns the latest state together with
// model.ErrSubmissionCheckingTimeout.
func (s *QueueService) WatchHandled(ctx context.Context, submissionID int64, timeout time.Duration) (*model.Submission, error) {
	start := s.now()
	sub, err := s.repo.FindSubmission(ctx, submissionID, true)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	if sub.Job == nil || sub.Job.IsDone() {
		return sub, nil
	}

	// Running jobs are already claimed; only waiting ones count as pending work.
	if sub.Job.Status == model.JobStatusWaiting {
		s.tracker.RegisterInterest(submissionID)
	}
	checked, err := s.waitForVerdict(ctx, submissionID, start.Add(timeout))
	if errors.Is(err, model.ErrSubmissionCheckingTimeout) {
		return sub, err
	}
	return checked, err
}

func (s *QueueService) waitForVerdict(ctx context.Context, submissionID int64, deadline time.Time) (*model.Submission, error) {
	start := s.now()
	for {
		s.tracker.WaitForHandled(ctx, submissionID, s.waitSlice)
		if err := ctx.Err(); err != nil {
			s.tracker.Forget(submissionID)
			return nil, err
		}

		sub, err := s.lookupWithRetry(ctx, submissionID)
		if err != nil {
			s.tracker.Forget(submissionID)
			s.emit(metrics.TransitionWait, metrics.ResultError, "", start, err)
			return nil, err
		}
		if sub.Job == nil || sub.Job.IsDone() {
			s.emit(metrics.TransitionWait, metrics.ResultSuccess, sub.Sandbox, start, nil)
			return sub, nil
		}

		if !s.now().Before(deadline) {
			s.tracker.Forget(submissionID)
			s.logger.WarnContext(ctx, "gave up waiting for verdict", "submission_id", submissionID)
			s.emit(metrics.TransitionWait, metrics.ResultNoop, sub.Sandbox, start, nil)
			return nil, model.ErrSubmissionCheckingTimeout
		}
	}
}

func (s *QueueService) lookupWithRetry(ctx context.Context, submissionID int64) (*model.Submission, error) {
	for attempt := 1; ; attempt++ {
		sub, err := s.repo.FindSubmission(ctx, submissionID, true)
		if err == nil {
			return sub, nil
		}
		if !errors.Is(err, model.ErrSubmissionNotFound) {
			return nil, fmt.Errorf("reload submission %d: %w", submissionID, err)
		}
		if attempt >= s.lookupRetries {
			return nil, fmt.Errorf("%w: submission %d", model.ErrSubmissionLookupFailed, submissionID)
		}

		timer := time.NewTimer(s.lookupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// ClaimNext claims the newest eligible job for agentName. It returns nil when
// there is nothing to do or the claim failed for any reason.
func (s *QueueService) ClaimNext(ctx context.Context, agentName string, sandboxes []string) *model.ClaimedSubmission {
	claimed, err := s.claims.TryClaim(ctx, agentName, sandboxes)
	if err != nil {
		if !errors.Is(err, model.ErrNoJobAvailable) {
			s.logger.WarnContext(ctx, "claim attempt failed", "agent", agentName, "error", err)
		}
		return nil
	}
	return claimed
}

// ClaimNextWait behaves like ClaimNext but keeps retrying for up to wait,
// waking on job announcements when a notifier is configured and on new pending
// rendezvous otherwise.
func (s *QueueService) ClaimNextWait(
	ctx context.Context,
	agentName string,
	sandboxes []string,
	wait time.Duration,
) *model.ClaimedSubmission {
	if claimed := s.ClaimNext(ctx, agentName, sandboxes); claimed != nil || wait <= 0 {
		return claimed
	}

	deadline := s.now().Add(wait)

	var wake <-chan struct{}
	if s.notifier != nil {
		unsub, ch := s.notifier.Subscribe(sandboxes)
		defer unsub()
		wake = ch
	}

	for {
		remaining := deadline.Sub(s.now())
		if remaining <= 0 || ctx.Err() != nil {
			return nil
		}
		slice := min(remaining, s.waitSlice)

		if wake != nil {
			if !s.waitWake(ctx, wake, slice) {
				wake = nil
			}
		} else if s.tracker.WaitAnyPending(ctx, slice) {
			// Pending rendezvous may belong to other sandboxes; avoid spinning on them.
			s.sleep(ctx, min(claimRetryBackoff, remaining))
		}

		if claimed := s.ClaimNext(ctx, agentName, sandboxes); claimed != nil {
			return claimed
		}
	}
}

// waitWake waits for a token on wake; it returns false once wake is closed.
func (s *QueueService) waitWake(ctx context.Context, wake <-chan struct{}, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case _, ok := <-wake:
		return ok
	case <-timer.C:
	}
	return true
}

func (s *QueueService) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Finalize records one verdict. See ResultRecorder.Finalize.
func (s *QueueService) Finalize(ctx context.Context, req FinalizeRequest, sideEffect core.ResultSideEffect) error {
	return s.recorder.Finalize(ctx, req, sideEffect)
}

// FinalizeBatch records every result an agent reported. Invalid entries and
// failures do not stop the rest of the batch; all errors are joined.
func (s *QueueService) FinalizeBatch(ctx context.Context, results []model.RunningResult) error {
	var errs []error
	for i := range results {
		r := &results[i]
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("result %d: %w", i, err))
			continue
		}
		if err := s.recorder.Finalize(ctx, FinalizeRequestFromResult(r), nil); err != nil {
			errs = append(errs, fmt.Errorf("result %d (submission %d): %w", i, r.SubmissionID, err))
		}
	}
	return errors.Join(errs...)
}

// Get returns the submission with its job and texts.
func (s *QueueService) Get(ctx context.Context, submissionID int64) (*model.Submission, error) {
	sub, err := s.repo.FindSubmission(ctx, submissionID, true)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return sub, nil
}

// ListPending returns submission ids whose submitters are waiting in this process.
func (s *QueueService) ListPending() []int64 {
	return s.tracker.ListPending()
}

// Stats returns job counts per status plus this process's pending rendezvous.
func (s *QueueService) Stats(ctx context.Context) (*model.QueueStats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("queue stats: %w", err)
	}
	stats.PendingRendezvous = len(s.tracker.ListPending())
	return stats, nil
}

// MarkHandledRemote wakes local waiters for a verdict recorded by another process.
func (s *QueueService) MarkHandledRemote(submissionID int64) {
	s.tracker.MarkHandled(submissionID)
}

func (s *QueueService) emit(transition, result, sandbox string, start time.Time, err error) {
	metrics.EmitQueueTransition(s.metrics, metrics.QueueMetric{
		Transition: transition,
		Result:     result,
		Sandbox:    sandbox,
		Duration:   s.now().Sub(start),
		Err:        err,
	})
}
