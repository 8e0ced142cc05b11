package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/data"
	"github.com/target/checkqueue/internal/domain/checking"
	"github.com/target/checkqueue/internal/domain/model"
	"github.com/target/checkqueue/internal/observability/metrics"
	"github.com/target/checkqueue/internal/observability/statsd"
)

// FinalizeRequest is one verdict reported by an agent.
type FinalizeRequest struct {
	SubmissionID     int64
	Verdict          model.Verdict
	Output           string
	CompilationError string
	Points           *float64
}

// FinalizeRequestFromResult converts an agent's RunningResult into a FinalizeRequest.
func FinalizeRequestFromResult(r *model.RunningResult) FinalizeRequest {
	return FinalizeRequest{
		SubmissionID:     r.SubmissionID,
		Verdict:          r.Verdict,
		Output:           r.CombinedOutput(),
		CompilationError: r.CompilationError,
		Points:           r.Points,
	}
}

// ResultRecorderOptions groups dependencies for ResultRecorder.
type ResultRecorderOptions struct {
	Repo      core.SubmissionRepository // Required: submission/job store
	Texts     core.TextStore            // Required: content store for output and compilation errors
	Catalog   core.CourseCatalog        // Required: exercise metadata
	Skips     core.SkipChecker          // Optional: administratively skipped slides
	Tracker   *checking.Tracker         // Optional: rendezvous tracker to wake local waiters
	Publisher core.HandledPublisher     // Optional: cross-process handled signal
	Now       func() time.Time          // Optional: clock override for tests
	Metrics   statsd.Sink               // Optional: metrics sink
	Logger    *slog.Logger              // Optional: structured logger
}

// ResultRecorder writes verdicts, derived correctness and score exactly once per job.
type ResultRecorder struct {
	repo      core.SubmissionRepository
	texts     core.TextStore
	catalog   core.CourseCatalog
	skips     core.SkipChecker
	tracker   *checking.Tracker
	publisher core.HandledPublisher
	now       func() time.Time
	metrics   statsd.Sink
	logger    *slog.Logger
}

// NewResultRecorder constructs a ResultRecorder.
func NewResultRecorder(opts ResultRecorderOptions) (*ResultRecorder, error) {
	if opts.Repo == nil {
		return nil, errors.New("SubmissionRepository is required")
	}
	if opts.Texts == nil {
		return nil, errors.New("TextStore is required")
	}
	if opts.Catalog == nil {
		return nil, errors.New("CourseCatalog is required")
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := slog.Default()
	if opts.Logger != nil {
		logger = opts.Logger
	}

	return &ResultRecorder{
		repo:      opts.Repo,
		texts:     opts.Texts,
		catalog:   opts.Catalog,
		skips:     opts.Skips,
		tracker:   opts.Tracker,
		publisher: opts.Publisher,
		now:       now,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "result_recorder"),
	}, nil
}

// MustNewResultRecorder constructs a ResultRecorder and panics on error.
func MustNewResultRecorder(opts ResultRecorderOptions) *ResultRecorder {
	r, err := NewResultRecorder(opts)
	if err != nil {
		//nolint:forbidigo // Must constructor is expected to panic on invalid wiring
		panic(err)
	}
	return r
}

type evaluation struct {
	output        string
	compErr       string
	points        *float64
	isRightAnswer bool
	score         int
}

// Finalize records the verdict for req.SubmissionID.
//
// A missing submission is logged and ignored. A job that is already done keeps
// its stored result and sideEffect is not run again. sideEffect, when set, runs
// in the same transaction as the result write.
func (r *ResultRecorder) Finalize(ctx context.Context, req FinalizeRequest, sideEffect core.ResultSideEffect) error {
	start := r.now()
	log := r.logger.With("submission_id", req.SubmissionID)

	sub, err := r.repo.FindSubmission(ctx, req.SubmissionID, false)
	if errors.Is(err, model.ErrSubmissionNotFound) {
		log.WarnContext(ctx, "finalize for unknown submission ignored")
		return nil
	}
	if err != nil {
		r.emit(metrics.ResultError, "", start, err)
		return fmt.Errorf("load submission: %w", err)
	}

	ev, err := r.evaluate(ctx, sub, req)
	if err != nil {
		r.emit(metrics.ResultError, sub.Sandbox, start, err)
		return err
	}

	applied, done, err := r.write(ctx, sub, req, ev, sideEffect)
	if err != nil {
		r.emit(metrics.ResultError, sub.Sandbox, start, err)
		return fmt.Errorf("finalize submission %d: %w", req.SubmissionID, err)
	}

	if done && r.tracker != nil {
		r.tracker.MarkHandled(req.SubmissionID)
	}
	if !applied {
		r.emit(metrics.ResultNoop, sub.Sandbox, start, nil)
		return nil
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, req.SubmissionID); err != nil {
			log.WarnContext(ctx, "publish handled signal failed", "error", err)
		}
	}

	log.InfoContext(ctx, "verdict recorded",
		"verdict", req.Verdict,
		"is_right_answer", ev.isRightAnswer,
		"score", ev.score)
	r.emit(metrics.ResultSuccess, sub.Sandbox, start, nil)
	return nil
}

func (r *ResultRecorder) evaluate(ctx context.Context, sub *model.Submission, req FinalizeRequest) (evaluation, error) {
	ev := evaluation{
		output:  checking.NormalizeEOLN(model.SanitizeText(req.Output)),
		compErr: checking.NormalizeEOLN(model.SanitizeText(req.CompilationError)),
		points:  req.Points,
	}

	var ex *model.Exercise
	if !sub.IsWebRunner() {
		if found, ok := r.catalog.FindExercise(sub.CourseID, sub.SlideID); ok {
			ex = found
		}
	}

	if ev.points == nil && ex != nil && ex.PointsQuery != "" && req.Verdict == model.VerdictOk {
		p, ok, err := checking.PointsFromOutput(ex.PointsQuery, ev.output)
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "points query failed",
				"submission_id", sub.ID,
				"query", ex.PointsQuery,
				"error", err)
		case ok:
			ev.points = &p
		}
	}

	right, err := checking.IsRightAnswer(checking.Evaluation{
		Verdict:  req.Verdict,
		Output:   ev.output,
		Points:   ev.points,
		Exercise: ex,
	})
	if err != nil {
		return ev, fmt.Errorf("evaluate submission %d: %w", sub.ID, err)
	}
	ev.isRightAnswer = right

	skipped := false
	if ex != nil && r.skips != nil {
		skipped, err = r.skips.IsSkipped(ctx, sub.CourseID, sub.SlideID, sub.UserID)
		if err != nil {
			return ev, fmt.Errorf("check skipped slide: %w", err)
		}
	}
	ev.score = checking.Score(ex, right, skipped)
	return ev, nil
}

// write stores the result. applied reports whether this call moved the job to
// done; done reports whether the job is done afterwards.
func (r *ResultRecorder) write(
	ctx context.Context,
	sub *model.Submission,
	req FinalizeRequest,
	ev evaluation,
	sideEffect core.ResultSideEffect,
) (applied, done bool, err error) {
	log := r.logger.With("submission_id", sub.ID)

	err = r.repo.WithTx(ctx, nil, func(tx *sql.Tx) error {
		job, err := r.repo.FindBySubmissionInTx(ctx, tx, sub.ID)
		if errors.Is(err, data.ErrJobNotFound) {
			log.WarnContext(ctx, "finalize for submission without checking job ignored")
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock job: %w", err)
		}

		switch job.Status {
		case model.JobStatusDone:
			log.DebugContext(ctx, "job already done; result kept")
			done = true
			return nil
		case model.JobStatusWaiting:
			log.WarnContext(ctx, "finalize for unclaimed job ignored", "job_id", job.ID)
			return nil
		}

		outputHash, err := r.texts.Put(ctx, tx, ev.output)
		if err != nil {
			return fmt.Errorf("store output: %w", err)
		}
		compHash, err := r.texts.Put(ctx, tx, ev.compErr)
		if err != nil {
			return fmt.Errorf("store compilation error: %w", err)
		}

		result := model.CheckingResult{
			Verdict:              req.Verdict,
			OutputHash:           outputHash,
			CompilationErrorHash: compHash,
			IsCompilationError:   req.Verdict == model.VerdictCompilationError,
			IsRightAnswer:        ev.isRightAnswer,
			Score:                ev.score,
			Points:               ev.points,
		}
		ok, err := r.repo.RecordResult(ctx, tx, core.RecordResultParams{
			JobID:        job.ID,
			SubmissionID: sub.ID,
			Result:       result,
			Elapsed:      r.now().Sub(job.CreatedAt),
		})
		if err != nil {
			return fmt.Errorf("record result: %w", err)
		}
		done = true
		if !ok {
			return nil
		}
		applied = true

		if sideEffect == nil {
			return nil
		}
		sub.IsRightAnswer = ev.isRightAnswer
		sub.Job = applyResult(job, result)
		if err := sideEffect(ctx, tx, sub); err != nil {
			return fmt.Errorf("result side effect: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, false, err
	}
	return applied, done, nil
}

func applyResult(job *model.CheckingJob, res model.CheckingResult) *model.CheckingJob {
	out := *job
	out.Status = model.JobStatusDone
	v := res.Verdict
	out.Verdict = &v
	out.IsCompilationError = res.IsCompilationError
	out.IsRightAnswer = res.IsRightAnswer
	out.Score = res.Score
	out.Points = res.Points
	if res.OutputHash != "" {
		h := res.OutputHash
		out.OutputHash = &h
	}
	if res.CompilationErrorHash != "" {
		h := res.CompilationErrorHash
		out.CompilationErrorHash = &h
	}
	return &out
}

func (r *ResultRecorder) emit(result, sandbox string, start time.Time, err error) {
	metrics.EmitQueueTransition(r.metrics, metrics.QueueMetric{
		Transition: metrics.TransitionFinalize,
		Result:     result,
		Sandbox:    sandbox,
		Duration:   r.now().Sub(start),
		Err:        err,
	})
}
