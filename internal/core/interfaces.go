package core

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/target/checkqueue/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// Service implementations depend on these interfaces, not on the data layer.

// Querier is satisfied by both *sql.DB and *sql.Tx so writes can join an outer transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// MarkRunningParams groups parameters for SubmissionRepository.MarkRunning.
type MarkRunningParams struct {
	JobID     int64
	AgentName string
	At        time.Time
}

// RecordResultParams groups parameters for SubmissionRepository.RecordResult.
type RecordResultParams struct {
	JobID        int64
	SubmissionID int64
	Result       model.CheckingResult
	Elapsed      time.Duration
}

// SubmissionRepository defines persistence of submissions and their checking jobs.
type SubmissionRepository interface {
	Create(ctx context.Context, req *model.CreateSubmissionRequest) (*model.Submission, *model.CheckingJob, error)
	// FindEligibleForClaim returns submission ids of waiting jobs in the given
	// sandboxes created after notOlderThan, ascending.
	FindEligibleForClaim(ctx context.Context, sandboxes []string, notOlderThan time.Time) ([]int64, error)
	WithTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error
	FindBySubmissionInTx(ctx context.Context, tx *sql.Tx, submissionID int64) (*model.CheckingJob, error)
	MarkRunning(ctx context.Context, tx *sql.Tx, params MarkRunningParams) (bool, error)
	RecordResult(ctx context.Context, tx *sql.Tx, params RecordResultParams) (bool, error)
	Find(ctx context.Context, jobID int64) (*model.CheckingJob, error)
	FindBySubmission(ctx context.Context, submissionID int64) (*model.CheckingJob, error)
	FindSubmission(ctx context.Context, id int64, withCode bool) (*model.Submission, error)
	Stats(ctx context.Context) (*model.QueueStats, error)
	CountStaleRunning(ctx context.Context, olderThan time.Time) (int, error)
	ListWaiting(ctx context.Context, limit int) ([]*model.CheckingJob, error)
	// WaitForNotification blocks until a waiting job is announced and returns its sandbox.
	WaitForNotification(ctx context.Context) (string, error)
}

// TextStore is the content-addressed store for code, output and compilation errors.
type TextStore interface {
	// Put stores text through q and returns its hash. Storing the same text twice is a no-op.
	Put(ctx context.Context, q Querier, text string) (string, error)
	// Get returns the text for hash; a missing hash yields "" and no error.
	Get(ctx context.Context, hash string) (string, error)
	GetMany(ctx context.Context, hashes []string) (map[string]string, error)
}

// CourseCatalog resolves exercise metadata for a slide.
type CourseCatalog interface {
	FindExercise(courseID string, slideID uuid.UUID) (*model.Exercise, bool)
}

// SkipChecker reports administratively skipped slides.
type SkipChecker interface {
	IsSkipped(ctx context.Context, courseID string, slideID uuid.UUID, userID string) (bool, error)
}

// HandledPublisher announces recorded verdicts to other service processes.
type HandledPublisher interface {
	Publish(ctx context.Context, submissionID int64) error
}

// JobNotifier wakes agents that long-poll for work in specific sandboxes.
type JobNotifier interface {
	Subscribe(sandboxes []string) (func(), <-chan struct{})
}

// ResultSideEffect runs inside the finalize transaction after the result is written.
type ResultSideEffect func(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
