package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/data/pgxutil"
	"github.com/target/checkqueue/internal/domain/model"
	apperrors "github.com/target/checkqueue/internal/errors"
)

// WaitingChannel is the Postgres notification channel announcing new waiting jobs.
// The payload is the submission's sandbox.
const WaitingChannel = "submission_waiting"

// RepoConfig holds configuration options for the submission repository.
type RepoConfig struct {
	Texts        core.TextStore
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

// SubmissionRepo stores submissions and their checking jobs in PostgreSQL.
type SubmissionRepo struct {
	DB           *sql.DB
	texts        core.TextStore
	timeProvider TimeProvider
	logger       *slog.Logger
}

var _ core.SubmissionRepository = (*SubmissionRepo)(nil)

// NewSubmissionRepo creates a new SubmissionRepo. When cfg.Texts is nil texts
// are stored directly in the texts table.
func NewSubmissionRepo(db *sql.DB, cfg RepoConfig) *SubmissionRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	texts := cfg.Texts
	if texts == nil {
		texts = NewTextRepo(db)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmissionRepo{
		DB:           db,
		texts:        texts,
		timeProvider: tp,
		logger:       logger.With("component", "submission_repo"),
	}
}

const submissionColumns = `
  id,
  course_id,
  slide_id,
  user_id,
  code_hash,
  language,
  sandbox,
  is_right_answer,
  created_at
`

const jobColumns = `
  id,
  submission_id,
  status,
  agent_name,
  claimed_at,
  verdict,
  output_hash,
  compilation_error_hash,
  is_compilation_error,
  is_right_answer,
  score,
  points,
  elapsed_ms,
  display_name,
  execution_service_name,
  created_at,
  updated_at
`

// Create stores the code, the submission and, when the request requires
// checking, a waiting job in one transaction. Listening agents are notified
// on commit through pg_notify.
func (r *SubmissionRepo) Create(
	ctx context.Context,
	req *model.CreateSubmissionRequest,
) (*model.Submission, *model.CheckingJob, error) {
	if req == nil {
		return nil, nil, errors.New("create submission request is required")
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, nil, apperrors.Validation(err.Error())
	}

	var (
		sub *model.Submission
		job *model.CheckingJob
	)
	err := pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{
		Fn: func(tx *sql.Tx) error {
			var txErr error
			sub, txErr = r.insertSubmissionInTx(ctx, tx, req)
			if txErr != nil {
				return txErr
			}
			if !req.RequiresChecking {
				return nil
			}
			job, txErr = r.insertJobInTx(ctx, tx, sub, req)
			return txErr
		},
	})
	if err != nil {
		return nil, nil, err
	}

	sub.Code = req.Code
	sub.Job = job
	return sub, job, nil
}

func (r *SubmissionRepo) insertSubmissionInTx(
	ctx context.Context,
	tx *sql.Tx,
	req *model.CreateSubmissionRequest,
) (*model.Submission, error) {
	codeHash, err := r.texts.Put(ctx, tx, req.Code)
	if err != nil {
		return nil, err
	}

	// Submissions without automatic checking count as right answers.
	row := tx.QueryRowContext(ctx, `
		INSERT INTO submissions (course_id, slide_id, user_id, code_hash, language, sandbox, is_right_answer, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+submissionColumns,
		req.CourseID,
		req.SlideID,
		req.UserID,
		codeHash,
		req.Language,
		req.Sandbox,
		!req.RequiresChecking,
		r.timeProvider.Now().UTC(),
	)
	sub, err := scanSubmission(row)
	if err != nil {
		return nil, apperrors.StoreError("insert submission", err)
	}
	return sub, nil
}

func (r *SubmissionRepo) insertJobInTx(
	ctx context.Context,
	tx *sql.Tx,
	sub *model.Submission,
	req *model.CreateSubmissionRequest,
) (*model.CheckingJob, error) {
	outputHash, err := r.texts.Put(ctx, tx, req.Output)
	if err != nil {
		return nil, err
	}
	compilationHash, err := r.texts.Put(ctx, tx, req.CompilationError)
	if err != nil {
		return nil, err
	}

	row := tx.QueryRowContext(ctx, `
		INSERT INTO checking_jobs (
			submission_id, status, output_hash, compilation_error_hash, is_compilation_error,
			display_name, execution_service_name, created_at, updated_at
		)
		VALUES ($1, 'waiting', $2, $3, $4, $5, $6, $7, $7)
		RETURNING `+jobColumns,
		sub.ID,
		nullString(outputHash),
		nullString(compilationHash),
		isNotBlank(req.CompilationError),
		req.DisplayName,
		req.ExecutionServiceName,
		sub.CreatedAt,
	)
	job, err := scanJob(row)
	if err != nil {
		return nil, apperrors.StoreError("insert checking job", err)
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_notify($1::text, $2::text)`, WaitingChannel, sub.Sandbox); err != nil {
		return nil, apperrors.StoreError("send waiting notification", err)
	}
	return job, nil
}

// WithTx runs fn inside a transaction with the given options.
func (r *SubmissionRepo) WithTx(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	return pgxutil.WithSQLTx(ctx, r.DB, pgxutil.SQLTxConfig{Opts: opts, Fn: fn})
}

// Find returns the checking job by its id.
func (r *SubmissionRepo) Find(ctx context.Context, jobID int64) (*model.CheckingJob, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM checking_jobs WHERE id = $1`, jobID)
	return r.jobOrNotFound(row, "find checking job")
}

// FindBySubmission returns the checking job of a submission.
func (r *SubmissionRepo) FindBySubmission(ctx context.Context, submissionID int64) (*model.CheckingJob, error) {
	return r.findBySubmission(ctx, r.DB, submissionID, false)
}

// FindBySubmissionInTx returns the job of a submission and locks its row for the rest of tx.
func (r *SubmissionRepo) FindBySubmissionInTx(
	ctx context.Context,
	tx *sql.Tx,
	submissionID int64,
) (*model.CheckingJob, error) {
	if tx == nil {
		return nil, ErrTxRequired
	}
	return r.findBySubmission(ctx, tx, submissionID, true)
}

func (r *SubmissionRepo) findBySubmission(
	ctx context.Context,
	q core.Querier,
	submissionID int64,
	forUpdate bool,
) (*model.CheckingJob, error) {
	query := `SELECT ` + jobColumns + ` FROM checking_jobs WHERE submission_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	return r.jobOrNotFound(q.QueryRowContext(ctx, query, submissionID), "find checking job by submission")
}

func (r *SubmissionRepo) jobOrNotFound(row *sql.Row, op string) (*model.CheckingJob, error) {
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, apperrors.StoreError(op, err)
	}
	return job, nil
}

// FindSubmission returns the submission with its job. When withCode is true
// the code, output and compilation error texts are resolved as well.
// A missing submission yields model.ErrSubmissionNotFound.
func (r *SubmissionRepo) FindSubmission(ctx context.Context, id int64, withCode bool) (*model.Submission, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM submissions WHERE id = $1`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrSubmissionNotFound
	}
	if err != nil {
		return nil, apperrors.StoreError("find submission", err)
	}

	job, err := r.FindBySubmission(ctx, id)
	switch {
	case errors.Is(err, ErrJobNotFound):
	case err != nil:
		return nil, err
	default:
		sub.Job = job
	}

	if withCode {
		if err := r.resolveTexts(ctx, sub); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

func (r *SubmissionRepo) resolveTexts(ctx context.Context, sub *model.Submission) error {
	hashes := []string{sub.CodeHash}
	if sub.Job != nil {
		hashes = append(hashes, derefString(sub.Job.OutputHash), derefString(sub.Job.CompilationErrorHash))
	}

	texts, err := r.texts.GetMany(ctx, hashes)
	if err != nil {
		return fmt.Errorf("resolve submission texts: %w", err)
	}

	sub.Code = texts[sub.CodeHash]
	if sub.Job != nil {
		sub.Job.Output = texts[derefString(sub.Job.OutputHash)]
		sub.Job.CompilationError = texts[derefString(sub.Job.CompilationErrorHash)]
	}
	return nil
}
