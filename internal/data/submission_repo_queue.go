package data

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/data/pgxutil"
	"github.com/target/checkqueue/internal/domain/model"
	apperrors "github.com/target/checkqueue/internal/errors"
)

// FindEligibleForClaim returns submission ids with a waiting job in one of the
// sandboxes, created after notOlderThan, in ascending order.
func (r *SubmissionRepo) FindEligibleForClaim(
	ctx context.Context,
	sandboxes []string,
	notOlderThan time.Time,
) ([]int64, error) {
	if len(sandboxes) == 0 {
		return nil, nil
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT j.submission_id
		FROM checking_jobs j
		JOIN submissions s ON s.id = j.submission_id
		WHERE j.status = 'waiting'
		  AND s.created_at > $1
		  AND s.sandbox = ANY($2)
		ORDER BY j.submission_id ASC
	`, notOlderThan.UTC(), sandboxes)
	if err != nil {
		return nil, apperrors.StoreError("find eligible submissions", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan submission id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("find eligible submissions", err)
	}
	return ids, nil
}

// MarkRunning moves a waiting job to running. It reports false when the job
// was no longer waiting.
func (r *SubmissionRepo) MarkRunning(ctx context.Context, tx *sql.Tx, params core.MarkRunningParams) (bool, error) {
	if tx == nil {
		return false, ErrTxRequired
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE checking_jobs
		SET status = 'running', agent_name = $2, claimed_at = $3, updated_at = $3
		WHERE id = $1 AND status = 'waiting'
	`, params.JobID, params.AgentName, params.At.UTC())
	if err != nil {
		return false, apperrors.StoreError("mark job running", err)
	}
	return singleRowAffected(res)
}

// RecordResult stores the verdict of a running job and mirrors its correctness
// onto the submission. It reports false, writing nothing, when the job was not running.
func (r *SubmissionRepo) RecordResult(ctx context.Context, tx *sql.Tx, params core.RecordResultParams) (bool, error) {
	if tx == nil {
		return false, ErrTxRequired
	}
	result := params.Result
	res, err := tx.ExecContext(ctx, `
		UPDATE checking_jobs
		SET status = 'done',
		    verdict = $2,
		    output_hash = $3,
		    compilation_error_hash = $4,
		    is_compilation_error = $5,
		    is_right_answer = $6,
		    score = $7,
		    points = $8,
		    elapsed_ms = $9,
		    updated_at = $10
		WHERE id = $1 AND status = 'running'
	`,
		params.JobID,
		result.Verdict,
		nullString(result.OutputHash),
		nullString(result.CompilationErrorHash),
		result.IsCompilationError,
		result.IsRightAnswer,
		result.Score,
		nullFloat(result.Points),
		params.Elapsed.Milliseconds(),
		r.timeProvider.Now().UTC(),
	)
	if err != nil {
		return false, apperrors.StoreError("record checking result", err)
	}
	applied, err := singleRowAffected(res)
	if err != nil || !applied {
		return applied, err
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE submissions SET is_right_answer = $2 WHERE id = $1
	`, params.SubmissionID, result.IsRightAnswer); err != nil {
		return false, apperrors.StoreError("update submission correctness", err)
	}
	return true, nil
}

// Stats returns the number of jobs per status.
func (r *SubmissionRepo) Stats(ctx context.Context) (*model.QueueStats, error) {
	var s model.QueueStats
	err := r.DB.QueryRowContext(ctx, `
  SELECT
    count(*) FILTER (WHERE status = 'waiting') AS waiting,
    count(*) FILTER (WHERE status = 'running') AS running,
    count(*) FILTER (WHERE status = 'done')    AS done
  FROM checking_jobs
  `).Scan(&s.Waiting, &s.Running, &s.Done)
	if err != nil {
		return nil, apperrors.StoreError("queue stats", err)
	}
	return &s, nil
}

// CountStaleRunning counts jobs claimed before olderThan that never reported a result.
func (r *SubmissionRepo) CountStaleRunning(ctx context.Context, olderThan time.Time) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, `
		SELECT count(*) FROM checking_jobs
		WHERE status = 'running' AND claimed_at < $1
	`, olderThan.UTC()).Scan(&n)
	if err != nil {
		return 0, apperrors.StoreError("count stale running jobs", err)
	}
	return n, nil
}

// ListWaiting returns up to limit waiting jobs, newest first.
func (r *SubmissionRepo) ListWaiting(ctx context.Context, limit int) ([]*model.CheckingJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+jobColumns+`
		FROM checking_jobs
		WHERE status = 'waiting'
		ORDER BY submission_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, apperrors.StoreError("list waiting jobs", err)
	}
	defer rows.Close()

	var jobs []*model.CheckingJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan checking job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("list waiting jobs", err)
	}
	return jobs, nil
}

// WaitForNotification waits for a PostgreSQL notification announcing a new
// waiting job and returns the sandbox carried in its payload.
func (r *SubmissionRepo) WaitForNotification(ctx context.Context) (string, error) {
	quoted := pgx.Identifier{WaitingChannel}.Sanitize()

	var sandbox string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, "LISTEN "+quoted); err != nil {
			return fmt.Errorf("listen %s: %w", WaitingChannel, err)
		}
		defer func() {
			if _, err := conn.Exec(context.Background(), "UNLISTEN "+quoted); err != nil {
				r.logger.Debug("unlisten failed", "channel", WaitingChannel, "error", err)
			}
		}()

		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		sandbox = n.Payload
		return nil
	})
	return sandbox, err
}

func singleRowAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}
