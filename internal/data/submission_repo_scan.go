package data

import (
	"database/sql"
	"strings"
	"time"

	"github.com/target/checkqueue/internal/domain/model"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(scanner rowScanner) (*model.Submission, error) {
	sub := &model.Submission{}
	if err := scanner.Scan(
		&sub.ID,
		&sub.CourseID,
		&sub.SlideID,
		&sub.UserID,
		&sub.CodeHash,
		&sub.Language,
		&sub.Sandbox,
		&sub.IsRightAnswer,
		&sub.CreatedAt,
	); err != nil {
		return nil, err
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return sub, nil
}

type jobRowData struct {
	agentName, verdict, outputHash, compilationHash sql.NullString
	claimedAt                                       sql.NullTime
	points                                          sql.NullFloat64
	elapsedMs                                       sql.NullInt64
}

func (d *jobRowData) scanInto(scanner rowScanner, job *model.CheckingJob) error {
	return scanner.Scan(
		&job.ID,
		&job.SubmissionID,
		&job.Status,
		&d.agentName,
		&d.claimedAt,
		&d.verdict,
		&d.outputHash,
		&d.compilationHash,
		&job.IsCompilationError,
		&job.IsRightAnswer,
		&job.Score,
		&d.points,
		&d.elapsedMs,
		&job.DisplayName,
		&job.ExecutionServiceName,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
}

func (d *jobRowData) apply(job *model.CheckingJob) {
	job.AgentName = cloneNullableString(d.agentName)
	job.ClaimedAt = cloneNullableTime(d.claimedAt)
	job.OutputHash = cloneNullableString(d.outputHash)
	job.CompilationErrorHash = cloneNullableString(d.compilationHash)
	if d.verdict.Valid {
		v := model.Verdict(d.verdict.String)
		job.Verdict = &v
	}
	if d.points.Valid {
		p := d.points.Float64
		job.Points = &p
	}
	if d.elapsedMs.Valid {
		e := time.Duration(d.elapsedMs.Int64) * time.Millisecond
		job.Elapsed = &e
	}
	job.CreatedAt = job.CreatedAt.UTC()
	job.UpdatedAt = job.UpdatedAt.UTC()
}

func scanJob(scanner rowScanner) (*model.CheckingJob, error) {
	job := &model.CheckingJob{}
	var data jobRowData
	if err := data.scanInto(scanner, job); err != nil {
		return nil, err
	}
	data.apply(job)
	return job, nil
}

func cloneNullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func cloneNullableTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func isNotBlank(s string) bool {
	return strings.TrimSpace(s) != ""
}
