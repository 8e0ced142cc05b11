// Package model defines the core data types shared by the checking queue.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the automatic-checking state of a submission.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

const (
	// JobStatusWaiting indicates the job has not been claimed by any agent yet.
	JobStatusWaiting JobStatus = "waiting"
	// JobStatusRunning indicates an agent claimed the job and is executing it.
	JobStatusRunning JobStatus = "running"
	// JobStatusDone indicates a verdict has been recorded.
	JobStatusDone JobStatus = "done"
)

// ErrNoJobAvailable is returned when there is nothing to claim right now.
// It is a normal outcome, not a failure.
var ErrNoJobAvailable = errors.New("no job available")

// Valid returns true if the JobStatus is one of the known states.
func (s JobStatus) Valid() bool {
	return s == JobStatusWaiting || s == JobStatusRunning || s == JobStatusDone
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *JobStatus) UnmarshalText(text []byte) error {
	v := JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobStatus: %q", v)
	}
	*s = v
	return nil
}

// CanTransitionTo reports whether moving from s to next is a legal step of
// the waiting -> running -> done state machine.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case JobStatusWaiting:
		return next == JobStatusRunning
	case JobStatusRunning:
		return next == JobStatusDone
	default:
		return false
	}
}

// CheckingJob is the queue-managed unit tracking automatic checking of one submission.
type CheckingJob struct {
	ID                   int64          `json:"id"                               db:"id"`
	SubmissionID         int64          `json:"submission_id"                    db:"submission_id"`
	Status               JobStatus      `json:"status"                           db:"status"`
	AgentName            *string        `json:"agent_name,omitempty"             db:"agent_name"`
	ClaimedAt            *time.Time     `json:"claimed_at,omitempty"             db:"claimed_at"`
	Verdict              *Verdict       `json:"verdict,omitempty"                db:"verdict"`
	OutputHash           *string        `json:"output_hash,omitempty"            db:"output_hash"`
	CompilationErrorHash *string        `json:"compilation_error_hash,omitempty" db:"compilation_error_hash"`
	IsCompilationError   bool           `json:"is_compilation_error"             db:"is_compilation_error"`
	IsRightAnswer        bool           `json:"is_right_answer"                  db:"is_right_answer"`
	Score                int            `json:"score"                            db:"score"`
	Points               *float64       `json:"points,omitempty"                 db:"points"`
	Elapsed              *time.Duration `json:"elapsed,omitempty"                db:"elapsed_ms"`
	DisplayName          string         `json:"display_name,omitempty"           db:"display_name"`
	ExecutionServiceName string         `json:"execution_service_name,omitempty" db:"execution_service_name"`
	CreatedAt            time.Time      `json:"created_at"                       db:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"                       db:"updated_at"`

	// Resolved texts; only populated by lookups that request them.
	Output           string `json:"output,omitempty"            db:"-"`
	CompilationError string `json:"compilation_error,omitempty" db:"-"`
}

// IsDone reports whether the job reached its terminal state.
func (j *CheckingJob) IsDone() bool {
	return j != nil && j.Status == JobStatusDone
}

// ClaimToken describes a successful claim. It is not persisted.
type ClaimToken struct {
	Token        uuid.UUID `json:"token"`
	JobID        int64     `json:"job_id"`
	SubmissionID int64     `json:"submission_id"`
	AgentName    string    `json:"agent_name"`
	ClaimedAt    time.Time `json:"claimed_at"`
}

// QueueStats reports how many jobs are in each state.
type QueueStats struct {
	Waiting int `json:"waiting"`
	Running int `json:"running"`
	Done    int `json:"done"`
	// PendingRendezvous is the number of submitters of this process still waiting for a verdict.
	PendingRendezvous int `json:"pending_rendezvous"`
}
