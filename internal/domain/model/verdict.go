package model

import (
	"errors"
	"fmt"
	"strings"
)

// Verdict is the outcome category reported by a checking agent.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type Verdict string

// Known verdicts.
const (
	VerdictOk               Verdict = "Ok"
	VerdictCompilationError Verdict = "CompilationError"
	VerdictWrongAnswer      Verdict = "WrongAnswer"
	VerdictRuntimeError     Verdict = "RuntimeError"
	VerdictTimeLimit        Verdict = "TimeLimit"
	VerdictMemoryLimit      Verdict = "MemoryLimit"
	VerdictOutputLimit      Verdict = "OutputLimit"
	VerdictSandboxError     Verdict = "SandboxError"
)

var knownVerdicts = []Verdict{
	VerdictOk,
	VerdictCompilationError,
	VerdictWrongAnswer,
	VerdictRuntimeError,
	VerdictTimeLimit,
	VerdictMemoryLimit,
	VerdictOutputLimit,
	VerdictSandboxError,
}

// Valid returns true if the verdict is known.
func (v Verdict) Valid() bool {
	for _, k := range knownVerdicts {
		if v == k {
			return true
		}
	}
	return false
}

// UnmarshalText accepts verdicts case-insensitively.
func (v *Verdict) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	for _, k := range knownVerdicts {
		if strings.EqualFold(raw, string(k)) {
			*v = k
			return nil
		}
	}
	return fmt.Errorf("invalid Verdict: %q", raw)
}

// RunningResult is what an agent reports after executing a submission.
type RunningResult struct {
	SubmissionID     int64    `json:"id"`
	Verdict          Verdict  `json:"verdict"`
	Output           string   `json:"output,omitempty"`
	Error            string   `json:"error,omitempty"`
	CompilationError string   `json:"compilation_output,omitempty"`
	Points           *float64 `json:"points,omitempty"`
}

// Validate validates the RunningResult fields.
func (r *RunningResult) Validate() error {
	if r.SubmissionID <= 0 {
		return errors.New("id must be positive")
	}
	if !r.Verdict.Valid() {
		return fmt.Errorf("invalid verdict %q", r.Verdict)
	}
	return nil
}

// CombinedOutput joins standard output and standard error the way they are shown to users.
func (r *RunningResult) CombinedOutput() string {
	switch {
	case r.Error == "":
		return r.Output
	case r.Output == "":
		return r.Error
	default:
		return r.Output + "\n" + r.Error
	}
}

// CheckingResult is the terminal state written to the store by the recorder.
type CheckingResult struct {
	Verdict              Verdict
	OutputHash           string
	CompilationErrorHash string
	IsCompilationError   bool
	IsRightAnswer        bool
	Score                int
	Points               *float64
}
