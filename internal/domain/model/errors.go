package model

import "errors"

var (
	// ErrSubmissionLookupFailed is returned when a submission vanished while its
	// submitter was waiting for the checking result.
	ErrSubmissionLookupFailed = errors.New("submission lookup failed")

	// ErrSubmissionCheckingTimeout is returned when the overall wait budget ran out
	// before a verdict was recorded. The job itself is unaffected.
	ErrSubmissionCheckingTimeout = errors.New("submission checking timeout")

	// ErrSubmissionNotFound is returned by lookups for an unknown submission id.
	ErrSubmissionNotFound = errors.New("submission not found")

	// ErrUnknownExerciseType is returned when correctness cannot be decided.
	ErrUnknownExerciseType = errors.New("unknown exercise type for checking")
)
