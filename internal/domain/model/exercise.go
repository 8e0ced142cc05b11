package model

import (
	"fmt"
	"strings"
)

// ExerciseType selects the rule used to turn a verdict into correctness.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ExerciseType string

const (
	// ExerciseCheckOutput compares the normalised output to the expected output.
	ExerciseCheckOutput ExerciseType = "check_output"
	// ExerciseCheckExitCode accepts any successful run.
	ExerciseCheckExitCode ExerciseType = "check_exit_code"
	// ExerciseCheckPoints compares reported points against a passing threshold.
	ExerciseCheckPoints ExerciseType = "check_points"
)

// Valid returns true for known exercise types.
func (t ExerciseType) Valid() bool {
	return t == ExerciseCheckOutput || t == ExerciseCheckExitCode || t == ExerciseCheckPoints
}

// UnmarshalText implements encoding.TextUnmarshaler so YAML manifests can use the type directly.
func (t *ExerciseType) UnmarshalText(text []byte) error {
	v := ExerciseType(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid ExerciseType: %q", v)
	}
	*t = v
	return nil
}

// Exercise is the slice of course metadata the recorder needs for one slide.
type Exercise struct {
	CourseID            string       `json:"course_id"             yaml:"-"`
	SlideID             string       `json:"slide_id"              yaml:"slide_id"`
	Title               string       `json:"title,omitempty"       yaml:"title"`
	Type                ExerciseType `json:"type"                  yaml:"type"`
	ExpectedOutput      string       `json:"expected_output,omitempty" yaml:"expected_output"`
	PassingPoints       float64      `json:"passing_points,omitempty"  yaml:"passing_points"`
	SmallPointsIsBetter bool         `json:"small_points_is_better"    yaml:"small_points_is_better"`
	PassedScore         int          `json:"passed_score"          yaml:"passed_score"`
	PointsQuery         string       `json:"points_query,omitempty" yaml:"points_query"`
	// Universal exercises are checked for every language with automatic checking;
	// others only for C#.
	Universal bool `json:"universal" yaml:"universal"`
}
