// Package checking holds the queue's domain rules: how a verdict turns into a
// right answer and how submitters rendezvous with recorded results.
package checking

import (
	"fmt"
	"strings"

	"github.com/target/checkqueue/internal/domain/model"
)

// PointsEpsilon is the tolerance used when comparing reported points to the passing threshold.
const PointsEpsilon = 0.00001

var eolnReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// NormalizeEOLN converts Windows and old Mac line endings to "\n".
func NormalizeEOLN(s string) string {
	return eolnReplacer.Replace(s)
}

// Evaluation is the input of IsRightAnswer.
type Evaluation struct {
	Verdict model.Verdict
	// Output must already be normalised with NormalizeEOLN.
	Output string
	Points *float64
	// Exercise is nil for submissions that have no exercise (sandbox runner).
	Exercise *model.Exercise
}

// IsRightAnswer decides correctness for a finished run.
func IsRightAnswer(in Evaluation) (bool, error) {
	if in.Verdict != model.VerdictOk {
		return false, nil
	}
	if in.Exercise == nil {
		return false, nil
	}

	ex := in.Exercise
	switch ex.Type {
	case model.ExerciseCheckExitCode:
		return true, nil
	case model.ExerciseCheckOutput:
		return in.Output == NormalizeEOLN(ex.ExpectedOutput), nil
	case model.ExerciseCheckPoints:
		if in.Points == nil {
			return false, nil
		}
		if ex.SmallPointsIsBetter {
			return *in.Points < ex.PassingPoints+PointsEpsilon, nil
		}
		return *in.Points > ex.PassingPoints-PointsEpsilon, nil
	default:
		return false, fmt.Errorf("%w: %q", model.ErrUnknownExerciseType, ex.Type)
	}
}

// Score returns the score awarded for a finished run. Skipped slides always score zero.
func Score(ex *model.Exercise, isRightAnswer, skipped bool) int {
	if ex == nil || !isRightAnswer || skipped {
		return 0
	}
	return ex.PassedScore
}

// RequiresChecking reports whether a submission in lang for ex must go through the queue.
func RequiresChecking(lang model.Language, ex *model.Exercise) bool {
	if !lang.HasAutomaticChecking() {
		return false
	}
	return lang == model.LanguageCSharp || (ex != nil && ex.Universal)
}
