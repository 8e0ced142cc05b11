package checking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/checkqueue/internal/domain/model"
)

func ptr[T any](v T) *T { return &v }

func TestIsRightAnswer(t *testing.T) {
	outputEx := &model.Exercise{Type: model.ExerciseCheckOutput, ExpectedOutput: "42\r\nok\r\n"}
	exitEx := &model.Exercise{Type: model.ExerciseCheckExitCode}
	pointsEx := &model.Exercise{Type: model.ExerciseCheckPoints, PassingPoints: 10}
	lowPointsEx := &model.Exercise{Type: model.ExerciseCheckPoints, PassingPoints: 10, SmallPointsIsBetter: true}

	tests := []struct {
		name string
		in   Evaluation
		want bool
	}{
		{"non ok verdict", Evaluation{Verdict: model.VerdictWrongAnswer, Exercise: exitEx}, false},
		{"no exercise", Evaluation{Verdict: model.VerdictOk}, false},
		{"exit code", Evaluation{Verdict: model.VerdictOk, Exercise: exitEx}, true},
		{"output matches after normalisation", Evaluation{Verdict: model.VerdictOk, Output: "42\nok\n", Exercise: outputEx}, true},
		{"output differs", Evaluation{Verdict: model.VerdictOk, Output: "41\nok\n", Exercise: outputEx}, false},
		{"points missing", Evaluation{Verdict: model.VerdictOk, Exercise: pointsEx}, false},
		{"points above threshold", Evaluation{Verdict: model.VerdictOk, Points: ptr(10.5), Exercise: pointsEx}, true},
		{"points within epsilon", Evaluation{Verdict: model.VerdictOk, Points: ptr(9.999995), Exercise: pointsEx}, true},
		{"points below threshold", Evaluation{Verdict: model.VerdictOk, Points: ptr(9.9), Exercise: pointsEx}, false},
		{"small points better below", Evaluation{Verdict: model.VerdictOk, Points: ptr(9.0), Exercise: lowPointsEx}, true},
		{"small points better above", Evaluation{Verdict: model.VerdictOk, Points: ptr(10.1), Exercise: lowPointsEx}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsRightAnswer(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsRightAnswer_UnknownExerciseType(t *testing.T) {
	_, err := IsRightAnswer(Evaluation{
		Verdict:  model.VerdictOk,
		Exercise: &model.Exercise{Type: "essay"},
	})
	require.ErrorIs(t, err, model.ErrUnknownExerciseType)
}

func TestScore(t *testing.T) {
	ex := &model.Exercise{PassedScore: 5}

	assert.Equal(t, 5, Score(ex, true, false))
	assert.Equal(t, 0, Score(ex, false, false))
	assert.Equal(t, 0, Score(ex, true, true))
	assert.Equal(t, 0, Score(nil, true, false))
}

func TestRequiresChecking(t *testing.T) {
	universal := &model.Exercise{Universal: true}

	assert.True(t, RequiresChecking(model.LanguageCSharp, nil))
	assert.False(t, RequiresChecking(model.LanguagePython3, nil))
	assert.True(t, RequiresChecking(model.LanguagePython3, universal))
	assert.False(t, RequiresChecking(model.LanguageHTML, universal))
}

func TestNormalizeEOLN(t *testing.T) {
	assert.Equal(t, "a\nb\nc\n", NormalizeEOLN("a\r\nb\rc\n"))
}

func TestPointsFromOutput(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		output string
		want   float64
		ok     bool
	}{
		{"empty query", "", `{"score": 3}`, 0, false},
		{"not json", "score", "score: 3", 0, false},
		{"numeric field", "score", `{"score": 3.5}`, 3.5, true},
		{"nested", "result.tests[?passed] | length(@)", `{"result":{"tests":[{"passed":true},{"passed":false},{"passed":true}]}}`, 2, true},
		{"non numeric", "name", `{"name": "x"}`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := PointsFromOutput(tt.query, tt.output)
			require.NoError(t, err)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestValidatePointsQuery(t *testing.T) {
	require.NoError(t, ValidatePointsQuery(""))
	require.NoError(t, ValidatePointsQuery("a.b"))
	require.Error(t, ValidatePointsQuery("a.[b"))
}
