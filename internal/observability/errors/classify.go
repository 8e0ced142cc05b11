// Package errors turns errors into short, low-cardinality class names for
// metric tags.
package errors

import (
	"context"
	goerrors "errors"
	"net"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/target/checkqueue/internal/domain/model"
	apperrors "github.com/target/checkqueue/internal/errors"
)

var sentinels = []struct {
	err   error
	class string
}{
	{context.DeadlineExceeded, "deadline_exceeded"},
	{context.Canceled, "canceled"},
	{model.ErrSubmissionCheckingTimeout, "checking_timeout"},
	{model.ErrSubmissionLookupFailed, "lookup_failed"},
	{model.ErrSubmissionNotFound, "submission_not_found"},
	{model.ErrUnknownExerciseType, "unknown_exercise_type"},
}

// Classify returns a class name for err. Known sentinels and application
// error codes win; Postgres errors are tagged by SQLSTATE class; anything else
// falls back to the innermost concrete type name.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	for _, s := range sentinels {
		if goerrors.Is(err, s.err) {
			return s.class
		}
	}

	if code := apperrors.GetCode(err); code != "" {
		return "app_" + string(code)
	}

	var pgErr *pgconn.PgError
	if goerrors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		return "pg_" + pgErr.Code[:2]
	}

	var netErr net.Error
	if goerrors.As(err, &netErr) {
		if netErr.Timeout() {
			return "net_timeout"
		}
		return "net_error"
	}

	return typeName(err)
}

func typeName(err error) string {
	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(t.String())
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
