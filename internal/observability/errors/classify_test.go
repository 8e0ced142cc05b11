package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/target/checkqueue/internal/domain/model"
	apperrors "github.com/target/checkqueue/internal/errors"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

type customErr struct{}

func (*customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "deadline", err: fmt.Errorf("claim: %w", context.DeadlineExceeded), want: "deadline_exceeded"},
		{name: "canceled", err: context.Canceled, want: "canceled"},
		{name: "checking timeout", err: fmt.Errorf("wait: %w", model.ErrSubmissionCheckingTimeout), want: "checking_timeout"},
		{name: "lookup failed", err: model.ErrSubmissionLookupFailed, want: "lookup_failed"},
		{name: "app not found", err: apperrors.NotFoundf("job %d", 7), want: "app_not_found"},
		{name: "app validation", err: fmt.Errorf("submit: %w", apperrors.Validation("bad")), want: "app_validation"},
		{name: "postgres", err: fmt.Errorf("query: %w", &pgconn.PgError{Code: "40001"}), want: "pg_40"},
		{name: "net timeout", err: fmt.Errorf("dial: %w", timeoutErr{}), want: "net_timeout"},
		{name: "custom type", err: fmt.Errorf("outer: %w", &customErr{}), want: "errors_customerr"},
		{name: "plain", err: errors.New("boom"), want: "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
