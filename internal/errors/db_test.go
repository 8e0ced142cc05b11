package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDBError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantField string
		wantMsg   string
	}{
		{name: "deadline", err: context.DeadlineExceeded, wantCode: ErrCodeTimeout},
		{name: "canceled", err: fmt.Errorf("query: %w", context.Canceled), wantCode: ErrCodeCanceled},
		{name: "pgx no rows", err: pgx.ErrNoRows, wantCode: ErrCodeNotFound},
		{name: "sql no rows", err: sql.ErrNoRows, wantCode: ErrCodeNotFound},
		{
			name: "unique from detail",
			err: &pgconn.PgError{
				Code:      pgerrcode.UniqueViolation,
				TableName: "checking_jobs",
				Detail:    "Key (submission_id)=(4) already exists.",
			},
			wantCode:  ErrCodeConflict,
			wantField: "submission_id",
			wantMsg:   "duplicate checking job",
		},
		{
			name: "foreign key missing parent",
			err: &pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (submission_id)=(9) is not present in table "submissions".`,
			},
			wantCode: ErrCodeForeignKey,
			wantMsg:  "referenced submission does not exist",
		},
		{
			name:      "check violation",
			err:       &pgconn.PgError{Code: pgerrcode.CheckViolation, TableName: "checking_jobs", ColumnName: "status"},
			wantCode:  ErrCodeValidation,
			wantField: "status",
		},
		{name: "serialization", err: &pgconn.PgError{Code: pgerrcode.SerializationFailure}, wantCode: ErrCodeConflict},
		{name: "other pg error", err: &pgconn.PgError{Code: pgerrcode.DiskFull}, wantCode: ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapDBError(tt.err)
			assert.Equal(t, tt.wantCode, GetCode(got))
			assert.Equal(t, tt.wantField, GetField(got))
			if tt.wantMsg != "" {
				var appErr *AppError
				require.ErrorAs(t, got, &appErr)
				assert.Equal(t, tt.wantMsg, appErr.Message)
			}
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestMapDBError_PassThrough(t *testing.T) {
	assert.NoError(t, MapDBError(nil))

	plain := errors.New("boom")
	assert.Same(t, plain, MapDBError(plain))
}

func TestStoreError(t *testing.T) {
	assert.NoError(t, StoreError("op", nil))

	err := StoreError("insert submission", errors.New("connection reset"))
	assert.True(t, IsInternal(err))
	assert.Contains(t, err.Error(), "insert submission")

	err = StoreError("find job", sql.ErrNoRows)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
