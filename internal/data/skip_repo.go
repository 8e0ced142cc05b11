package data

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	apperrors "github.com/target/checkqueue/internal/errors"
)

// SkipRepo records slides a user chose to skip; such slides never score.
type SkipRepo struct {
	DB *sql.DB
}

// NewSkipRepo creates a new SkipRepo.
func NewSkipRepo(db *sql.DB) *SkipRepo {
	return &SkipRepo{DB: db}
}

// IsSkipped reports whether userID skipped the slide.
func (r *SkipRepo) IsSkipped(ctx context.Context, courseID string, slideID uuid.UUID, userID string) (bool, error) {
	var skipped bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM slide_skips
			WHERE course_id = $1 AND slide_id = $2 AND user_id = $3
		)
	`, courseID, slideID, userID).Scan(&skipped)
	if err != nil {
		return false, apperrors.StoreError("check slide skip", err)
	}
	return skipped, nil
}

// Skip marks the slide as skipped by userID. Repeated calls are no-ops.
func (r *SkipRepo) Skip(ctx context.Context, courseID string, slideID uuid.UUID, userID string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO slide_skips (course_id, slide_id, user_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING
	`, courseID, slideID, userID)
	if err != nil {
		return apperrors.StoreError("skip slide", err)
	}
	return nil
}
