package data

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/domain/model"
	apperrors "github.com/target/checkqueue/internal/errors"
)

// TextRepo is the content-addressed text store backed by the texts table.
type TextRepo struct {
	DB *sql.DB
}

// NewTextRepo creates a new TextRepo.
func NewTextRepo(db *sql.DB) *TextRepo {
	return &TextRepo{DB: db}
}

// HashText returns the content address of text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Put stores text and returns its hash. Empty text is not stored and yields "".
// Text is sanitized first; the hash addresses the stored form.
func (r *TextRepo) Put(ctx context.Context, q core.Querier, text string) (string, error) {
	text = model.SanitizeText(text)
	if text == "" {
		return "", nil
	}
	if q == nil {
		q = r.DB
	}

	hash := HashText(text)
	if _, err := q.ExecContext(ctx, `
		INSERT INTO texts (hash, body)
		VALUES ($1, $2)
		ON CONFLICT (hash) DO NOTHING
	`, hash, text); err != nil {
		return "", apperrors.StoreError("put text", err)
	}
	return hash, nil
}

// Get returns the text for hash. Unknown or empty hashes yield "".
func (r *TextRepo) Get(ctx context.Context, hash string) (string, error) {
	if hash == "" {
		return "", nil
	}

	var body string
	err := r.DB.QueryRowContext(ctx, `SELECT body FROM texts WHERE hash = $1`, hash).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.StoreError("get text", err)
	}
	return body, nil
}

// GetMany resolves several hashes at once. Missing hashes are absent from the result.
func (r *TextRepo) GetMany(ctx context.Context, hashes []string) (map[string]string, error) {
	out := make(map[string]string, len(hashes))
	wanted := make([]string, 0, len(hashes))
	for _, h := range hashes {
		if h != "" {
			wanted = append(wanted, h)
		}
	}
	if len(wanted) == 0 {
		return out, nil
	}

	rows, err := r.DB.QueryContext(ctx, `SELECT hash, body FROM texts WHERE hash = ANY($1)`, wanted)
	if err != nil {
		return nil, apperrors.StoreError("get texts", err)
	}
	defer rows.Close()

	for rows.Next() {
		var hash, body string
		if err := rows.Scan(&hash, &body); err != nil {
			return nil, fmt.Errorf("scan text: %w", err)
		}
		out[hash] = body
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.StoreError("get texts", err)
	}
	return out, nil
}
