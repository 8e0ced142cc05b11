package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/mock/gomock"

	"github.com/target/checkqueue/internal/domain/model"
	"github.com/target/checkqueue/internal/mocks"
)

var testSlideID = uuid.MustParse("6c6e1b8a-4d3b-4b0e-9c0a-3f8b2a1d9e01")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// expectTx makes WithTx run fn with a nil transaction; the repository calls
// made inside fn are mocked too.
func expectTx(repo *mocks.MockSubmissionRepository) *gomock.Call {
	return repo.EXPECT().
		WithTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sql.TxOptions, fn func(*sql.Tx) error) error {
			return fn(nil)
		})
}

func testSubmission(id int64) *model.Submission {
	return &model.Submission{
		ID:        id,
		CourseID:  "basicprogramming",
		SlideID:   testSlideID,
		UserID:    "user-1",
		CodeHash:  "hash",
		Language:  model.LanguageCSharp,
		Sandbox:   "csharp",
		CreatedAt: time.Date(2024, 3, 1, 11, 59, 0, 0, time.UTC),
		Code:      "class P {}",
	}
}

func testJob(submissionID int64, status model.JobStatus) *model.CheckingJob {
	return &model.CheckingJob{
		ID:           submissionID * 10,
		SubmissionID: submissionID,
		Status:       status,
		CreatedAt:    time.Date(2024, 3, 1, 11, 59, 0, 0, time.UTC),
	}
}
