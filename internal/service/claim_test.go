package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"

	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/domain/checking"
	"github.com/target/checkqueue/internal/domain/model"
	"github.com/target/checkqueue/internal/mocks"
	"github.com/target/checkqueue/internal/observability/statsd"
)

func newTestClaimCoordinator(
	t *testing.T,
	repo *mocks.MockSubmissionRepository,
	tracker *checking.Tracker,
	clock *testClock,
) (*ClaimCoordinator, *statsd.Recorder) {
	t.Helper()
	rec := &statsd.Recorder{}
	c := MustNewClaimCoordinator(ClaimCoordinatorOptions{
		Repo:    repo,
		Tracker: tracker,
		Now:     clock.Now,
		Metrics: rec,
		Logger:  discardLogger(),
	})
	return c, rec
}

func TestNewClaimCoordinator_RequiresRepo(t *testing.T) {
	_, err := NewClaimCoordinator(ClaimCoordinatorOptions{})
	require.Error(t, err)
	assert.Panics(t, func() { MustNewClaimCoordinator(ClaimCoordinatorOptions{}) })
}

func TestClaimCoordinator_NoCandidates(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSubmissionRepository(ctrl)
	clock := newTestClock()
	c, _ := newTestClaimCoordinator(t, repo, nil, clock)

	repo.EXPECT().
		FindEligibleForClaim(gomock.Any(), []string{"csharp"}, clock.Now().Add(-DefaultRecencyWindow)).
		Return(nil, nil)

	claimed, err := c.TryClaim(context.Background(), "agent-1", []string{"csharp"})
	require.ErrorIs(t, err, model.ErrNoJobAvailable)
	assert.Nil(t, claimed)
}

func TestClaimCoordinator_ClaimsNewestCandidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSubmissionRepository(ctrl)
	clock := newTestClock()
	tracker := checking.NewTracker(checking.TrackerOptions{Now: clock.Now})
	tracker.RegisterInterest(9)
	c, rec := newTestClaimCoordinator(t, repo, tracker, clock)

	repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return([]int64{3, 9, 5}, nil)
	repo.EXPECT().FindSubmission(gomock.Any(), int64(9), true).Return(testSubmission(9), nil)
	expectTx(repo)
	repo.EXPECT().FindBySubmissionInTx(gomock.Any(), gomock.Any(), int64(9)).Return(testJob(9, model.JobStatusWaiting), nil)
	repo.EXPECT().
		MarkRunning(gomock.Any(), gomock.Any(), core.MarkRunningParams{JobID: 90, AgentName: "agent-1", At: clock.Now()}).
		Return(true, nil)

	claimed, err := c.TryClaim(context.Background(), "agent-1", []string{"csharp"})
	require.NoError(t, err)
	require.NotNil(t, claimed)

	assert.Equal(t, int64(9), claimed.Claim.SubmissionID)
	assert.Equal(t, int64(90), claimed.Claim.JobID)
	assert.Equal(t, "agent-1", claimed.Claim.AgentName)
	assert.Equal(t, clock.Now(), claimed.Claim.ClaimedAt)
	assert.NotEqual(t, uuid.Nil, claimed.Claim.Token)
	assert.Equal(t, "class P {}", claimed.Submission.Code)
	require.NotNil(t, claimed.Submission.Job)
	assert.Equal(t, model.JobStatusRunning, claimed.Submission.Job.Status)
	assert.Empty(t, tracker.ListPending(), "claimed id must leave the pending set")

	samples := rec.Find("queue.transition")
	require.Len(t, samples, 1)
	assert.Equal(t, "success", samples[0].Tags["result"])
	assert.Equal(t, "csharp", samples[0].Tags["sandbox"])
}

func TestClaimCoordinator_CandidateNoLongerWaiting(t *testing.T) {
	for _, status := range []model.JobStatus{model.JobStatusRunning, model.JobStatusDone} {
		t.Run(string(status), func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockSubmissionRepository(ctrl)
			c, _ := newTestClaimCoordinator(t, repo, nil, newTestClock())

			repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return([]int64{4}, nil)
			repo.EXPECT().FindSubmission(gomock.Any(), int64(4), true).Return(testSubmission(4), nil)
			expectTx(repo)
			repo.EXPECT().FindBySubmissionInTx(gomock.Any(), gomock.Any(), int64(4)).Return(testJob(4, status), nil)

			_, err := c.TryClaim(context.Background(), "agent-1", []string{"csharp"})
			require.ErrorIs(t, err, model.ErrNoJobAvailable)
		})
	}
}

func TestClaimCoordinator_GuardedUpdateLost(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSubmissionRepository(ctrl)
	c, _ := newTestClaimCoordinator(t, repo, nil, newTestClock())

	repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return([]int64{4}, nil)
	repo.EXPECT().FindSubmission(gomock.Any(), int64(4), true).Return(testSubmission(4), nil)
	expectTx(repo)
	repo.EXPECT().FindBySubmissionInTx(gomock.Any(), gomock.Any(), int64(4)).Return(testJob(4, model.JobStatusWaiting), nil)
	repo.EXPECT().MarkRunning(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil)

	_, err := c.TryClaim(context.Background(), "agent-1", []string{"csharp"})
	require.ErrorIs(t, err, model.ErrNoJobAvailable)
}

func TestClaimCoordinator_TransactionErrorReportsNoJob(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSubmissionRepository(ctrl)
	c, rec := newTestClaimCoordinator(t, repo, nil, newTestClock())

	repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return([]int64{4}, nil)
	repo.EXPECT().FindSubmission(gomock.Any(), int64(4), true).Return(testSubmission(4), nil)
	expectTx(repo)
	repo.EXPECT().
		FindBySubmissionInTx(gomock.Any(), gomock.Any(), int64(4)).
		Return(nil, errors.New("could not serialize access"))

	_, err := c.TryClaim(context.Background(), "agent-1", []string{"csharp"})
	require.ErrorIs(t, err, model.ErrNoJobAvailable)

	samples := rec.Find("queue.transition")
	require.Len(t, samples, 1)
	assert.Equal(t, "error", samples[0].Tags["result"])
}

func TestClaimCoordinator_LookupErrorIsReturned(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSubmissionRepository(ctrl)
	c, _ := newTestClaimCoordinator(t, repo, nil, newTestClock())

	boom := errors.New("connection refused")
	repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, boom)

	_, err := c.TryClaim(context.Background(), "agent-1", []string{"csharp"})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, model.ErrNoJobAvailable)
}

func TestClaimCoordinator_GateTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSubmissionRepository(ctrl)
	c := MustNewClaimCoordinator(ClaimCoordinatorOptions{
		Repo:        repo,
		GateTimeout: 20 * time.Millisecond,
		Logger:      discardLogger(),
	})

	entered := make(chan struct{})
	release := make(chan struct{})

	repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return([]int64{1}, nil).Times(2)
	repo.EXPECT().FindSubmission(gomock.Any(), int64(1), true).Return(testSubmission(1), nil).Times(2)
	repo.EXPECT().
		WithTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *sql.TxOptions, func(*sql.Tx) error) error {
			close(entered)
			<-release
			return model.ErrNoJobAvailable
		})

	done := make(chan error, 1)
	go func() {
		_, err := c.TryClaim(context.Background(), "slow", []string{"csharp"})
		done <- err
	}()
	<-entered

	start := time.Now()
	_, err := c.TryClaim(context.Background(), "fast", []string{"csharp"})
	require.ErrorIs(t, err, model.ErrNoJobAvailable)
	assert.Less(t, time.Since(start), time.Second)

	close(release)
	require.ErrorIs(t, <-done, model.ErrNoJobAvailable)
}

// TestClaimCoordinator_Contention runs ten agents against a single waiting job.
func TestClaimCoordinator_Contention(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockSubmissionRepository(ctrl)
	c := MustNewClaimCoordinator(ClaimCoordinatorOptions{Repo: repo, Logger: discardLogger()})

	var (
		mu     sync.Mutex
		status = model.JobStatusWaiting
	)

	repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return([]int64{1}, nil).AnyTimes()
	repo.EXPECT().FindSubmission(gomock.Any(), int64(1), true).
		DoAndReturn(func(context.Context, int64, bool) (*model.Submission, error) {
			return testSubmission(1), nil
		}).AnyTimes()
	repo.EXPECT().WithTx(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sql.TxOptions, fn func(*sql.Tx) error) error {
			return fn(nil)
		}).AnyTimes()
	repo.EXPECT().FindBySubmissionInTx(gomock.Any(), gomock.Any(), int64(1)).
		DoAndReturn(func(context.Context, *sql.Tx, int64) (*model.CheckingJob, error) {
			mu.Lock()
			defer mu.Unlock()
			return testJob(1, status), nil
		}).AnyTimes()
	repo.EXPECT().MarkRunning(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, *sql.Tx, core.MarkRunningParams) (bool, error) {
			mu.Lock()
			defer mu.Unlock()
			if status != model.JobStatusWaiting {
				return false, nil
			}
			status = model.JobStatusRunning
			return true, nil
		}).AnyTimes()

	var winners atomic.Int32
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			claimed, err := c.TryClaim(context.Background(), "agent", []string{"csharp"})
			switch {
			case err == nil && claimed != nil:
				winners.Add(1)
			case errors.Is(err, model.ErrNoJobAvailable):
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, int32(1), winners.Load())
}
