package service

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/domain/checking"
	"github.com/target/checkqueue/internal/domain/model"
	"github.com/target/checkqueue/internal/mocks"
)

type queueFixture struct {
	repo     *mocks.MockSubmissionRepository
	catalog  *mocks.MockCourseCatalog
	texts    *mocks.MockTextStore
	notifier *mocks.MockJobNotifier
	tracker  *checking.Tracker
	svc      *QueueService
}

func newQueueFixture(t *testing.T, withNotifier bool) *queueFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &queueFixture{
		repo:    mocks.NewMockSubmissionRepository(ctrl),
		catalog: mocks.NewMockCourseCatalog(ctrl),
		texts:   mocks.NewMockTextStore(ctrl),
		tracker: checking.NewTracker(checking.TrackerOptions{PollInterval: 5 * time.Millisecond}),
	}

	opts := QueueServiceOptions{
		Repo:    f.repo,
		Catalog: f.catalog,
		Tracker: f.tracker,
		Claims: MustNewClaimCoordinator(ClaimCoordinatorOptions{
			Repo:    f.repo,
			Tracker: f.tracker,
			Logger:  discardLogger(),
		}),
		Recorder: MustNewResultRecorder(ResultRecorderOptions{
			Repo:    f.repo,
			Texts:   f.texts,
			Catalog: f.catalog,
			Tracker: f.tracker,
			Logger:  discardLogger(),
		}),
		WaitSlice:   50 * time.Millisecond,
		LookupDelay: time.Millisecond,
		Logger:      discardLogger(),
	}
	if withNotifier {
		f.notifier = mocks.NewMockJobNotifier(ctrl)
		opts.Notifier = f.notifier
	}
	f.svc = MustNewQueueService(opts)
	return f
}

func submissionRequest() *model.CreateSubmissionRequest {
	return &model.CreateSubmissionRequest{
		CourseID: "basicprogramming",
		SlideID:  testSlideID,
		UserID:   "user-1",
		Code:     "class P {}",
		Language: "CSharp",
		Sandbox:  "csharp",
	}
}

func doneSubmission(id int64) *model.Submission {
	sub := testSubmission(id)
	sub.Job = testJob(id, model.JobStatusDone)
	sub.IsRightAnswer = true
	return sub
}

func waitingSubmission(id int64) *model.Submission {
	sub := testSubmission(id)
	sub.Job = testJob(id, model.JobStatusWaiting)
	return sub
}

func TestNewQueueService_RequiredDeps(t *testing.T) {
	_, err := NewQueueService(QueueServiceOptions{})
	require.Error(t, err)
	assert.Panics(t, func() { MustNewQueueService(QueueServiceOptions{}) })
}

func TestQueueService_SubmitWithoutWaiting(t *testing.T) {
	f := newQueueFixture(t, false)

	f.catalog.EXPECT().FindExercise("basicprogramming", testSlideID).Return(nil, false)
	f.repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateSubmissionRequest) (*model.Submission, *model.CheckingJob, error) {
			assert.True(t, req.RequiresChecking, "C# submissions are always checked")
			assert.Equal(t, model.LanguageCSharp, req.Language)
			return testSubmission(1), testJob(1, model.JobStatusWaiting), nil
		})

	sub, err := f.svc.SubmitAndOptionallyWait(context.Background(), submissionRequest(), time.Second, false)
	require.NoError(t, err)
	require.NotNil(t, sub.Job)
	assert.Equal(t, model.JobStatusWaiting, sub.Job.Status)
	assert.Equal(t, []int64{1}, f.tracker.ListPending(), "queued work is visible to idle agents")
	assert.True(t, f.tracker.WaitAnyPending(context.Background(), 100*time.Millisecond))
}

func TestQueueService_SubmitWithoutCheckingReturnsImmediately(t *testing.T) {
	f := newQueueFixture(t, false)
	req := submissionRequest()
	req.Language = model.LanguageHTML

	f.catalog.EXPECT().FindExercise(gomock.Any(), gomock.Any()).Return(nil, false)
	f.repo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateSubmissionRequest) (*model.Submission, *model.CheckingJob, error) {
			assert.False(t, req.RequiresChecking)
			sub := testSubmission(2)
			sub.IsRightAnswer = true
			return sub, nil, nil
		})

	start := time.Now()
	sub, err := f.svc.SubmitAndOptionallyWait(context.Background(), req, time.Minute, true)
	require.NoError(t, err)
	assert.Nil(t, sub.Job)
	assert.Less(t, time.Since(start), time.Second)
}

func TestQueueService_SubmitCreateError(t *testing.T) {
	f := newQueueFixture(t, false)
	boom := errors.New("insert failed")

	f.catalog.EXPECT().FindExercise(gomock.Any(), gomock.Any()).Return(nil, false)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, nil, boom)

	_, err := f.svc.SubmitAndOptionallyWait(context.Background(), submissionRequest(), time.Second, true)
	require.ErrorIs(t, err, boom)
}

func TestQueueService_SubmitAndWaitReturnsCheckedSubmission(t *testing.T) {
	f := newQueueFixture(t, false)

	f.catalog.EXPECT().FindExercise(gomock.Any(), gomock.Any()).Return(nil, false)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(testSubmission(3), testJob(3, model.JobStatusWaiting), nil)
	f.repo.EXPECT().FindSubmission(gomock.Any(), int64(3), true).Return(doneSubmission(3), nil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.tracker.MarkHandled(3)
	}()

	sub, err := f.svc.SubmitAndOptionallyWait(context.Background(), submissionRequest(), 5*time.Second, true)
	require.NoError(t, err)
	assert.True(t, sub.Job.IsDone())
	assert.True(t, sub.IsRightAnswer)
}

func TestQueueService_SubmitAndWaitTimesOut(t *testing.T) {
	f := newQueueFixture(t, false)

	f.catalog.EXPECT().FindExercise(gomock.Any(), gomock.Any()).Return(nil, false)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(testSubmission(4), testJob(4, model.JobStatusWaiting), nil)
	f.repo.EXPECT().FindSubmission(gomock.Any(), int64(4), true).
		DoAndReturn(func(context.Context, int64, bool) (*model.Submission, error) {
			return waitingSubmission(4), nil
		}).AnyTimes()

	timeout := 120 * time.Millisecond
	start := time.Now()
	_, err := f.svc.SubmitAndOptionallyWait(context.Background(), submissionRequest(), timeout, true)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, model.ErrSubmissionCheckingTimeout)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+50*time.Millisecond+500*time.Millisecond)
	assert.Empty(t, f.tracker.ListPending(), "stale interest must be forgotten")
}

func TestQueueService_SubmitAndWaitLookupFailed(t *testing.T) {
	f := newQueueFixture(t, false)

	f.catalog.EXPECT().FindExercise(gomock.Any(), gomock.Any()).Return(nil, false)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(testSubmission(5), testJob(5, model.JobStatusWaiting), nil)
	f.repo.EXPECT().FindSubmission(gomock.Any(), int64(5), true).Return(nil, model.ErrSubmissionNotFound).Times(DefaultLookupRetries)

	f.tracker.MarkHandled(5)
	_, err := f.svc.SubmitAndOptionallyWait(context.Background(), submissionRequest(), time.Second, true)
	require.ErrorIs(t, err, model.ErrSubmissionLookupFailed)
}

func TestQueueService_LookupRetrySucceeds(t *testing.T) {
	f := newQueueFixture(t, false)

	gomock.InOrder(
		f.repo.EXPECT().FindSubmission(gomock.Any(), int64(6), true).Return(nil, model.ErrSubmissionNotFound),
		f.repo.EXPECT().FindSubmission(gomock.Any(), int64(6), true).Return(doneSubmission(6), nil),
	)

	sub, err := f.svc.lookupWithRetry(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, int64(6), sub.ID)
}

func TestQueueService_WatchHandledAlreadyDone(t *testing.T) {
	f := newQueueFixture(t, false)
	f.repo.EXPECT().FindSubmission(gomock.Any(), int64(7), true).Return(doneSubmission(7), nil)

	sub, err := f.svc.WatchHandled(context.Background(), 7, time.Second)
	require.NoError(t, err)
	assert.True(t, sub.Job.IsDone())
}

func TestQueueService_WatchHandledTimeoutReturnsLatest(t *testing.T) {
	f := newQueueFixture(t, false)
	f.repo.EXPECT().FindSubmission(gomock.Any(), int64(8), true).
		DoAndReturn(func(context.Context, int64, bool) (*model.Submission, error) {
			return waitingSubmission(8), nil
		}).AnyTimes()

	sub, err := f.svc.WatchHandled(context.Background(), 8, 10*time.Millisecond)
	require.ErrorIs(t, err, model.ErrSubmissionCheckingTimeout)
	require.NotNil(t, sub)
	assert.Equal(t, model.JobStatusWaiting, sub.Job.Status)
}

func TestQueueService_WatchHandledRunningJobIsNotPending(t *testing.T) {
	f := newQueueFixture(t, false)

	var handled atomic.Bool
	f.repo.EXPECT().FindSubmission(gomock.Any(), int64(14), true).
		DoAndReturn(func(context.Context, int64, bool) (*model.Submission, error) {
			if handled.Load() {
				return doneSubmission(14), nil
			}
			sub := testSubmission(14)
			sub.Job = testJob(14, model.JobStatusRunning)
			return sub, nil
		}).AnyTimes()

	done := make(chan *model.Submission, 1)
	go func() {
		sub, err := f.svc.WatchHandled(context.Background(), 14, 5*time.Second)
		assert.NoError(t, err)
		done <- sub
	}()

	assert.Never(t, func() bool { return len(f.tracker.ListPending()) > 0 }, 80*time.Millisecond, 5*time.Millisecond)

	handled.Store(true)
	f.tracker.MarkHandled(14)
	select {
	case sub := <-done:
		require.NotNil(t, sub)
		assert.True(t, sub.Job.IsDone())
	case <-time.After(2 * time.Second):
		t.Fatal("watcher was not woken")
	}
}

func TestQueueService_ClaimNextSwallowsErrors(t *testing.T) {
	f := newQueueFixture(t, false)
	f.repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	assert.Nil(t, f.svc.ClaimNext(context.Background(), "agent", []string{"csharp"}))
}

func expectSuccessfulClaim(repo *mocks.MockSubmissionRepository, id int64) {
	repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return([]int64{id}, nil)
	repo.EXPECT().FindSubmission(gomock.Any(), id, true).Return(testSubmission(id), nil)
	expectTx(repo)
	repo.EXPECT().FindBySubmissionInTx(gomock.Any(), gomock.Any(), id).Return(testJob(id, model.JobStatusWaiting), nil)
	repo.EXPECT().MarkRunning(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)
}

func TestQueueService_ClaimNextWaitWakesOnNotification(t *testing.T) {
	f := newQueueFixture(t, true)

	wake := make(chan struct{}, 1)
	unsubscribed := false
	f.notifier.EXPECT().Subscribe([]string{"csharp"}).Return(func() { unsubscribed = true }, (<-chan struct{})(wake))

	gomock.InOrder(
		f.repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil),
		f.repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return([]int64{9}, nil),
	)
	f.repo.EXPECT().FindSubmission(gomock.Any(), int64(9), true).Return(testSubmission(9), nil)
	expectTx(f.repo)
	f.repo.EXPECT().FindBySubmissionInTx(gomock.Any(), gomock.Any(), int64(9)).Return(testJob(9, model.JobStatusWaiting), nil)
	f.repo.EXPECT().MarkRunning(gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil)

	wake <- struct{}{}
	claimed := f.svc.ClaimNextWait(context.Background(), "agent", []string{"csharp"}, 10*time.Second)
	require.NotNil(t, claimed)
	assert.Equal(t, int64(9), claimed.Claim.SubmissionID)
	assert.True(t, unsubscribed)
}

func TestQueueService_ClaimNextWaitGivesUp(t *testing.T) {
	f := newQueueFixture(t, false)
	f.repo.EXPECT().FindEligibleForClaim(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).MinTimes(1)

	start := time.Now()
	claimed := f.svc.ClaimNextWait(context.Background(), "agent", []string{"csharp"}, 60*time.Millisecond)
	assert.Nil(t, claimed)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)
}

func TestQueueService_ClaimNextWaitImmediateHit(t *testing.T) {
	f := newQueueFixture(t, true)
	expectSuccessfulClaim(f.repo, 11)

	claimed := f.svc.ClaimNextWait(context.Background(), "agent", []string{"csharp"}, time.Minute)
	require.NotNil(t, claimed)
}

func TestQueueService_FinalizeBatch(t *testing.T) {
	f := newQueueFixture(t, false)

	f.repo.EXPECT().FindSubmission(gomock.Any(), int64(12), false).Return(nil, model.ErrSubmissionNotFound)
	f.repo.EXPECT().FindSubmission(gomock.Any(), int64(13), false).Return(testSubmission(13), nil)
	f.catalog.EXPECT().FindExercise(gomock.Any(), gomock.Any()).Return(nil, false)
	expectTx(f.repo)
	f.repo.EXPECT().FindBySubmissionInTx(gomock.Any(), gomock.Any(), int64(13)).Return(testJob(13, model.JobStatusRunning), nil)
	f.texts.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return("", nil).Times(2)
	f.repo.EXPECT().
		RecordResult(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *sql.Tx, p core.RecordResultParams) (bool, error) {
			assert.Equal(t, int64(13), p.SubmissionID)
			return true, nil
		})

	err := f.svc.FinalizeBatch(context.Background(), []model.RunningResult{
		{SubmissionID: 12, Verdict: model.VerdictOk},
		{SubmissionID: 0, Verdict: model.VerdictOk},
		{SubmissionID: 13, Verdict: model.VerdictRuntimeError, Error: "boom"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result 1")
	assert.True(t, f.tracker.WaitForHandled(context.Background(), 13, 0))
}

func TestQueueService_StatsIncludesPending(t *testing.T) {
	f := newQueueFixture(t, false)
	f.repo.EXPECT().Stats(gomock.Any()).Return(&model.QueueStats{Waiting: 2, Running: 1, Done: 5}, nil)
	f.tracker.RegisterInterest(1)
	f.tracker.RegisterInterest(2)

	stats, err := f.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Waiting)
	assert.Equal(t, 2, stats.PendingRendezvous)
	assert.Equal(t, []int64{1, 2}, f.svc.ListPending())
}

func TestQueueService_MarkHandledRemoteWakesWaiter(t *testing.T) {
	f := newQueueFixture(t, false)
	f.tracker.RegisterInterest(21)

	f.svc.MarkHandledRemote(21)
	assert.True(t, f.tracker.WaitForHandled(context.Background(), 21, 0))
}
