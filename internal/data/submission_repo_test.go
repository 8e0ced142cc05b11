package data

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/target/checkqueue/internal/core"
	"github.com/target/checkqueue/internal/domain/model"
	"github.com/target/checkqueue/internal/testutil"
)

func newTestSubmissionRepo(t *testing.T) *SubmissionRepo {
	t.Helper()
	db, _ := testutil.SetupTestDB(t)
	return NewSubmissionRepo(db, RepoConfig{})
}

func claimJob(ctx context.Context, t *testing.T, repo *SubmissionRepo, submissionID int64, agent string) bool {
	t.Helper()
	var claimed bool
	err := repo.WithTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead}, func(tx *sql.Tx) error {
		job, err := repo.FindBySubmissionInTx(ctx, tx, submissionID)
		if err != nil {
			return err
		}
		if job.Status != model.JobStatusWaiting {
			return nil
		}
		claimed, err = repo.MarkRunning(ctx, tx, core.MarkRunningParams{JobID: job.ID, AgentName: agent, At: time.Now()})
		return err
	})
	if err != nil {
		return false
	}
	return claimed
}

func TestSubmissionRepo_CreateWithJob(t *testing.T) {
	repo := newTestSubmissionRepo(t)
	ctx := context.Background()

	req := testutil.NewSubmissionRequest().WithCode("   ").WithCompilationError("CS1002: ; expected").Build()
	sub, job, err := repo.Create(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, job)

	assert.Positive(t, sub.ID)
	assert.Equal(t, model.EmptyCodePlaceholder, sub.Code)
	assert.False(t, sub.IsRightAnswer)
	assert.Equal(t, sub.ID, job.SubmissionID)
	assert.Equal(t, model.JobStatusWaiting, job.Status)
	assert.True(t, job.IsCompilationError)

	found, err := repo.FindSubmission(ctx, sub.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.EmptyCodePlaceholder, found.Code)
	require.NotNil(t, found.Job)
	assert.Equal(t, "CS1002: ; expected", found.Job.CompilationError)
}

func TestSubmissionRepo_CreateWithoutChecking(t *testing.T) {
	repo := newTestSubmissionRepo(t)
	ctx := context.Background()

	sub, job, err := repo.Create(ctx, testutil.NewSubmissionRequest().WithoutChecking().Build())
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.True(t, sub.IsRightAnswer)

	_, err = repo.FindBySubmission(ctx, sub.ID)
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestSubmissionRepo_CreateValidation(t *testing.T) {
	repo := newTestSubmissionRepo(t)

	_, _, err := repo.Create(context.Background(), testutil.NewSubmissionRequest().WithSandbox("").Build())
	require.Error(t, err)
}

func TestSubmissionRepo_FindEligibleForClaim(t *testing.T) {
	repo := newTestSubmissionRepo(t)
	ctx := context.Background()

	a, _, err := repo.Create(ctx, testutil.NewSubmissionRequest().Build())
	require.NoError(t, err)
	b, _, err := repo.Create(ctx, testutil.NewSubmissionRequest().Build())
	require.NoError(t, err)
	_, _, err = repo.Create(ctx, testutil.NewSubmissionRequest().WithSandbox("python").Build())
	require.NoError(t, err)

	ids, err := repo.FindEligibleForClaim(ctx, []string{"csharp"}, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID}, ids)

	ids, err = repo.FindEligibleForClaim(ctx, []string{"csharp"}, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, ids, "submissions outside the recency window are not eligible")

	ids, err = repo.FindEligibleForClaim(ctx, nil, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.True(t, claimJob(ctx, t, repo, b.ID, "agent-1"))
	ids, err = repo.FindEligibleForClaim(ctx, []string{"csharp"}, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID}, ids)
}

func TestSubmissionRepo_StateMachine(t *testing.T) {
	repo := newTestSubmissionRepo(t)
	ctx := context.Background()

	sub, job, err := repo.Create(ctx, testutil.NewSubmissionRequest().Build())
	require.NoError(t, err)

	record := func() bool {
		var applied bool
		err := repo.WithTx(ctx, nil, func(tx *sql.Tx) error {
			var err error
			applied, err = repo.RecordResult(ctx, tx, core.RecordResultParams{
				JobID:        job.ID,
				SubmissionID: sub.ID,
				Result:       model.CheckingResult{Verdict: model.VerdictOk, IsRightAnswer: true, Score: 5},
				Elapsed:      1500 * time.Millisecond,
			})
			return err
		})
		require.NoError(t, err)
		return applied
	}

	assert.False(t, record(), "a waiting job cannot be finalized")

	require.True(t, claimJob(ctx, t, repo, sub.ID, "agent-1"))
	assert.False(t, claimJob(ctx, t, repo, sub.ID, "agent-2"), "a running job cannot be claimed again")

	running, err := repo.Find(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusRunning, running.Status)
	require.NotNil(t, running.AgentName)
	assert.Equal(t, "agent-1", *running.AgentName)

	assert.True(t, record())
	assert.False(t, record(), "finalize is applied once")

	done, err := repo.FindSubmission(ctx, sub.ID, false)
	require.NoError(t, err)
	assert.True(t, done.IsRightAnswer)
	require.NotNil(t, done.Job)
	assert.Equal(t, model.JobStatusDone, done.Job.Status)
	assert.Equal(t, 5, done.Job.Score)
	require.NotNil(t, done.Job.Elapsed)
	assert.Equal(t, 1500*time.Millisecond, *done.Job.Elapsed)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.QueueStats{Done: 1}, *stats)
}

func TestSubmissionRepo_ConcurrentClaimsSingleWinner(t *testing.T) {
	repo := newTestSubmissionRepo(t)
	ctx := context.Background()

	sub, _, err := repo.Create(ctx, testutil.NewSubmissionRequest().Build())
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		winners int
		g       errgroup.Group
	)
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			if claimJob(ctx, t, repo, sub.ID, "agent") {
				mu.Lock()
				winners++
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	assert.Equal(t, 1, winners)
}

func TestSubmissionRepo_FindSubmissionMissing(t *testing.T) {
	repo := newTestSubmissionRepo(t)

	_, err := repo.FindSubmission(context.Background(), 9999, true)
	require.ErrorIs(t, err, model.ErrSubmissionNotFound)
}

func TestSubmissionRepo_CountStaleRunningAndListWaiting(t *testing.T) {
	repo := newTestSubmissionRepo(t)
	ctx := context.Background()

	a, _, err := repo.Create(ctx, testutil.NewSubmissionRequest().Build())
	require.NoError(t, err)
	b, _, err := repo.Create(ctx, testutil.NewSubmissionRequest().Build())
	require.NoError(t, err)
	require.True(t, claimJob(ctx, t, repo, a.ID, "agent-1"))

	n, err := repo.CountStaleRunning(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.CountStaleRunning(ctx, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)

	waiting, err := repo.ListWaiting(ctx, 10)
	require.NoError(t, err)
	require.Len(t, waiting, 1)
	assert.Equal(t, b.ID, waiting[0].SubmissionID)
}

func TestSubmissionRepo_WaitForNotification(t *testing.T) {
	repo := newTestSubmissionRepo(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		sandbox, err := repo.WaitForNotification(ctx)
		if err != nil {
			errCh <- err
			return
		}
		got <- sandbox
	}()

	// Keep creating until the listener is attached and observes one.
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case sandbox := <-got:
			assert.Equal(t, "python", sandbox)
			return
		case err := <-errCh:
			t.Fatalf("wait for notification: %v", err)
		case <-ticker.C:
			_, _, err := repo.Create(ctx, testutil.NewSubmissionRequest().WithSandbox("python").Build())
			require.NoError(t, err)
		case <-ctx.Done():
			t.Fatal("no notification received")
		}
	}
}
