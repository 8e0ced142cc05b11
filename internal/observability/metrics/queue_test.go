package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/checkqueue/internal/domain/model"
	"github.com/target/checkqueue/internal/observability/statsd"
)

func TestEmitQueueTransition(t *testing.T) {
	rec := &statsd.Recorder{}

	EmitQueueTransition(rec, QueueMetric{
		Transition: TransitionClaim,
		Result:     ResultSuccess,
		Sandbox:    "python",
		Duration:   20 * time.Millisecond,
	})

	counts := rec.Find("queue.transition")
	require.Len(t, counts, 1)
	assert.Equal(t, map[string]string{"transition": "claim", "result": "success", "sandbox": "python"}, counts[0].Tags)

	timings := rec.Find("queue.duration")
	require.Len(t, timings, 1)
	assert.InDelta(t, 20.0, timings[0].Value, 0.001)
}

func TestEmitQueueTransition_ErrorClass(t *testing.T) {
	rec := &statsd.Recorder{}

	EmitQueueTransition(rec, QueueMetric{
		Transition: TransitionWait,
		Result:     ResultError,
		Err:        model.ErrSubmissionCheckingTimeout,
	})
	EmitQueueTransition(rec, QueueMetric{
		Transition: TransitionFinalize,
		Result:     ResultNoop,
		Err:        errors.New("ignored for non-error results"),
	})

	counts := rec.Find("queue.transition")
	require.Len(t, counts, 2)
	assert.Equal(t, "checking_timeout", counts[0].Tags["error_class"])
	assert.NotContains(t, counts[1].Tags, "error_class")
	assert.NotContains(t, counts[1].Tags, "sandbox")
	assert.Empty(t, rec.Find("queue.duration"))
}

func TestEmitQueueGauges(t *testing.T) {
	rec := &statsd.Recorder{}
	EmitQueueGauges(rec, QueueGauges{Waiting: 4, Running: 2, StaleRunning: 1, Pending: 3})

	got := map[string]float64{}
	for _, s := range rec.Samples() {
		assert.Equal(t, "gauge", s.Kind)
		got[s.Name] = s.Value
	}
	assert.Equal(t, map[string]float64{
		"queue.waiting":       4,
		"queue.running":       2,
		"queue.running_stale": 1,
		"rendezvous.pending":  3,
	}, got)
}

func TestEmit_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		EmitQueueTransition(nil, QueueMetric{Transition: TransitionSubmit, Result: ResultSuccess})
		EmitQueueGauges(nil, QueueGauges{})
	})
}

func TestCloneTags(t *testing.T) {
	assert.Nil(t, CloneTags(nil))
	src := map[string]string{"a": "1"}
	cp := CloneTags(src)
	cp["a"] = "2"
	assert.Equal(t, "1", src["a"])
}
