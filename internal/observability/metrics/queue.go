// Package metrics emits the queue's StatsD metrics with consistent names and tags.
package metrics

import (
	"time"

	obserrors "github.com/target/checkqueue/internal/observability/errors"
	"github.com/target/checkqueue/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Transition names used for the queue.transition counter.
const (
	TransitionSubmit   = "submit"
	TransitionClaim    = "claim"
	TransitionFinalize = "finalize"
	TransitionWait     = "wait"
)

// QueueMetric captures one step of a submission through the queue.
type QueueMetric struct {
	Transition string
	Result     string
	Sandbox    string
	Duration   time.Duration
	Err        error
}

// EmitQueueTransition emits the queue.transition counter and, when a duration
// is known, the queue.duration timer.
func EmitQueueTransition(sink statsd.Sink, in QueueMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Sandbox != "" {
		tags["sandbox"] = in.Sandbox
	}

	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("queue.transition", 1, tags)

	if in.Duration > 0 {
		sink.Timing("queue.duration", in.Duration, CloneTags(tags))
	}
}

// QueueGauges is a point-in-time snapshot published by the sweeper.
type QueueGauges struct {
	Waiting      int
	Running      int
	StaleRunning int
	Pending      int
}

// EmitQueueGauges publishes the sweeper's gauges.
func EmitQueueGauges(sink statsd.Sink, g QueueGauges) {
	if sink == nil {
		return
	}
	sink.Gauge("queue.waiting", float64(g.Waiting), nil)
	sink.Gauge("queue.running", float64(g.Running), nil)
	sink.Gauge("queue.running_stale", float64(g.StaleRunning), nil)
	sink.Gauge("rendezvous.pending", float64(g.Pending), nil)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
