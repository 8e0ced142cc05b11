package checking

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Default tracker timings.
const (
	DefaultRetention    = 3 * time.Minute
	DefaultPollInterval = 100 * time.Millisecond
	minSweepGap         = time.Second
)

// TrackerOptions configures a Tracker.
type TrackerOptions struct {
	// Retention bounds how long pending and handled entries are kept.
	Retention time.Duration
	// PollInterval is the fallback polling period of the wait loops.
	PollInterval time.Duration
	// Now overrides the clock used for entry timestamps.
	Now    func() time.Time
	Logger *slog.Logger
}

// Tracker is the in-memory rendezvous between submitters waiting for a verdict
// and the recorder that stores it. All state lives in concurrent maps; there is
// no tracker-wide lock.
type Tracker struct {
	pending sync.Map // int64 -> time.Time
	handled sync.Map // int64 -> time.Time
	signals sync.Map // int64 -> *handledSignal

	retention    time.Duration
	pollInterval time.Duration
	now          func() time.Time
	lastSweep    atomic.Int64
	logger       *slog.Logger
}

type handledSignal struct {
	created time.Time
	ch      chan struct{}
	once    sync.Once
}

func (s *handledSignal) fire() {
	s.once.Do(func() { close(s.ch) })
}

// NewTracker constructs a Tracker. One tracker is created per service process.
func NewTracker(opts TrackerOptions) *Tracker {
	retention := opts.Retention
	if retention <= 0 {
		retention = DefaultRetention
	}
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "rendezvous")
	}

	return &Tracker{
		retention:    retention,
		pollInterval: poll,
		now:          now,
		logger:       logger,
	}
}

// RegisterInterest records that someone is waiting for submissionID.
// An existing entry keeps its original timestamp.
func (t *Tracker) RegisterInterest(submissionID int64) {
	t.maybeSweep()
	t.pending.LoadOrStore(submissionID, t.now())
}

// Forget drops a pending interest, e.g. after the submitter gave up waiting.
func (t *Tracker) Forget(submissionID int64) {
	t.pending.Delete(submissionID)
	t.maybeSweep()
}

// Claimed drops the pending entry once an agent took the job.
func (t *Tracker) Claimed(submissionID int64) {
	t.pending.Delete(submissionID)
}

// MarkHandled records that a verdict for submissionID is stored and wakes waiters.
func (t *Tracker) MarkHandled(submissionID int64) {
	t.maybeSweep()
	t.pending.Delete(submissionID)
	t.handled.Store(submissionID, t.now())
	if sig, ok := t.signals.LoadAndDelete(submissionID); ok {
		sig.(*handledSignal).fire()
	}
	if t.logger != nil {
		t.logger.Debug("submission marked handled", "submission_id", submissionID)
	}
}

// WaitForHandled blocks until submissionID is marked handled, the timeout
// elapses, or ctx is done. A successful wait consumes the handled entry.
func (t *Tracker) WaitForHandled(ctx context.Context, submissionID int64, timeout time.Duration) bool {
	if t.takeHandled(submissionID) {
		return true
	}
	if timeout <= 0 {
		return false
	}

	sig := t.signalFor(submissionID)
	defer func() { t.signals.CompareAndDelete(submissionID, sig) }()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return t.takeHandled(submissionID)
		case <-sig.ch:
			if t.takeHandled(submissionID) {
				return true
			}
			// Another waiter consumed the entry; keep polling until our timeout.
			sig = t.signalFor(submissionID)
		case <-ticker.C:
			if t.takeHandled(submissionID) {
				return true
			}
		}
	}
}

// WaitAnyPending blocks until at least one submission is pending, the timeout
// elapses, or ctx is done. Agents use it to decide when to retry claiming.
func (t *Tracker) WaitAnyPending(ctx context.Context, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		if len(t.ListPending()) > 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-ticker.C:
		}
	}
}

// ListPending returns the ids with registered, not yet handled interest, in ascending order.
func (t *Tracker) ListPending() []int64 {
	t.maybeSweep()
	cutoff := t.now().Add(-t.retention)

	var ids []int64
	t.pending.Range(func(key, value any) bool {
		if !value.(time.Time).Before(cutoff) {
			ids = append(ids, key.(int64))
		}
		return true
	})
	slices.Sort(ids)
	return ids
}

// Sweep drops entries older than the retention window from both maps.
func (t *Tracker) Sweep() (pendingDropped, handledDropped int) {
	now := t.now()
	t.lastSweep.Store(now.UnixNano())
	cutoff := now.Add(-t.retention)

	pendingDropped = sweepMap(&t.pending, cutoff)
	handledDropped = sweepMap(&t.handled, cutoff)
	t.signals.Range(func(key, value any) bool {
		if value.(*handledSignal).created.Before(cutoff) {
			t.signals.CompareAndDelete(key, value)
		}
		return true
	})

	if t.logger != nil && (pendingDropped > 0 || handledDropped > 0) {
		t.logger.Debug("rendezvous entries expired",
			"pending_dropped", pendingDropped,
			"handled_dropped", handledDropped,
		)
	}
	return pendingDropped, handledDropped
}

// Retention returns the configured retention window.
func (t *Tracker) Retention() time.Duration {
	return t.retention
}

func (t *Tracker) maybeSweep() {
	last := t.lastSweep.Load()
	if t.now().UnixNano()-last < int64(minSweepGap) {
		return
	}
	t.Sweep()
}

func (t *Tracker) takeHandled(submissionID int64) bool {
	_, ok := t.handled.LoadAndDelete(submissionID)
	return ok
}

func (t *Tracker) signalFor(submissionID int64) *handledSignal {
	fresh := &handledSignal{created: t.now(), ch: make(chan struct{})}
	actual, _ := t.signals.LoadOrStore(submissionID, fresh)
	return actual.(*handledSignal)
}

func sweepMap(m *sync.Map, cutoff time.Time) int {
	dropped := 0
	m.Range(func(key, value any) bool {
		if value.(time.Time).Before(cutoff) {
			if m.CompareAndDelete(key, value) {
				dropped++
			}
		}
		return true
	})
	return dropped
}
