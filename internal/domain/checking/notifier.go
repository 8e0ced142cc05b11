package checking

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrWaiterRequired indicates a notifier cannot be constructed without a waiter.
var ErrWaiterRequired = errors.New("notifier waiter is required")

// Waiter blocks until a new waiting job is announced and returns the sandbox it was announced for.
type Waiter interface {
	WaitForNotification(ctx context.Context) (string, error)
}

// NotifierOptions configure the behaviour of the notifier.
type NotifierOptions struct {
	Waiter     Waiter
	WaitWindow time.Duration
	Backoff    time.Duration
}

// Notifier fans out "a job is waiting" announcements to agents that are
// long-polling for work in particular sandboxes. A single listener goroutine
// runs while at least one subscription exists.
type Notifier struct {
	waiter     Waiter
	waitWindow time.Duration
	backoff    time.Duration

	mu       sync.Mutex
	subs     map[chan struct{}]map[string]struct{}
	cancel   context.CancelFunc
	stopping bool
}

// NewNotifier constructs a Notifier.
func NewNotifier(opts NotifierOptions) (*Notifier, error) {
	if opts.Waiter == nil {
		return nil, ErrWaiterRequired
	}

	waitWindow := opts.WaitWindow
	if waitWindow <= 0 {
		waitWindow = 30 * time.Second
	}

	backoff := opts.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}

	return &Notifier{
		waiter:     opts.Waiter,
		waitWindow: waitWindow,
		backoff:    backoff,
		subs:       make(map[chan struct{}]map[string]struct{}),
	}, nil
}

// Subscribe returns a channel that receives a token whenever a job for one of
// sandboxes is announced. An empty sandbox list matches every announcement.
func (n *Notifier) Subscribe(sandboxes []string) (func(), <-chan struct{}) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.cancel == nil && !n.stopping {
		ctx, cancel := context.WithCancel(context.Background())
		n.cancel = cancel
		go n.listenLoop(ctx)
	}

	set := make(map[string]struct{}, len(sandboxes))
	for _, s := range sandboxes {
		set[s] = struct{}{}
	}

	ch := make(chan struct{}, 1)
	n.subs[ch] = set

	unsub := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[ch]; !ok {
			return
		}
		delete(n.subs, ch)
		drainAndClose(ch)
		if len(n.subs) == 0 && n.cancel != nil {
			n.cancel()
			n.cancel = nil
		}
	}

	return unsub, ch
}

// StopAll closes every subscription and stops the listener.
func (n *Notifier) StopAll() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.stopping = true
	if n.cancel != nil {
		n.cancel()
		n.cancel = nil
	}
	for ch := range n.subs {
		drainAndClose(ch)
		delete(n.subs, ch)
	}
}

func (n *Notifier) listenLoop(ctx context.Context) {
	for ctx.Err() == nil {
		waitCtx, cancel := context.WithTimeout(ctx, n.waitWindow)
		sandbox, err := n.waiter.WaitForNotification(waitCtx)
		cancel()

		if err != nil {
			// Wake everyone so missed announcements are retried by a claim attempt.
			n.broadcast("")
			if ctx.Err() != nil {
				return
			}
			timer := time.NewTimer(n.backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			continue
		}

		n.broadcast(sandbox)
	}
}

func (n *Notifier) broadcast(sandbox string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch, set := range n.subs {
		if sandbox != "" && len(set) > 0 {
			if _, ok := set[sandbox]; !ok {
				continue
			}
		}
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// drainAndClose removes any buffered notifications before closing the channel so
// receivers observe a closed channel immediately.
func drainAndClose(ch chan struct{}) {
	for {
		select {
		case <-ch:
		default:
			close(ch)
			return
		}
	}
}
