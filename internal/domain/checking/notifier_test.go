package checking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubWaiter struct {
	payloads chan string
	err      error
}

func (s *stubWaiter) WaitForNotification(ctx context.Context) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case p := <-s.payloads:
		return p, nil
	}
}

func TestNewNotifierRequiresWaiter(t *testing.T) {
	n, err := NewNotifier(NotifierOptions{})
	require.ErrorIs(t, err, ErrWaiterRequired)
	assert.Nil(t, n)
}

func TestNotifier_DeliversMatchingSandbox(t *testing.T) {
	waiter := &stubWaiter{payloads: make(chan string, 4)}
	n, err := NewNotifier(NotifierOptions{Waiter: waiter})
	require.NoError(t, err)
	defer n.StopAll()

	unsubPy, pyCh := n.Subscribe([]string{"python"})
	defer unsubPy()
	unsubCs, csCh := n.Subscribe([]string{"csharp"})
	defer unsubCs()

	waiter.payloads <- "python"

	select {
	case <-pyCh:
	case <-time.After(time.Second):
		t.Fatal("expected python subscriber to be notified")
	}

	select {
	case <-csCh:
		t.Fatal("csharp subscriber must not be notified")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifier_EmptySubscriptionMatchesAll(t *testing.T) {
	waiter := &stubWaiter{payloads: make(chan string, 1)}
	n, err := NewNotifier(NotifierOptions{Waiter: waiter})
	require.NoError(t, err)
	defer n.StopAll()

	unsub, ch := n.Subscribe(nil)
	defer unsub()

	waiter.payloads <- "anything"

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected notification")
	}
}

func TestNotifier_UnsubscribeClosesChannel(t *testing.T) {
	waiter := &stubWaiter{payloads: make(chan string)}
	n, err := NewNotifier(NotifierOptions{Waiter: waiter})
	require.NoError(t, err)

	unsub, ch := n.Subscribe([]string{"python"})
	unsub()
	unsub()

	_, open := <-ch
	assert.False(t, open)
}

func TestNotifier_WaiterErrorWakesSubscribers(t *testing.T) {
	waiter := &stubWaiter{err: errors.New("connection lost")}
	n, err := NewNotifier(NotifierOptions{Waiter: waiter, Backoff: 10 * time.Millisecond})
	require.NoError(t, err)
	defer n.StopAll()

	unsub, ch := n.Subscribe([]string{"python"})
	defer unsub()

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected wake-up after waiter error")
	}
}

func TestNotifier_StopAllClosesSubscriptions(t *testing.T) {
	waiter := &stubWaiter{payloads: make(chan string)}
	n, err := NewNotifier(NotifierOptions{Waiter: waiter})
	require.NoError(t, err)

	_, ch := n.Subscribe(nil)
	n.StopAll()

	_, open := <-ch
	assert.False(t, open)
}
