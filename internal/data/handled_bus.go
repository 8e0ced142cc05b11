package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultHandledChannel is the Redis pub/sub channel carrying recorded verdicts.
const DefaultHandledChannel = "checkqueue:handled"

const (
	defaultResubscribeBackoff = time.Second
	maxResubscribeBackoff     = 30 * time.Second
)

// HandledBusOptions configures a HandledBus.
type HandledBusOptions struct {
	Client  redis.UniversalClient
	Channel string
	Logger  *slog.Logger
	// RetryBackoff is the first delay before resubscribing after a failure; it doubles up to 30s.
	RetryBackoff time.Duration
}

type handledMessage struct {
	SubmissionID int64  `json:"submission_id"`
	Instance     string `json:"instance"`
}

// HandledBus fans "verdict recorded" events out to every service process so a
// submitter waiting on one replica wakes when an agent reported to another.
type HandledBus struct {
	client   redis.UniversalClient
	channel  string
	instance string
	backoff  time.Duration
	logger   *slog.Logger
}

// NewHandledBus constructs a HandledBus with a fresh instance id.
func NewHandledBus(opts HandledBusOptions) (*HandledBus, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	channel := opts.Channel
	if channel == "" {
		channel = DefaultHandledChannel
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = defaultResubscribeBackoff
	}
	instance := uuid.NewString()
	return &HandledBus{
		client:   opts.Client,
		channel:  channel,
		instance: instance,
		backoff:  backoff,
		logger:   logger.With("component", "handled_bus", "instance", instance),
	}, nil
}

// Publish announces that submissionID has a recorded verdict.
func (b *HandledBus) Publish(ctx context.Context, submissionID int64) error {
	payload, err := json.Marshal(handledMessage{SubmissionID: submissionID, Instance: b.instance})
	if err != nil {
		return fmt.Errorf("encode handled message: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish handled message: %w", err)
	}
	return nil
}

// Run subscribes to the channel and calls onHandled for every message published
// by other instances until ctx is done. Subscription failures are logged and
// retried with backoff; local waiters still wake through polling meanwhile.
func (b *HandledBus) Run(ctx context.Context, onHandled func(submissionID int64)) error {
	backoff := b.backoff
	for ctx.Err() == nil {
		subscribed, err := b.listen(ctx, onHandled)
		if ctx.Err() != nil {
			return nil
		}
		if subscribed {
			backoff = b.backoff
		}
		b.logger.WarnContext(ctx, "handled subscription failed, retrying",
			"channel", b.channel,
			"error", err,
			"backoff", backoff)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
		backoff = min(backoff*2, maxResubscribeBackoff)
	}
	return nil
}

// listen runs one subscription. subscribed reports whether it got as far as
// receiving the confirmation.
func (b *HandledBus) listen(ctx context.Context, onHandled func(submissionID int64)) (subscribed bool, err error) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer func() {
		if closeErr := sub.Close(); closeErr != nil {
			b.logger.Debug("close handled subscription", "error", closeErr)
		}
	}()

	if _, err := sub.Receive(ctx); err != nil {
		return false, fmt.Errorf("subscribe %s: %w", b.channel, err)
	}
	b.logger.InfoContext(ctx, "listening for handled submissions", "channel", b.channel)

	msgs := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return true, nil
		case msg, ok := <-msgs:
			if !ok {
				return true, errors.New("subscription closed")
			}
			var m handledMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				b.logger.WarnContext(ctx, "invalid handled message", "payload", msg.Payload, "error", err)
				continue
			}
			if m.Instance == b.instance || m.SubmissionID <= 0 {
				continue
			}
			onHandled(m.SubmissionID)
		}
	}
}
