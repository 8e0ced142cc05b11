package config

import (
	"strings"
	"time"
)

// QueueConfig contains claim, rendezvous and wait timings.
type QueueConfig struct {
	// RecencyWindow limits claims to jobs created within this window.
	RecencyWindow time.Duration `env:"RECENCY_WINDOW" envDefault:"15m"`

	// GateTimeout is how long a claim waits for the process-wide claim gate.
	GateTimeout time.Duration `env:"GATE_TIMEOUT" envDefault:"2s"`

	// Retention bounds how long rendezvous entries are kept in memory.
	Retention time.Duration `env:"RETENTION" envDefault:"3m"`

	// PollInterval is the fallback polling period of rendezvous waits.
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"100ms"`

	// WaitSlice is the granularity of submitter waits.
	WaitSlice time.Duration `env:"WAIT_SLICE" envDefault:"5s"`

	// DefaultWait is used when a submitter asks to wait without a timeout.
	DefaultWait time.Duration `env:"DEFAULT_WAIT" envDefault:"30s"`

	// MaxWait caps the timeout a submitter may request.
	MaxWait time.Duration `env:"MAX_WAIT" envDefault:"2m"`
}

// Sanitize applies guardrails to queue configuration values.
func (q *QueueConfig) Sanitize() {
	if q.RecencyWindow < time.Minute {
		q.RecencyWindow = time.Minute
	}
	if q.GateTimeout <= 0 {
		q.GateTimeout = 2 * time.Second
	}
	if q.Retention < 10*time.Second {
		q.Retention = 10 * time.Second
	}
	if q.PollInterval < 10*time.Millisecond {
		q.PollInterval = 10 * time.Millisecond
	}
	if q.WaitSlice < q.PollInterval {
		q.WaitSlice = q.PollInterval
	}
	if q.MaxWait <= 0 {
		q.MaxWait = 2 * time.Minute
	}
	if q.DefaultWait <= 0 || q.DefaultWait > q.MaxWait {
		q.DefaultWait = q.MaxWait
	}
}

// ClampWait returns requested bounded by MaxWait, or DefaultWait when unset.
func (q *QueueConfig) ClampWait(requested time.Duration) time.Duration {
	if requested <= 0 {
		return q.DefaultWait
	}
	return min(requested, q.MaxWait)
}

// CoursesConfig locates the course manifests.
type CoursesConfig struct {
	Dir            string        `env:"DIR"             envDefault:"./courses"`
	Watch          bool          `env:"WATCH"           envDefault:"true"`
	ReloadDebounce time.Duration `env:"RELOAD_DEBOUNCE" envDefault:"250ms"`
}

// Sanitize applies guardrails to course catalog configuration values.
func (c *CoursesConfig) Sanitize() {
	c.Dir = strings.TrimSpace(c.Dir)
	if c.Dir == "" {
		c.Dir = "./courses"
	}
	if c.ReloadDebounce <= 0 {
		c.ReloadDebounce = 250 * time.Millisecond
	}
}
