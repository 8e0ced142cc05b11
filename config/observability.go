package config

import (
	"strings"
	"time"
)

const (
	defaultMetricsPrefix        = "checkqueue"
	defaultMetricsFlushInterval = time.Second
	defaultMetricsPacketSize    = 1432
	maxMetricsPacketSize        = 65000
)

// ObservabilityConfig groups configuration that controls metrics.
type ObservabilityConfig struct {
	Metrics ObservabilityMetricsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
}

// ObservabilityMetricsConfig controls emission of metrics to external sinks such as StatsD.
type ObservabilityMetricsConfig struct {
	Enabled       bool   `env:"OBSERVABILITY_METRICS_ENABLED"        envDefault:"false"`
	StatsdAddress string `env:"OBSERVABILITY_METRICS_STATSD_ADDRESS" envDefault:"127.0.0.1:8125"`
	Prefix        string `env:"OBSERVABILITY_METRICS_PREFIX"         envDefault:"checkqueue"`
	// Tags are attached to every metric, e.g. "env:prod,region:eu".
	Tags map[string]string `env:"OBSERVABILITY_METRICS_TAGS" envKeyValSeparator:":"`
	// FlushInterval bounds how long a buffered line waits before it is sent.
	FlushInterval time.Duration `env:"OBSERVABILITY_METRICS_FLUSH_INTERVAL" envDefault:"1s"`
	// MaxPacketSize is the largest UDP payload the client builds.
	MaxPacketSize int `env:"OBSERVABILITY_METRICS_MAX_PACKET_SIZE" envDefault:"1432"`
}

// Sanitize normalises derived fields and enforces safe defaults.
func (c *ObservabilityMetricsConfig) Sanitize() {
	c.StatsdAddress = strings.TrimSpace(c.StatsdAddress)
	if c.StatsdAddress == "" {
		c.Enabled = false
	}
	if c.Prefix = strings.TrimSpace(c.Prefix); c.Prefix == "" {
		c.Prefix = defaultMetricsPrefix
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = defaultMetricsFlushInterval
	}
	if c.MaxPacketSize <= 0 {
		c.MaxPacketSize = defaultMetricsPacketSize
	}
	c.MaxPacketSize = min(c.MaxPacketSize, maxMetricsPacketSize)
}

// IsEnabled returns true when metrics emission is active after sanitisation.
func (c *ObservabilityMetricsConfig) IsEnabled() bool {
	return c.Enabled && c.StatsdAddress != ""
}
