package config

import (
	"strings"
	"time"
)

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"ADDR" envDefault:":8080"`

	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"    envDefault:"15s"`

	// MaxBodyBytes bounds submission and result payloads.
	MaxBodyBytes int64 `env:"MAX_BODY_BYTES" envDefault:"4194304"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if strings.TrimSpace(h.Addr) == "" {
		h.Addr = ":8080"
	}
	if h.ReadHeaderTimeout <= 0 {
		h.ReadHeaderTimeout = 10 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 15 * time.Second
	}
	if h.MaxBodyBytes < 1024 {
		h.MaxBodyBytes = 1024
	}
}

// AgentConfig controls the checking-agent API.
type AgentConfig struct {
	// TokenHashes are bcrypt hashes of accepted bearer tokens, separated by ";".
	// Agent authentication is disabled when the list is empty.
	TokenHashes []string `env:"TOKEN_HASHES" envSeparator:";"`

	// MaxLongPoll caps the wait an agent may request on claim.
	MaxLongPoll time.Duration `env:"MAX_LONG_POLL" envDefault:"30s"`
}

// Sanitize applies guardrails to agent configuration values.
func (a *AgentConfig) Sanitize() {
	hashes := a.TokenHashes[:0]
	for _, h := range a.TokenHashes {
		if h = strings.TrimSpace(h); h != "" {
			hashes = append(hashes, h)
		}
	}
	a.TokenHashes = hashes

	if a.MaxLongPoll < 0 {
		a.MaxLongPoll = 0
	}
	if a.MaxLongPoll > 5*time.Minute {
		a.MaxLongPoll = 5 * time.Minute
	}
}

// AuthEnabled reports whether agent requests must carry a bearer token.
func (a *AgentConfig) AuthEnabled() bool {
	return len(a.TokenHashes) > 0
}
