package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

const (
	healthResponse     = `{"status":"ok"}`
	healthCheckTimeout = 2 * time.Second
)

// HealthCheck probes a dependency; a nil error means healthy.
type HealthCheck func(ctx context.Context) error

// HealthHandlers serves liveness and readiness.
type HealthHandlers struct {
	Checks map[string]HealthCheck
	Logger *slog.Logger
}

// Live returns a simple 200 OK status for liveness checks.
func (h *HealthHandlers) Live(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// Ready runs every registered check and reports 503 when any of them fails.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if len(h.Checks) == 0 {
		h.Live(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.Checks))
	for name := range h.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failures := map[string]string{}
	for _, name := range names {
		if err := h.Checks[name](ctx); err != nil {
			failures[name] = err.Error()
			if h.Logger != nil {
				h.Logger.Warn("readiness check failed", "check", name, "error", err)
			}
		}
	}

	if len(failures) == 0 {
		h.Live(w, r)
		return
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failures": failures})
}
