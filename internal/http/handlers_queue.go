package httpx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/target/checkqueue/internal/domain/model"
)

// QueueInspector exposes read-only queue state.
type QueueInspector interface {
	ListPending() []int64
	Stats(ctx context.Context) (*model.QueueStats, error)
}

// QueueHandlers serves queue introspection endpoints.
type QueueHandlers struct {
	Queue  QueueInspector
	Logger *slog.Logger
}

// Pending lists submission ids whose submitters are waiting in this process.
func (h *QueueHandlers) Pending(w http.ResponseWriter, _ *http.Request) {
	pending := h.Queue.ListPending()
	if pending == nil {
		pending = []int64{}
	}
	WriteJSON(w, http.StatusOK, map[string][]int64{"pending": pending})
}

func (h *QueueHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Queue.Stats(r.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.ErrorContext(r.Context(), "queue stats failed", "error", err)
		}
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
