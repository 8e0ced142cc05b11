package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/target/checkqueue/internal/domain/model"
)

// AgentQueue is the part of the queue used by checking agents.
type AgentQueue interface {
	ClaimNextWait(ctx context.Context, agentName string, sandboxes []string, wait time.Duration) *model.ClaimedSubmission
	FinalizeBatch(ctx context.Context, results []model.RunningResult) error
}

// AgentHandlers serves the checking-agent protocol.
type AgentHandlers struct {
	Queue       AgentQueue
	MaxLongPoll time.Duration
	Logger      *slog.Logger
}

// Claim hands the agent the newest eligible submission, long-polling up to
// ?wait= seconds (capped by MaxLongPoll). It answers 204 when nothing was claimed.
func (h *AgentHandlers) Claim(w http.ResponseWriter, r *http.Request) {
	agent := strings.TrimSpace(r.URL.Query().Get("agent"))
	if agent == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "agent_required", Err: errors.New("agent is required")})
		return
	}
	sandboxes := parseListQuery(r, "sandbox")
	if len(sandboxes) == 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "sandbox_required",
			Err:     errors.New("at least one sandbox is required"),
		})
		return
	}

	wait := time.Duration(max(parseIntQuery(r, "wait", 0), 0)) * time.Second
	wait = min(wait, h.MaxLongPoll)

	claimed := h.Queue.ClaimNextWait(r.Context(), agent, sandboxes, wait)
	if claimed == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if h.Logger != nil {
		h.Logger.InfoContext(r.Context(), "submission claimed",
			"agent", agent,
			"submission_id", claimed.Claim.SubmissionID,
			"job_id", claimed.Claim.JobID,
			"token", claimed.Claim.Token)
	}
	WriteJSON(w, http.StatusOK, claimed)
}

// Results records a batch of verdicts. Finalizing is idempotent, so a failed
// batch can be resent as a whole.
func (h *AgentHandlers) Results(w http.ResponseWriter, r *http.Request) {
	var results []model.RunningResult
	if !DecodeJSON(w, r, &results) {
		return
	}
	if len(results) == 0 {
		WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	if err := h.Queue.FinalizeBatch(r.Context(), results); err != nil {
		if h.Logger != nil {
			h.Logger.ErrorContext(r.Context(), "finalize results failed", "count", len(results), "error", err)
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "finalize_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
