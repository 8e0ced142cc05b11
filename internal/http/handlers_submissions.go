package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/target/checkqueue/config"
	"github.com/target/checkqueue/internal/domain/model"
)

// SubmissionQueue is the part of the queue used by submitters.
type SubmissionQueue interface {
	SubmitAndOptionallyWait(
		ctx context.Context,
		req *model.CreateSubmissionRequest,
		timeout time.Duration,
		waitUntilChecked bool,
	) (*model.Submission, error)
	WatchHandled(ctx context.Context, submissionID int64, timeout time.Duration) (*model.Submission, error)
	Get(ctx context.Context, submissionID int64) (*model.Submission, error)
}

// Watch message statuses.
const (
	WatchStatusDone    = "done"
	WatchStatusTimeout = "timeout"
	WatchStatusError   = "error"
)

// WatchMessage is the single message sent over a watch socket.
type WatchMessage struct {
	SubmissionID int64             `json:"submission_id"`
	Status       string            `json:"status"`
	Submission   *model.Submission `json:"submission,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// SubmissionHandlers serves submission creation, lookup and watching.
type SubmissionHandlers struct {
	Queue    SubmissionQueue
	Waits    config.QueueConfig
	Upgrader websocket.Upgrader
	Logger   *slog.Logger
}

// Create stores a submission. With ?wait=true it blocks until the verdict is
// recorded or ?timeout= elapses.
func (h *SubmissionHandlers) Create(w http.ResponseWriter, r *http.Request) {
	waitUntilChecked := parseBoolQuery(r, "wait", false)
	timeout, err := parseDurationQuery(r, "timeout", 0)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	var req model.CreateSubmissionRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	sub, err := h.Queue.SubmitAndOptionallyWait(r.Context(), &req, h.Waits.ClampWait(timeout), waitUntilChecked)
	if err != nil {
		h.logError(r, "create submission failed", err)
		WriteServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if sub.Job.IsDone() {
		status = http.StatusOK
	}
	WriteJSON(w, status, sub)
}

// Get returns a submission with its job and texts.
func (h *SubmissionHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	sub, err := h.Queue.Get(r.Context(), id)
	if err != nil {
		if !errors.Is(err, model.ErrSubmissionNotFound) {
			h.logError(r, "get submission failed", err)
		}
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

// Watch upgrades to a websocket and sends one WatchMessage once the submission
// is checked or ?timeout= elapses, then closes the connection.
func (h *SubmissionHandlers) Watch(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	timeout, err := parseDurationQuery(r, "timeout", 0)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	conn, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logError(r, "websocket upgrade failed", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go discardUntilClosed(conn, cancel)

	sub, err := h.Queue.WatchHandled(ctx, id, h.Waits.ClampWait(timeout))
	msg := WatchMessage{SubmissionID: id, Submission: sub}
	switch {
	case err == nil:
		msg.Status = WatchStatusDone
	case errors.Is(err, model.ErrSubmissionCheckingTimeout):
		msg.Status = WatchStatusTimeout
	case ctx.Err() != nil:
		// Client went away.
		return
	default:
		h.logError(r, "watch submission failed", err)
		msg.Status = WatchStatusError
		msg.Error = serviceErrorParams(err).ErrCode
	}

	if err := conn.WriteJSON(msg); err != nil {
		h.logError(r, "write watch message failed", err)
		return
	}
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, msg.Status),
		time.Now().Add(time.Second),
	)
}

// discardUntilClosed drains client frames so close frames are processed, and
// cancels the watch once the client disconnects.
func discardUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *SubmissionHandlers) logError(r *http.Request, msg string, err error) {
	if h.Logger == nil {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return
	}
	h.Logger.ErrorContext(r.Context(), msg,
		"error", err,
		"path", r.URL.Path,
		"request_id", RequestIDFromContext(r.Context()))
}
