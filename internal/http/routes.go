package httpx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/target/checkqueue/config"
)

// Queue is everything the HTTP layer needs from the checking queue.
// *service.QueueService satisfies it.
type Queue interface {
	AgentQueue
	SubmissionQueue
	QueueInspector
}

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Queue Queue
	// Optional: readiness checks served on /readyz.
	HealthChecks map[string]HealthCheck

	HTTP       config.HTTPConfig
	Agent      config.AgentConfig
	QueueWaits config.QueueConfig

	Logger *slog.Logger // Optional
}

// NewRouter creates the chi router with the access log, recovery and body limit middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	health := &HealthHandlers{Checks: services.HealthChecks, Logger: logger}
	agents := &AgentHandlers{Queue: services.Queue, MaxLongPoll: services.Agent.MaxLongPoll, Logger: logger}
	submissions := &SubmissionHandlers{
		Queue: services.Queue,
		Waits: services.QueueWaits,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		Logger: logger,
	}
	queue := &QueueHandlers{Queue: services.Queue, Logger: logger}
	agentAuth := NewAgentAuth(services.Agent.TokenHashes, logger)
	if !agentAuth.Enabled() {
		logger.Warn("agent authentication disabled: no token hashes configured")
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(logger))
	r.Use(Recover(logger))

	r.Get("/healthz", health.Live)
	r.Head("/healthz", health.Live)
	r.Get("/readyz", health.Ready)
	r.Head("/readyz", health.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Use(MaxBody(services.HTTP.MaxBodyBytes))

		r.Group(func(r chi.Router) {
			r.Use(agentAuth.Authenticate)
			r.Post("/agent/claim", agents.Claim)
			r.Post("/agent/results", agents.Results)
		})

		r.Post("/submissions", submissions.Create)
		r.Get("/submissions/{id}", submissions.Get)
		r.Get("/submissions/{id}/watch", submissions.Watch)

		r.Get("/queue/pending", queue.Pending)
		r.Get("/queue/stats", queue.Stats)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "message": "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{
			"error":   "method_not_allowed",
			"message": r.Method + " not allowed",
		})
	})

	return r
}
