package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"hayat/internal/platform/metrics"
	"hayat/pkg/platform/httputil"
	"hayat/pkg/platform/middleware/auth"
	"hayat/pkg/platform/middleware/request"
	"hayat/pkg/platform/middleware/requesttime"
)

// RouterConfig carries the cross-cutting pieces the router wires in.
type RouterConfig struct {
	Logger         *slog.Logger
	Validator      auth.JWTValidator
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	RequestTimeout time.Duration
}

// NewRouter wires every public endpoint. Everything except health and
// metrics requires a bearer token.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r := chi.NewRouter()
	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.Logger(logger))
	r.Use(cfg.Metrics.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(timeout))
		r.Use(auth.RequireAuth(cfg.Validator, logger))

		r.Get("/agents/widgets", h.handleWidgets)
		r.Get("/decisions", h.handleDecisions)
		r.Post("/agents/{agentID}/actions/{actionID}/execute", h.handleExecute)
		r.Get("/agents/{agentID}/actions/{actionID}/explain", h.handleExplain)
		r.Get("/traces", h.handleTraces)

		r.Get("/family", h.handleGetFamily)
		r.Put("/family", h.handleSetFamily)
		r.Post("/family/members", h.handleAddMember)
		r.Patch("/family/members/{memberID}", h.handleUpdateMember)
	})
	return r
}
