package httptransport

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"hayat/internal/agent"
	"hayat/internal/orchestrator"
	"hayat/internal/trace"
	"hayat/pkg/platform/httputil"
	"hayat/pkg/requestcontext"
)

type widgetsResponse struct {
	Widgets []agent.WidgetState `json:"widgets"`
}

type decisionsResponse struct {
	Decisions []orchestrator.Decision `json:"decisions"`
}

type executeResponse struct {
	AgentID  string `json:"agent_id"`
	ActionID string `json:"action_id"`
	Success  bool   `json:"success"`
}

type explainResponse struct {
	AgentID     string `json:"agent_id"`
	ActionID    string `json:"action_id"`
	Explanation string `json:"explanation"`
}

type tracesResponse struct {
	Traces []trace.Entry `json:"traces"`
}

// handleWidgets returns one widget per registered agent, ordered by agent id.
func (h *Handler) handleWidgets(w http.ResponseWriter, r *http.Request) {
	states := h.orchestrator.WidgetStates(r.Context())
	widgets := make([]agent.WidgetState, 0, len(states))
	for _, s := range states {
		widgets = append(widgets, s)
	}
	slices.SortFunc(widgets, func(a, b agent.WidgetState) int {
		return strings.Compare(a.AgentID, b.AgentID)
	})
	httputil.WriteJSON(w, http.StatusOK, widgetsResponse{Widgets: widgets})
}

func (h *Handler) handleDecisions(w http.ResponseWriter, r *http.Request) {
	decisions := h.orchestrator.Decisions(r.Context())
	if decisions == nil {
		decisions = []orchestrator.Decision{}
	}
	httputil.WriteJSON(w, http.StatusOK, decisionsResponse{Decisions: decisions})
}

// handleExecute runs an action. A failed side effect is a 200 with
// success=false; only unknown agents or actions are errors.
func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	agentID := chi.URLParam(r, "agentID")
	actionID := chi.URLParam(r, "actionID")

	ok, err := h.orchestrator.ExecuteAction(ctx, actionID, agentID)
	if err != nil {
		h.logFailure(r, "execute action failed", err, agentID, actionID)
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "action executed",
		"agent_id", agentID,
		"action_id", actionID,
		"success", ok,
		"user_id", requestcontext.UserID(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteJSON(w, http.StatusOK, executeResponse{AgentID: agentID, ActionID: actionID, Success: ok})
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	actionID := chi.URLParam(r, "actionID")

	text, err := h.orchestrator.Explain(r.Context(), actionID, agentID)
	if err != nil {
		h.logFailure(r, "explain action failed", err, agentID, actionID)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, explainResponse{AgentID: agentID, ActionID: actionID, Explanation: text})
}

// handleTraces lists the acting user's ledger entries.
func (h *Handler) handleTraces(w http.ResponseWriter, r *http.Request) {
	entries := h.orchestrator.Traces(requestcontext.ActingUser(r.Context()))
	if entries == nil {
		entries = []trace.Entry{}
	}
	httputil.WriteJSON(w, http.StatusOK, tracesResponse{Traces: entries})
}

func (h *Handler) logFailure(r *http.Request, msg string, err error, agentID, actionID string) {
	ctx := r.Context()
	level := h.logger.WarnContext
	if !errors.Is(err, agent.ErrActionNotFound) && !errors.Is(err, agent.ErrAgentNotFound) {
		level = h.logger.ErrorContext
	}
	level(ctx, msg,
		"error", err,
		"agent_id", agentID,
		"action_id", actionID,
		"request_id", requestcontext.RequestID(ctx),
	)
}
