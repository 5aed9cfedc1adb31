package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hayat/internal/family"
	dErrors "hayat/pkg/domain-errors"
	"hayat/pkg/platform/httputil"
	"hayat/pkg/requestcontext"
)

type setFamilyRequest struct {
	ID      string          `json:"id"`
	Members []family.Member `json:"members"`
}

func (h *Handler) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	s, ok := h.household.FamilyStructure()
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "family structure is not set up"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) handleSetFamily(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[setFamilyRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	s, err := family.NewStructure(req.ID, req.Members, requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.household.SetStructure(ctx, s); err != nil {
		h.logger.WarnContext(ctx, "set family structure failed", "error", err, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, s)
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := httputil.DecodeJSON[family.Member](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.household.AddMember(ctx, m); err != nil {
		h.logger.WarnContext(ctx, "add member failed", "error", err, "member_id", m.ID, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleUpdateMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	memberID := chi.URLParam(r, "memberID")
	u, err := httputil.DecodeJSON[family.MemberUpdate](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if u.IsEmpty() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "update changes nothing"))
		return
	}
	m, err := h.household.UpdateMember(ctx, memberID, u)
	if err != nil {
		h.logger.WarnContext(ctx, "update member failed", "error", err, "member_id", memberID, "request_id", requestcontext.RequestID(ctx))
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, m)
}
