// internal/app/features/members/handler.go
package members

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/features/shared/jsonresp"
	"github.com/GeddesWorks/quotes/internal/app/store/memberstore"
	"github.com/GeddesWorks/quotes/internal/app/system/auth"
	"github.com/GeddesWorks/quotes/internal/app/system/timeouts"
)

// Handler serves membership lifecycle endpoints: join-by-code, roster,
// role changes, removal, and self-leave.
type Handler struct {
	Members *memberstore.Store
	Log     *zap.Logger
}

// NewHandler constructs a members Handler.
func NewHandler(members *memberstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Members: members, Log: logger}
}

type joinRequest struct {
	Code string `json:"code"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// HandleJoin joins the caller to the group an invite code opens.
// POST /join
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	var req joinRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	membership, err := h.Members.JoinByCode(ctx, user.Actor(), req.Code)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, membership)
}

// ServeRoster lists the group's memberships.
// GET /groups/{groupID}/members
func (h *Handler) ServeRoster(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	roster, err := h.Members.Roster(ctx, user.Actor(), chi.URLParam(r, "groupID"))
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, roster)
}

// HandleUpdateRole promotes or demotes a member.
// POST /groups/{groupID}/members/{userID}/role
func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	var req roleRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	membership, err := h.Members.UpdateRole(ctx, user.Actor(),
		chi.URLParam(r, "groupID"), chi.URLParam(r, "userID"), req.Role)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, membership)
}

// HandleRemove removes a member from the group.
// POST /groups/{groupID}/members/{userID}/remove
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := h.Members.Remove(ctx, user.Actor(),
		chi.URLParam(r, "groupID"), chi.URLParam(r, "userID"))
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleLeave removes the caller from the group.
// POST /groups/{groupID}/members/leave
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := h.Members.Remove(ctx, user.Actor(), chi.URLParam(r, "groupID"), user.ID)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}
