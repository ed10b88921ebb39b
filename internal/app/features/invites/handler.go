// internal/app/features/invites/handler.go
package invites

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/features/shared/jsonresp"
	"github.com/GeddesWorks/quotes/internal/app/store/invitestore"
	"github.com/GeddesWorks/quotes/internal/app/system/apperr"
	"github.com/GeddesWorks/quotes/internal/app/system/auth"
	"github.com/GeddesWorks/quotes/internal/app/system/timeouts"
)

// Handler serves the invite code endpoints.
type Handler struct {
	Invites *invitestore.Store
	Log     *zap.Logger
}

// NewHandler constructs an invites Handler.
func NewHandler(invites *invitestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Invites: invites, Log: logger}
}

type createRequest struct {
	Name string `json:"name"`
}

type renameRequest struct {
	Name string `json:"name"`
}

// ServeList lists a group's invites.
// GET /groups/{groupID}/invites
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	invites, err := h.Invites.ListForGroup(ctx, user.Actor(), groupID)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, invites)
}

// HandleCreate mints a new invite code for a group.
// POST /groups/{groupID}/invites
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")
	var req createRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	invite, err := h.Invites.Create(ctx, user.Actor(), groupID, req.Name)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusCreated, invite)
}

// HandleRename updates an invite's label.
// POST /groups/{groupID}/invites/{inviteID}/rename
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")
	inviteID := chi.URLParam(r, "inviteID")
	var req renameRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	invite, err := h.Invites.Rename(ctx, user.Actor(), groupID, inviteID, req.Name)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, invite)
}

// HandleDelete revokes an invite code.
// POST /groups/{groupID}/invites/{inviteID}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")
	inviteID := chi.URLParam(r, "inviteID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Invites.Delete(ctx, user.Actor(), groupID, inviteID); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// ServeResolve previews the group behind an invite code without joining.
// GET /invites/resolve?code=XXXXXXXX
func (h *Handler) ServeResolve(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	code := r.URL.Query().Get("code")
	if code == "" {
		jsonresp.WriteError(w, h.Log, apperr.Validation("code is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	invite, err := h.Invites.Resolve(ctx, user.Actor(), code)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, map[string]string{
		"group_id":   invite.GroupID,
		"group_name": invite.GroupName,
	})
}
