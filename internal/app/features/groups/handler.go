// internal/app/features/groups/handler.go
package groups

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/features/shared/jsonresp"
	"github.com/GeddesWorks/quotes/internal/app/store/groupstore"
	"github.com/GeddesWorks/quotes/internal/app/system/auth"
	"github.com/GeddesWorks/quotes/internal/app/system/timeouts"
)

// Handler serves the group lifecycle endpoints.
type Handler struct {
	Groups *groupstore.Store
	Log    *zap.Logger
}

// NewHandler constructs a groups Handler.
func NewHandler(groups *groupstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Groups: groups, Log: logger}
}

type createRequest struct {
	Name string `json:"name"`
}

type renameRequest struct {
	Name string `json:"name"`
}

type transferRequest struct {
	NextOwnerUserID string `json:"next_owner_user_id"`
}

// HandleCreate creates a group with the caller as owner.
// POST /groups
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	var req createRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	group, err := h.Groups.CreateWithOwner(ctx, user.Actor(), req.Name)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusCreated, group)
}

// ServeList lists the caller's groups.
// GET /groups
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	groups, err := h.Groups.ListForUser(ctx, user.Actor())
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, groups)
}

// ServeGroup returns one group.
// GET /groups/{groupID}
func (h *Handler) ServeGroup(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	group, err := h.Groups.Get(ctx, user.Actor(), chi.URLParam(r, "groupID"))
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, group)
}

// HandleRename renames a group.
// POST /groups/{groupID}/rename
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	var req renameRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	group, err := h.Groups.Rename(ctx, user.Actor(), chi.URLParam(r, "groupID"), req.Name)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, group)
}

// HandleTransferOwnership moves the owner role to another member.
// POST /groups/{groupID}/transfer_ownership
func (h *Handler) HandleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	var req transferRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	err := h.Groups.TransferOwnership(ctx, user.Actor(), chi.URLParam(r, "groupID"), req.NextOwnerUserID)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleSync reconciles the group's document permissions.
// POST /groups/{groupID}/sync_permissions
func (h *Handler) HandleSync(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	roster, err := h.Groups.SyncPermissions(ctx, user.Actor(), chi.URLParam(r, "groupID"))
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"members":  len(roster.MemberIDs),
		"admins":   len(roster.AdminIDs),
		"owner_id": roster.OwnerID,
	})
}
