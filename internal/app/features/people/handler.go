// internal/app/features/people/handler.go
package people

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/features/shared/jsonresp"
	"github.com/GeddesWorks/quotes/internal/app/store/personstore"
	"github.com/GeddesWorks/quotes/internal/app/system/auth"
	"github.com/GeddesWorks/quotes/internal/app/system/timeouts"
	"github.com/GeddesWorks/quotes/internal/domain/models"
)

// Handler serves the person and placeholder endpoints.
type Handler struct {
	Persons *personstore.Store
	Log     *zap.Logger
}

// NewHandler constructs a people Handler.
func NewHandler(persons *personstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Persons: persons, Log: logger}
}

type createRequest struct {
	Name string `json:"name"`
}

type claimRequest struct {
	PlaceholderID string `json:"placeholder_id"`
}

// ServeList lists a group's persons. With ?claimable=1 only placeholders
// that look older than the caller's membership are returned.
// GET /groups/{groupID}/people
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var persons []models.Person
	var err error
	if r.URL.Query().Get("claimable") == "1" {
		persons, err = h.Persons.ListClaimable(ctx, user.Actor(), groupID)
	} else {
		persons, err = h.Persons.List(ctx, user.Actor(), groupID)
	}
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, persons)
}

// HandleCreate adds a placeholder person to a group.
// POST /groups/{groupID}/people
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")
	var req createRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	person, err := h.Persons.CreatePlaceholder(ctx, user.Actor(), groupID, req.Name)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusCreated, person)
}

// HandleDelete removes a quoteless placeholder.
// POST /groups/{groupID}/people/{personID}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")
	personID := chi.URLParam(r, "personID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Persons.Remove(ctx, user.Actor(), groupID, personID); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// HandleClaim merges a placeholder into the caller's identity.
// POST /groups/{groupID}/people/claim
func (h *Handler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")
	var req claimRequest
	if err := jsonresp.Decode(r, &req); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	membership, err := h.Persons.Claim(ctx, user.Actor(), groupID, req.PlaceholderID)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, membership)
}

// HandleUnclaim reverses the caller's claim, recreating the placeholder.
// POST /groups/{groupID}/people/unclaim
func (h *Handler) HandleUnclaim(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	person, err := h.Persons.Unclaim(ctx, user.Actor(), groupID)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, person)
}
