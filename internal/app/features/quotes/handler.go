// internal/app/features/quotes/handler.go
package quotes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/features/shared/jsonresp"
	"github.com/GeddesWorks/quotes/internal/app/store/quotestore"
	"github.com/GeddesWorks/quotes/internal/app/system/auth"
	"github.com/GeddesWorks/quotes/internal/app/system/timeouts"
	"github.com/GeddesWorks/quotes/internal/domain/models"
)

// Handler serves the quote endpoints.
type Handler struct {
	Quotes *quotestore.Store
	Log    *zap.Logger
}

// NewHandler constructs a quotes Handler.
func NewHandler(quotes *quotestore.Store, logger *zap.Logger) *Handler {
	return &Handler{Quotes: quotes, Log: logger}
}

type createRequest struct {
	PersonID string `json:"person_id"`
	Text     string `json:"text"`
}

// ServeList lists a group's quotes, optionally filtered to one person.
// GET /groups/{groupID}/quotes?person_id=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")
	personID := r.URL.Query().Get("person_id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var quotes []models.Quote
	var err error
	if personID != "" {
		quotes, err = h.Quotes.ListForPerson(ctx, user.Actor(), groupID, personID)
	} else {
		quotes, err = h.Quotes.ListForGroup(ctx, user.Actor(), groupID)
	}
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, quotes)
}

// HandleCreate records a quote attributed to a person in the group.
// POST /groups/{groupID}/quotes
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

	quote, err := h.Quotes.Create(ctx, user.Actor(), groupID, req.PersonID, req.Text)
	if err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusCreated, quote)
}

// HandleDelete removes a quote.
// POST /groups/{groupID}/quotes/{quoteID}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	user, _ := auth.CurrentUser(r)
	groupID := chi.URLParam(r, "groupID")
	quoteID := chi.URLParam(r, "quoteID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if err := h.Quotes.Delete(ctx, user.Actor(), groupID, quoteID); err != nil {
		jsonresp.WriteError(w, h.Log, err)
		return
	}
	jsonresp.Write(w, http.StatusOK, map[string]string{"status": "deleted"})
}
