// internal/app/features/invites/routes.go
package invites

import (
	"github.com/go-chi/chi/v5"

	"github.com/GeddesWorks/quotes/internal/app/system/auth"
)

// Routes mounts the group-scoped invite routes. The code resolution
// endpoint has no group scope and is mounted separately.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Post("/{inviteID}/rename", h.HandleRename)
		pr.Post("/{inviteID}/delete", h.HandleDelete)
	})

	return r
}
