// internal/app/features/people/routes.go
package people

import (
	"github.com/go-chi/chi/v5"

	"github.com/GeddesWorks/quotes/internal/app/system/auth"
)

// Routes mounts the group-scoped person routes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Post("/claim", h.HandleClaim)
		pr.Post("/unclaim", h.HandleUnclaim)
		pr.Post("/{personID}/delete", h.HandleDelete)
	})

	return r
}
