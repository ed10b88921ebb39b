// internal/app/features/quotes/routes.go
package quotes

import (
	"github.com/go-chi/chi/v5"

	"github.com/GeddesWorks/quotes/internal/app/system/auth"
)

// Routes mounts the group-scoped quote routes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Post("/{quoteID}/delete", h.HandleDelete)
	})

	return r
}
