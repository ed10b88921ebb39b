// internal/app/features/members/routes.go
package members

import (
	"github.com/go-chi/chi/v5"

	"github.com/GeddesWorks/quotes/internal/app/system/auth"
)

// Routes mounts the group-scoped member routes. Typically:
// r.Mount("/groups/{groupID}/members", members.Routes(handler))
// The join endpoint has no group scope and is mounted separately.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeRoster)
		pr.Post("/leave", h.HandleLeave)
		pr.Post("/{userID}/role", h.HandleUpdateRole)
		pr.Post("/{userID}/remove", h.HandleRemove)
	})

	return r
}
