// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"

	"github.com/GeddesWorks/quotes/internal/app/system/auth"
)

// Routes mounts the group routes. Typically:
// r.Mount("/groups", groups.Routes(handler))
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{groupID}", h.ServeGroup)
		pr.Post("/{groupID}/rename", h.HandleRename)
		pr.Post("/{groupID}/transfer_ownership", h.HandleTransferOwnership)
		pr.Post("/{groupID}/sync_permissions", h.HandleSync)
	})

	return r
}
