// internal/app/features/groups/routes.go
package groups

import (
	"github.com/dalemusser/directory/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Everything under /admin/groups requires the admin token
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequirePermission("admin"))

		pr.Get("/", h.ServeList)

		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleUpdate)

		pr.Post("/{id}/delete", h.HandleDelete)

		// People picker
		pr.Get("/people/autocomplete", h.ServePeopleAutocomplete)

		// CSV import
		pr.Get("/import", h.ServeImport)
		pr.Post("/import", h.HandleImport)
	})

	return r
}
