// internal/app/features/auditlog/routes.go
package auditlog

import (
	"github.com/dalemusser/directory/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequirePermission("admin"))
		pr.Get("/", h.ServeList)
	})
	return r
}
