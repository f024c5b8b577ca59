// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/directory/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

func render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}

// RenderUnauthorized shows a friendly "sign in required" page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, "Sign in required", backURL),
		Message: "Please sign in to continue.",
	}
	data.BackURL = backURL
	render(w, r, http.StatusUnauthorized, data)
}

// RenderForbidden shows a friendly access error page with a message.
// If backURL is empty, it resolves a safe back URL with a default fallback.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, "Access denied", "/"),
		Message: msg,
	}
	if backURL != "" {
		data.BackURL = backURL
	}
	render(w, r, http.StatusForbidden, data)
}

// RenderNotFound shows the 404 page.
func RenderNotFound(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, "Not found", "/"),
		Message: "The page you were looking for isn't here.",
	}
	render(w, r, http.StatusNotFound, data)
}
