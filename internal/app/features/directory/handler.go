// internal/app/features/directory/handler.go
package directory

import (
	"context"
	"errors"
	"net/http"

	errorsfeature "github.com/dalemusser/directory/internal/app/features/errors"
	groupstore "github.com/dalemusser/directory/internal/app/store/groups"
	pagestore "github.com/dalemusser/directory/internal/app/store/pages"
	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/app/system/auth"
	"github.com/dalemusser/directory/internal/app/system/timeouts"
	"github.com/dalemusser/directory/internal/app/system/viewdata"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// PageMatcher finds the directory page serving a path.
type PageMatcher interface {
	BestMatch(ctx context.Context, path string) (models.DirectoryPage, string, error)
}

// Handler serves every path under a directory page.
type Handler struct {
	Pages  PageMatcher
	Svc    *Service
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

// NewHandler wires the directory against the database.
func NewHandler(db *mongo.Database, sortable bool, perPage int, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	people := peoplestore.New(db)
	return &Handler{
		Pages: pagestore.New(db),
		Svc: &Service{
			People: people,
			Groups: groupstore.New(db, people, sortable),
			LookupType: func(ctx context.Context, slug string) (string, error) {
				return snippetstore.LookupType(ctx, db, slug)
			},
			Sortable: sortable,
			PerPage:  perPage,
		},
		ErrLog: errLog,
		Log:    logger,
	}
}

type pageVM struct {
	viewdata.BaseVM
	ViewData
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "directory dispatch")
	defer cancel()

	page, rem, err := h.Pages.BestMatch(ctx, r.URL.Path)
	if errors.Is(err, pagestore.ErrNotFound) {
		h.notFound(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "directory page match failed", err, "A database error occurred.", "/")
		return
	}

	u, _ := auth.CurrentUser(r)
	out, err := h.Svc.Dispatch(ctx, Request{
		HTTP:      r,
		Page:      page,
		Remainder: rem,
		Editor:    u.Can("edit"),
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "directory dispatch failed", err, "A database error occurred.", page.Slug)
		return
	}

	switch {
	case out.Redirect != "":
		http.Redirect(w, r, out.Redirect, http.StatusFound)
	case out.NotFound:
		h.notFound(w, r)
	case out.Ajax:
		templates.RenderSnippet(w, out.Template, out.Data)
	default:
		templates.Render(w, r, out.Template, pageVM{
			BaseVM:   viewdata.NewBaseVM(r, title(out.Data), page.Slug),
			ViewData: out.Data,
		})
	}
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	if IsXHR(r) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	errorsfeature.RenderNotFound(w, r)
}

func title(d ViewData) string {
	switch {
	case d.Person != nil:
		return d.Person.Title
	case d.Group != nil:
		return d.Group.Title
	}
	return d.Page.Title
}
