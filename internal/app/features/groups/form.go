// internal/app/features/groups/form.go
package groups

import (
	"context"
	"errors"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/directory/internal/app/features/errors"
	groupstore "github.com/dalemusser/directory/internal/app/store/groups"
	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/app/system/fields"
	"github.com/dalemusser/directory/internal/app/system/htmlsanitize"
	"github.com/dalemusser/directory/internal/app/system/limits"
	"github.com/dalemusser/directory/internal/app/system/slug"
	"github.com/dalemusser/directory/internal/app/system/timeouts"
	"github.com/dalemusser/directory/internal/app/system/viewdata"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const maxTitleLen = 200

type formData struct {
	viewdata.BaseVM

	IsNew  bool
	Action string
	Group  models.Group
	Fields []fields.ViewModel
	Error  string
}

// ServeNew renders the Add Group page.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, formData{IsNew: true, Action: "/admin/groups", Group: models.Group{}}, nil)
}

// ServeEdit renders the Edit Group page with the group's current members.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	gid, ok := h.groupID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "group edit load")
	defer cancel()

	g, err := h.Groups.GetByID(ctx, gid)
	if errors.Is(err, groupstore.ErrNotFound) {
		errorsfeature.RenderNotFound(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading group", err, "A database error occurred.", "/admin/groups")
		return
	}
	h.renderForm(w, r, formData{Action: "/admin/groups/" + gid.Hex() + "/edit", Group: g}, &g)
}

// HandleCreate processes the Add Group form.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxGroupFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse group form", err, "Bad request.", "/admin/groups")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "group create")
	defer cancel()

	g := models.Group{}
	sub, msg := h.applyForm(r, &g)
	if msg != "" {
		h.renderForm(w, r, formData{IsNew: true, Action: "/admin/groups", Group: g, Error: msg}, nil)
		return
	}
	if err := h.persist(ctx, &g, sub); err != nil {
		if errors.Is(err, snippetstore.ErrDuplicateSlug) {
			g.ID = primitive.NilObjectID
			h.renderForm(w, r, formData{IsNew: true, Action: "/admin/groups", Group: g, Error: "That slug is already in use."}, nil)
			return
		}
		h.ErrLog.LogServerError(w, r, "database error creating group", err, "A database error occurred.", "/admin/groups")
		return
	}

	h.Log.Info("group created", zap.String("group_id", g.ID.Hex()), zap.String("slug", g.Slug))
	h.Audit.GroupCreated(ctx, r, g.ID, g.Title)
	h.auditMembers(ctx, r, g, sub)
	http.Redirect(w, r, "/admin/groups", http.StatusSeeOther)
}

// HandleUpdate processes the Edit Group form.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	gid, ok := h.groupID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxGroupFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse group form", err, "Bad request.", "/admin/groups")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "group update")
	defer cancel()

	g, err := h.Groups.GetByID(ctx, gid)
	if errors.Is(err, groupstore.ErrNotFound) {
		errorsfeature.RenderNotFound(w, r)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error loading group", err, "A database error occurred.", "/admin/groups")
		return
	}

	action := "/admin/groups/" + gid.Hex() + "/edit"
	sub, msg := h.applyForm(r, &g)
	if msg != "" {
		h.renderForm(w, r, formData{Action: action, Group: g, Error: msg}, &g)
		return
	}
	if err := h.persist(ctx, &g, sub); err != nil {
		if errors.Is(err, snippetstore.ErrDuplicateSlug) {
			h.renderForm(w, r, formData{Action: action, Group: g, Error: "That slug is already in use."}, &g)
			return
		}
		h.ErrLog.LogServerError(w, r, "database error saving group", err, "A database error occurred.", "/admin/groups")
		return
	}
	h.Audit.GroupUpdated(ctx, r, g.ID, g.Title)
	h.auditMembers(ctx, r, g, sub)

	http.Redirect(w, r, "/admin/groups", http.StatusSeeOther)
}

// applyForm copies the posted form onto g. A non-empty message means the
// input was rejected and nothing should be saved.
func (h *Handler) applyForm(r *http.Request, g *models.Group) (fields.Submission, string) {
	title := strings.Join(strings.Fields(r.PostForm.Get("title")), " ")
	if title == "" {
		return fields.Submission{}, "Title is required."
	}
	if len(title) > maxTitleLen {
		return fields.Submission{}, "Title is too long."
	}
	g.Title = title
	g.Published = fields.Truthy(r.PostForm.Get("published"))
	g.Body = htmlsanitize.Sanitize(r.PostForm.Get("body"))
	if s := strings.TrimSpace(r.PostForm.Get("slug")); s != "" {
		g.Slug = slug.Make(s)
	}

	sub, err := h.Fields.ParseAll(h.Schema, fields.SourceForm, r.PostForm, nil)
	if err != nil {
		h.Log.Warn("group form fields rejected", zap.Error(err))
		return fields.Submission{}, "The form could not be read. Please try again."
	}
	if sub.HasPermissions {
		g.Permissions = sub.Permissions
	}
	return sub, ""
}

// persist saves the group, then brings its memberships in line with the
// submitted people. The group must be saved first so a new group has an ID.
func (h *Handler) persist(ctx context.Context, g *models.Group, sub fields.Submission) error {
	if err := h.Groups.Save(ctx, g); err != nil {
		return err
	}
	return h.afterSave(ctx, g, sub)
}

func (h *Handler) afterSave(ctx context.Context, g *models.Group, sub fields.Submission) error {
	if !sub.HasPeople {
		return nil
	}
	return h.Members.Sync(ctx, g.ID, sub.PeopleInfo)
}

func (h *Handler) auditMembers(ctx context.Context, r *http.Request, g models.Group, sub fields.Submission) {
	if sub.HasPeople {
		h.Audit.MembersSynced(ctx, r, g.ID, len(sub.PeopleInfo))
	}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, data formData, current *models.Group) {
	vms, err := h.Fields.RenderAll(h.Schema, current)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "render group fields", err, "The form could not be displayed.", "/admin/groups")
		return
	}
	title := "Edit Group"
	if data.IsNew {
		title = "Add Group"
	}
	data.BaseVM = viewdata.NewBaseVM(r, title, "/admin/groups")
	data.Fields = vms
	templates.Render(w, r, "group_form", data)
}

func (h *Handler) groupID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	gid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "bad group id", err, "Bad group id.", "/admin/groups")
		return primitive.NilObjectID, false
	}
	return gid, true
}
