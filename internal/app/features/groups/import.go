// internal/app/features/groups/import.go
package groups

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dalemusser/directory/internal/app/system/csvutil"
	"github.com/dalemusser/directory/internal/app/system/fields"
	"github.com/dalemusser/directory/internal/app/system/timeouts"
	"github.com/dalemusser/directory/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

type importData struct {
	viewdata.BaseVM

	Error   string
	Done    bool
	Created int
	Updated int
	Skipped int
}

// ImportResult counts what an import did.
type ImportResult struct {
	Created int
	Updated int
	Skipped int // rows without a title
}

// ServeImport renders the CSV upload form.
func (h *Handler) ServeImport(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "groups_import", importData{BaseVM: viewdata.NewBaseVM(r, "Import Groups", "/admin/groups")})
}

// HandleImport reads an uploaded CSV with title, published and
// permissions columns. Groups are matched by title; missing ones are
// created. Memberships are never imported.
func (h *Handler) HandleImport(w http.ResponseWriter, r *http.Request) {
	data := importData{BaseVM: viewdata.NewBaseVM(r, "Import Groups", "/admin/groups")}

	r.Body = http.MaxBytesReader(w, r.Body, csvutil.MaxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		data.Error = "Please choose a CSV file (5 MB max)."
		templates.Render(w, r, "groups_import", data)
		return
	}
	defer file.Close()

	rows, err := csvutil.ReadRows(file, csvutil.MaxRows)
	if err != nil {
		data.Error = "The file could not be read: " + err.Error()
		templates.Render(w, r, "groups_import", data)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "group import")
	defer cancel()

	res, err := h.Import(ctx, rows)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "group import failed", err, "The import stopped part way through.", "/admin/groups")
		return
	}
	h.Log.Info("groups imported",
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("skipped", res.Skipped))
	h.Audit.GroupsImported(ctx, r, res.Created, res.Updated, res.Skipped)

	data.Done = true
	data.Created, data.Updated, data.Skipped = res.Created, res.Updated, res.Skipped
	templates.Render(w, r, "groups_import", data)
}

// Import applies CSV rows keyed by lower-cased header name.
func (h *Handler) Import(ctx context.Context, rows []map[string]string) (ImportResult, error) {
	var res ImportResult
	for _, row := range rows {
		title := row["title"]
		if title == "" {
			res.Skipped++
			continue
		}
		sub, err := h.Fields.ParseAll(h.Schema, fields.SourceCSV, nil, row)
		if err != nil {
			return res, err
		}

		g, created, err := h.Groups.EnsureExists(ctx, title, sub.Permissions)
		if err != nil {
			return res, err
		}
		if _, ok := row["permissions"]; ok && sub.HasPermissions {
			g.Permissions = sub.Permissions
		}
		if v, ok := row["published"]; ok {
			g.Published = fields.Truthy(v)
		}
		g.People = nil
		if err := h.Groups.Save(ctx, &g); err != nil {
			return res, fmt.Errorf("save group %q: %w", title, err)
		}
		if created {
			res.Created++
		} else {
			res.Updated++
		}
	}
	return res, nil
}
