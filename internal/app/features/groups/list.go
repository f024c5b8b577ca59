// internal/app/features/groups/list.go
package groups

import (
	"net/http"
	"strings"

	groupstore "github.com/dalemusser/directory/internal/app/store/groups"
	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/app/system/paging"
	"github.com/dalemusser/directory/internal/app/system/timeouts"
	"github.com/dalemusser/directory/internal/app/system/viewdata"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
)

type listData struct {
	viewdata.BaseVM

	Groups []models.Group
	Search string
	Pager  paging.Pager
}

// ServeList handles GET /admin/groups: every group, published or not,
// paged and optionally filtered by title.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "group list")
	defer cancel()

	search := strings.TrimSpace(query.Get(r, "search"))
	pager := paging.NewPager(r, paging.PageSize)

	res, err := h.Groups.Get(ctx, nil, groupstore.Options{
		GetOptions: snippetstore.GetOptions{
			Editor: true,
			Search: search,
			Skip:   pager.Skip(),
			Limit:  pager.Limit(),
		},
		SkipPeople: true,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "database error listing groups", err, "A database error occurred.", "/")
		return
	}
	pager.Total = res.Total

	templates.Render(w, r, "groups_list", listData{
		BaseVM: viewdata.NewBaseVM(r, "Groups", "/"),
		Groups: res.Items,
		Search: search,
		Pager:  pager,
	})
}
