// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/directory/internal/app/store/audit"
	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/app/system/paging"
	"github.com/dalemusser/directory/internal/app/system/timeouts"
	"github.com/dalemusser/directory/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// listItem is one audit event row.
type listItem struct {
	Timestamp time.Time
	Category  string
	EventType string
	ActorName string
	IP        string
	Success   bool
	Reason    string
	Details   map[string]string
}

type listData struct {
	viewdata.BaseVM

	Items      []listItem
	Category   string
	Categories []string
	Pager      paging.Pager
}

var categories = []string{audit.CategoryAuth, audit.CategoryAdmin}

// ServeList handles GET /admin/audit, newest events first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit list")
	defer cancel()

	f := audit.QueryFilter{Category: knownCategory(query.Get(r, "category"))}
	pager := paging.NewPager(r, paging.PageSize)

	total, err := h.Audit.Count(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events", err, "A database error occurred.", "/admin/groups")
		return
	}
	pager.Total = total

	f.Limit, f.Offset = pager.Limit(), pager.Skip()
	events, err := h.Audit.Query(ctx, f)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events", err, "A database error occurred.", "/admin/groups")
		return
	}
	names, err := h.actorNames(ctx, events)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve audit actors", err, "A database error occurred.", "/admin/groups")
		return
	}

	templates.Render(w, r, "audit_list", listData{
		BaseVM:     viewdata.NewBaseVM(r, "Audit Log", "/admin/groups"),
		Items:      toItems(events, names),
		Category:   f.Category,
		Categories: categories,
		Pager:      pager,
	})
}

func knownCategory(s string) string {
	for _, c := range categories {
		if s == c {
			return s
		}
	}
	return ""
}

// actorNames maps actor IDs to person titles. Actors that no longer exist
// are left out.
func (h *Handler) actorNames(ctx context.Context, events []audit.Event) (map[primitive.ObjectID]string, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, e := range events {
		if e.ActorID != nil && !seen[*e.ActorID] {
			seen[*e.ActorID] = true
			ids = append(ids, *e.ActorID)
		}
	}
	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	res, err := h.People.Get(ctx, bson.M{"_id": bson.M{"$in": ids}}, peoplestore.Options{
		GetOptions: snippetstore.GetOptions{Editor: true},
	})
	if err != nil {
		return nil, err
	}
	for _, p := range res.Items {
		names[p.ID] = p.Title
	}
	return names, nil
}

func toItems(events []audit.Event, names map[primitive.ObjectID]string) []listItem {
	items := make([]listItem, 0, len(events))
	for _, e := range events {
		it := listItem{
			Timestamp: e.Timestamp,
			Category:  e.Category,
			EventType: e.EventType,
			IP:        e.IP,
			Success:   e.Success,
			Reason:    e.FailureReason,
			Details:   e.Details,
		}
		if e.ActorID != nil {
			it.ActorName = names[*e.ActorID]
			if it.ActorName == "" {
				it.ActorName = e.ActorID.Hex()
			}
		}
		items = append(items, it)
	}
	return items
}
