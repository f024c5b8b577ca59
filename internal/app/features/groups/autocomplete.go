// internal/app/features/groups/autocomplete.go
package groups

import (
	"encoding/json"
	"net/http"
	"strings"

	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Choice is one people picker suggestion.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ServePeopleAutocomplete handles GET /admin/groups/people/autocomplete?term=...
// and returns up to ten matching people as [{label,value}].
func (h *Handler) ServePeopleAutocomplete(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(query.Get(r, "term"))
	out := []Choice{}

	if term != "" {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "people autocomplete")
		defer cancel()

		res, err := h.People.Get(ctx, nil, peoplestore.Options{
			GetOptions: snippetstore.GetOptions{Editor: true, Autocomplete: term},
		})
		if err != nil {
			h.Log.Error("people autocomplete", zap.Error(err))
			http.Error(w, `{"error":"database error"}`, http.StatusInternalServerError)
			return
		}
		for _, p := range res.Items {
			out = append(out, Choice{Label: p.Title, Value: p.ID.Hex()})
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		h.Log.Warn("encode autocomplete", zap.Error(err))
	}
}
