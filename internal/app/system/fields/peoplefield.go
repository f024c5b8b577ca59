package fields

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dalemusser/directory/internal/domain/models"
)

// TypePeople is the registry name of the people field.
const TypePeople = "people"

// PeopleField is the group's membership picker. The browser widget posts
// its rows as a JSON array in the field's input:
//
//	[{"value":"<person id>","label":"Bob Smith","jobTitle":"Flosser"}, ...]
//
// Parse only stages the rows; memberships are written after the group has
// been saved.
type PeopleField struct {
	Sortable bool
}

type peopleValue []models.PersonInfo

func (v peopleValue) Apply(s *Submission) {
	s.PeopleInfo = []models.PersonInfo(v)
	s.HasPeople = true
}

func (f PeopleField) Type() string { return TypePeople }

func (f PeopleField) Render(st State) ViewModel {
	vm := ViewModel{
		Template: "field_people",
		Extras:   st.Spec.Extras,
		Sortable: f.Sortable,
	}
	if st.Group == nil {
		vm.RowsJSON = "[]"
		return vm
	}

	rows := make([]PersonRow, 0, len(st.Group.People))
	raw := make([]map[string]interface{}, 0, len(st.Group.People))
	for _, p := range st.Group.People {
		row := PersonRow{Value: p.ID.Hex(), Label: p.Title, Extras: models.Extras{}}
		obj := map[string]interface{}{"value": row.Value, "label": row.Label}
		for k, v := range p.ExtrasFor(st.Group.ID) {
			row.Extras[k] = v
			obj[k] = v
		}
		rows = append(rows, row)
		raw = append(raw, obj)
	}
	vm.People = rows
	if b, err := json.Marshal(raw); err == nil {
		vm.RowsJSON = string(b)
	} else {
		vm.RowsJSON = "[]"
	}
	return vm
}

func (f PeopleField) Parse(in Input) (Value, error) {
	if in.Source == SourceCSV {
		// Memberships are not imported from CSV.
		return nil, nil
	}
	vals, present := in.Form[in.Spec.Name]
	if !present {
		// Field absent from the post: leave memberships alone.
		return nil, nil
	}
	raw := ""
	if len(vals) > 0 {
		raw = strings.TrimSpace(vals[0])
	}
	if raw == "" {
		return peopleValue{}, nil
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("people rows: %w", err)
	}

	allowed := make(map[string]bool, len(in.Spec.Extras))
	for _, e := range in.Spec.Extras {
		allowed[e.Name] = true
	}

	out := make(peopleValue, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(fmt.Sprint(row["value"]))
		if row["value"] == nil || id == "" {
			continue
		}
		info := models.PersonInfo{Value: id, Extras: models.Extras{}}
		if label, ok := row["label"].(string); ok {
			info.Label = label
		}
		for k, v := range row {
			if k == "value" || k == "label" || k == models.RankKey || !allowed[k] {
				continue
			}
			info.Extras[k] = v
		}
		out = append(out, info)
	}
	return out, nil
}
