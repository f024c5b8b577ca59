package fields

import (
	"regexp"

	"github.com/dalemusser/directory/internal/app/system/permissions"
)

// TypePermissions is the registry name of the permissions field.
const TypePermissions = "permissions"

// PermissionsField maps one checkbox per catalog entry to and from the
// group's permission token list. Checkbox inputs are named
// "<field>.<token>".
type PermissionsField struct {
	Catalog permissions.Catalog
}

type permissionsValue []string

func (v permissionsValue) Apply(s *Submission) {
	s.Permissions = []string(v)
	s.HasPermissions = true
}

func (f PermissionsField) Type() string { return TypePermissions }

func (f PermissionsField) Render(st State) ViewModel {
	have := map[string]bool{}
	if st.Group != nil {
		for _, p := range st.Group.Permissions {
			have[p] = true
		}
	}
	list := f.Catalog.List()
	boxes := make([]PermissionBox, 0, len(list))
	for _, p := range list {
		boxes = append(boxes, PermissionBox{Value: p.Value, Label: p.Label, Checked: have[p.Value]})
	}
	return ViewModel{Template: "field_permissions", Permissions: boxes}
}

var csvSplit = regexp.MustCompile(`,\s*`)

func (f PermissionsField) Parse(in Input) (Value, error) {
	out := []string{}
	switch in.Source {
	case SourceCSV:
		raw := in.CSV[in.Spec.Name]
		if raw == "" {
			return permissionsValue(out), nil
		}
		for _, tok := range csvSplit.Split(raw, -1) {
			if f.Catalog.Contains(tok) {
				out = append(out, tok)
			}
		}
	default:
		for _, token := range f.Catalog.Values() {
			if Truthy(in.Form.Get(in.Spec.Name + "." + token)) {
				out = append(out, token)
			}
		}
	}
	return permissionsValue(out), nil
}
