// Package permissions builds the catalog of capability tokens a group can
// grant and answers "does this set of tokens allow X".
package permissions

import (
	"fmt"
	"os"
	"strings"

	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/go-openapi/inflect"
	"gopkg.in/yaml.v3"
)

// Admin grants everything.
const Admin = "admin"

// base is the list every site starts with.
var base = []models.Permission{
	{Value: "guest", Label: "Guest"},
	{Value: "edit", Label: "Editor"},
	{Value: Admin, Label: "Admin: All"},
	{Value: "admin-file", Label: "Admin: Files"},
	{Value: "edit-file", Label: "Edit: Files"},
}

// ContentType describes a content type for which per-type tokens are
// generated. AdminOnly types (groups) get none; only admins edit them.
type ContentType struct {
	Name      string // e.g. "person", "blogPost"
	Label     string // singular label; defaults from Name
	AdminOnly bool
}

// Catalog is the ordered permission list shown on the group editor.
type Catalog struct {
	list []models.Permission
}

// Build returns the default catalog: the base list plus admin-, edit- and
// submit- tokens for every type that is not admin-only.
func Build(types []ContentType) Catalog {
	list := append([]models.Permission(nil), base...)
	for _, t := range types {
		if t.AdminOnly {
			continue
		}
		css := cssName(t.Name)
		plural := pluralLabel(t)
		list = append(list,
			models.Permission{Value: "admin-" + css, Label: "Admin: " + plural},
			models.Permission{Value: "edit-" + css, Label: "Edit: " + plural},
			models.Permission{Value: "submit-" + css, Label: "Submit: " + plural},
		)
	}
	return Catalog{list: list}
}

// FromList wraps an explicit list (e.g. from a config file).
func FromList(list []models.Permission) Catalog {
	return Catalog{list: append([]models.Permission(nil), list...)}
}

// Load reads a YAML list of {value, label} entries. It replaces the
// generated catalog entirely, matching a site that configures its own.
func Load(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read permissions file: %w", err)
	}
	var list []models.Permission
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return Catalog{}, fmt.Errorf("parse permissions file %s: %w", path, err)
	}
	for i, p := range list {
		if strings.TrimSpace(p.Value) == "" {
			return Catalog{}, fmt.Errorf("permissions file %s: entry %d has no value", path, i)
		}
		if p.Label == "" {
			list[i].Label = p.Value
		}
	}
	return FromList(list), nil
}

// List returns a copy of the ordered entries.
func (c Catalog) List() []models.Permission {
	return append([]models.Permission(nil), c.list...)
}

// Values returns the token values in catalog order.
func (c Catalog) Values() []string {
	out := make([]string, len(c.list))
	for i, p := range c.list {
		out[i] = p.Value
	}
	return out
}

// Contains reports whether the token is in the catalog.
func (c Catalog) Contains(token string) bool {
	for _, p := range c.list {
		if p.Value == token {
			return true
		}
	}
	return false
}

// Effective unions the permissions of the given groups, preserving first
// occurrence order.
func Effective(groups []models.Group) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, g := range groups {
		for _, p := range g.Permissions {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Has reports whether perms grants token. Admin grants every token.
func Has(perms []string, token string) bool {
	for _, p := range perms {
		if p == Admin || p == token {
			return true
		}
	}
	return false
}

// cssName converts camelCase or spaced names to kebab-case: "blogPost" → "blog-post".
func cssName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
		case r == ' ' || r == '_':
			b.WriteByte('-')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func pluralLabel(t ContentType) string {
	label := t.Label
	if label == "" {
		label = strings.ReplaceAll(cssName(t.Name), "-", " ")
		if label != "" {
			label = strings.ToUpper(label[:1]) + label[1:]
		}
	}
	return inflect.Pluralize(label)
}
