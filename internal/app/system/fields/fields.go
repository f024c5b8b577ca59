// Package fields holds the schema field types the group editor renders and
// parses. Each field type implements Field and is registered by type name
// in a Registry; the editor walks its schema, looks each field up and
// applies the parsed values to a Submission.
package fields

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/dalemusser/directory/internal/domain/models"
)

// Source says where parsed input came from.
type Source int

const (
	SourceForm Source = iota // browser editor form post
	SourceCSV                // bulk import row
)

// Spec is one entry of an editor schema.
type Spec struct {
	Name   string
	Label  string
	Type   string
	Extras []Extra // people field only
}

// Extra describes a per-membership metadata column on the people field.
type Extra struct {
	Name  string
	Label string
	Type  string // "text" is the only kind the editor renders today
}

// State is what a field renders from.
type State struct {
	Spec  Spec
	Group *models.Group // nil on the new-group form
}

// ViewModel is the template input for one rendered field. Only the parts
// relevant to the field's type are filled in.
type ViewModel struct {
	Template string
	Name     string
	Label    string

	Permissions []PermissionBox

	People   []PersonRow
	Extras   []Extra
	Sortable bool
	RowsJSON string
}

// PermissionBox is one checkbox of the permissions field.
type PermissionBox struct {
	Value   string
	Label   string
	Checked bool
}

// PersonRow is one selected person in the people picker.
type PersonRow struct {
	Value  string
	Label  string
	Extras models.Extras
}

// Input carries raw submitted data to Parse.
type Input struct {
	Source Source
	Spec   Spec
	Form   url.Values
	CSV    map[string]string
}

// Value is a parsed field value. Apply copies it onto the submission.
type Value interface {
	Apply(*Submission)
}

// Submission is everything the schema fields parsed for one group save.
type Submission struct {
	Permissions    []string
	HasPermissions bool

	// PeopleInfo stages the picker rows for the membership synchronizer,
	// which runs after the group is saved so new groups have an ID.
	PeopleInfo []models.PersonInfo
	HasPeople  bool
}

// Field is the capability set a schema field type implements.
type Field interface {
	Type() string
	Render(State) ViewModel
	Parse(Input) (Value, error)
}

// ErrUnknownType is returned for a schema entry whose type is not registered.
var ErrUnknownType = errors.New("unknown field type")

// Registry maps field type names to implementations.
type Registry struct {
	types map[string]Field
}

// NewRegistry returns a registry holding fs.
func NewRegistry(fs ...Field) (*Registry, error) {
	r := &Registry{types: make(map[string]Field, len(fs))}
	for _, f := range fs {
		if err := r.Register(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a field type. Registering a name twice is an error.
func (r *Registry) Register(f Field) error {
	name := f.Type()
	if name == "" {
		return errors.New("field type has no name")
	}
	if _, dup := r.types[name]; dup {
		return fmt.Errorf("field type %q already registered", name)
	}
	r.types[name] = f
	return nil
}

// Lookup returns the implementation for a type name.
func (r *Registry) Lookup(name string) (Field, bool) {
	f, ok := r.types[name]
	return f, ok
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.types))
	for name := range r.types {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RenderAll renders every field of the schema for group (nil for new).
func (r *Registry) RenderAll(schema []Spec, group *models.Group) ([]ViewModel, error) {
	out := make([]ViewModel, 0, len(schema))
	for _, spec := range schema {
		f, ok := r.Lookup(spec.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownType, spec.Type)
		}
		vm := f.Render(State{Spec: spec, Group: group})
		vm.Name, vm.Label = spec.Name, spec.Label
		out = append(out, vm)
	}
	return out, nil
}

// ParseAll parses every field of the schema from one submission.
func (r *Registry) ParseAll(schema []Spec, src Source, form url.Values, csv map[string]string) (Submission, error) {
	var sub Submission
	for _, spec := range schema {
		f, ok := r.Lookup(spec.Type)
		if !ok {
			return Submission{}, fmt.Errorf("%w: %s", ErrUnknownType, spec.Type)
		}
		v, err := f.Parse(Input{Source: src, Spec: spec, Form: form, CSV: csv})
		if err != nil {
			return Submission{}, fmt.Errorf("field %s: %w", spec.Name, err)
		}
		if v != nil {
			v.Apply(&sub)
		}
	}
	return sub, nil
}

// Truthy reports whether a submitted value means "checked".
func Truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "on", "true", "yes", "y":
		return true
	}
	return false
}
