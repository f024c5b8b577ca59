// internal/domain/models/directorypage.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Directory page default views.
const (
	ViewGroups = "groups"
	ViewPeople = "people"
)

// DirectoryPage is a page that renders the directory at its slug.
// GroupIDs and NotGroupIDs lock the page to (or away from) groups.
type DirectoryPage struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Slug          string               `bson:"slug" json:"slug"` // path, e.g. "/directory"
	Title         string               `bson:"title" json:"title"`
	Type          string               `bson:"type" json:"type"` // "directory"
	DefaultView   string               `bson:"defaultView,omitempty" json:"defaultView,omitempty"`
	GroupIDs      []primitive.ObjectID `bson:"groupIds,omitempty" json:"groupIds,omitempty"`
	NotGroupIDs   []primitive.ObjectID `bson:"notGroupIds,omitempty" json:"notGroupIds,omitempty"`
	ShowThumbnail bool                 `bson:"showThumbnail" json:"showThumbnail"`
	Published     bool                 `bson:"published" json:"published"`
	UpdatedAt     *time.Time           `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// PageTypeDirectory is the type value of directory pages.
const PageTypeDirectory = "directory"

// Permission is one capability token a group can grant.
type Permission struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}
