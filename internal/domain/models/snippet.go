// internal/domain/models/snippet.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Snippet types stored in the snippets collection.
const (
	TypeGroup  = "group"
	TypePerson = "person"
)

// Snippet holds the fields every typed content record shares.
// Groups and people embed it (inline) so they live side by side in the
// snippets collection and share one unique slug index.
type Snippet struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type      string             `bson:"type" json:"type"`
	Title     string             `bson:"title" json:"title"`
	TitleCI   string             `bson:"title_ci" json:"title_ci"` // lowercase, diacritics-stripped
	Slug      string             `bson:"slug" json:"slug"`
	Published bool               `bson:"published" json:"published"`
	Tags      []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Body      string             `bson:"body,omitempty" json:"body,omitempty"` // sanitized HTML
	Thumbnail string             `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	TestData  bool               `bson:"test_data,omitempty" json:"-"`

	// URL is the permalink computed for the directory page rendering it.
	URL string `bson:"-" json:"url,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Base returns the embedded snippet. It lets generic store code reach the
// common fields of Group and Person.
func (s *Snippet) Base() *Snippet { return s }
