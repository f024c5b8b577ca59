package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/directory/internal/app/system/slug"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) snippet(typ, title string, published bool) models.Snippet {
	now := time.Now().UTC()
	return models.Snippet{
		ID:        primitive.NewObjectID(),
		Type:      typ,
		Title:     title,
		TitleCI:   text.Fold(title),
		Slug:      slug.Make(title),
		Published: published,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateGroup inserts a group. The slug is derived from the title.
func (f *Fixtures) CreateGroup(ctx context.Context, title string, published bool, perms ...string) models.Group {
	f.t.Helper()

	g := models.Group{
		Snippet:     f.snippet(models.TypeGroup, title, published),
		Permissions: append([]string{}, perms...),
	}
	if _, err := f.db.Collection("snippets").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreatePerson inserts a person linked to groups with no extras.
func (f *Fixtures) CreatePerson(ctx context.Context, title string, published bool, groups ...primitive.ObjectID) models.Person {
	f.t.Helper()

	p := models.Person{
		Snippet:  f.snippet(models.TypePerson, title, published),
		GroupIDs: append([]primitive.ObjectID{}, groups...),
	}
	if _, err := f.db.Collection("snippets").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test person: %v", err)
	}
	return p
}

// CreateLoginPerson inserts a published person who can sign in with the
// given bcrypt hash.
func (f *Fixtures) CreateLoginPerson(ctx context.Context, title, username, passwordHash string, groups ...primitive.ObjectID) models.Person {
	f.t.Helper()

	p := models.Person{
		Snippet:      f.snippet(models.TypePerson, title, true),
		GroupIDs:     append([]primitive.ObjectID{}, groups...),
		Login:        true,
		Username:     username,
		PasswordHash: passwordHash,
	}
	if _, err := f.db.Collection("snippets").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test login person: %v", err)
	}
	return p
}

// CreatePage inserts a published directory page.
func (f *Fixtures) CreatePage(ctx context.Context, pageSlug, defaultView string, groupIDs ...primitive.ObjectID) models.DirectoryPage {
	f.t.Helper()

	now := time.Now().UTC()
	page := models.DirectoryPage{
		ID:          primitive.NewObjectID(),
		Slug:        pageSlug,
		Title:       "Directory",
		Type:        models.PageTypeDirectory,
		DefaultView: defaultView,
		GroupIDs:    append([]primitive.ObjectID{}, groupIDs...),
		Published:   true,
		UpdatedAt:   &now,
	}
	if _, err := f.db.Collection("pages").InsertOne(ctx, page); err != nil {
		f.t.Fatalf("failed to create test page: %v", err)
	}
	return page
}
