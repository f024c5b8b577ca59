// internal/app/store/pages/pagestore.go
package pagestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/directory/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("page not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("pages")}
}

// GetBySlug returns the page at slug, published or not.
func (s *Store) GetBySlug(ctx context.Context, slug string) (models.DirectoryPage, error) {
	var p models.DirectoryPage
	err := s.c.FindOne(ctx, bson.M{"slug": NormalizePath(slug)}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return models.DirectoryPage{}, ErrNotFound
	}
	return p, err
}

// Upsert creates or replaces the page with p.Slug.
func (s *Store) Upsert(ctx context.Context, p models.DirectoryPage) error {
	now := time.Now().UTC()
	p.Slug = NormalizePath(p.Slug)
	p.UpdatedAt = &now
	if p.Type == "" {
		p.Type = models.PageTypeDirectory
	}
	set := bson.M{
		"slug":          p.Slug,
		"title":         p.Title,
		"type":          p.Type,
		"defaultView":   p.DefaultView,
		"groupIds":      nonNil(p.GroupIDs),
		"notGroupIds":   nonNil(p.NotGroupIDs),
		"showThumbnail": p.ShowThumbnail,
		"published":     p.Published,
		"updated_at":    now,
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"slug": p.Slug},
		bson.M{"$set": set},
		options.Update().SetUpsert(true))
	return err
}

// nonNil keeps unlocked pages storing [] rather than null; the pages
// validator requires arrays.
func nonNil(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}

// Delete removes the page at slug.
func (s *Store) Delete(ctx context.Context, slug string) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"slug": NormalizePath(slug)})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// BestMatch finds the published directory page whose slug is the longest
// path-segment prefix of path and returns what follows it. The remainder
// is "" or starts with "/".
func (s *Store) BestMatch(ctx context.Context, path string) (models.DirectoryPage, string, error) {
	path = NormalizePath(path)
	candidates := Prefixes(path)

	cur, err := s.c.Find(ctx, bson.M{
		"slug":      bson.M{"$in": candidates},
		"type":      models.PageTypeDirectory,
		"published": true,
	})
	if err != nil {
		return models.DirectoryPage{}, "", err
	}
	defer cur.Close(ctx)

	var pages []models.DirectoryPage
	if err := cur.All(ctx, &pages); err != nil {
		return models.DirectoryPage{}, "", err
	}
	if len(pages) == 0 {
		return models.DirectoryPage{}, "", ErrNotFound
	}

	best := pages[0]
	for _, p := range pages[1:] {
		if len(p.Slug) > len(best.Slug) {
			best = p
		}
	}
	return best, Remainder(best.Slug, path), nil
}

// NormalizePath makes sure p starts with "/" and has no trailing "/".
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

// Prefixes lists path and each of its parent paths, longest first:
// "/a/b" gives ["/a/b", "/a", "/"].
func Prefixes(path string) []string {
	out := []string{path}
	for p := path; p != "/"; {
		i := strings.LastIndex(p, "/")
		if i <= 0 {
			p = "/"
		} else {
			p = p[:i]
		}
		out = append(out, p)
	}
	return out
}

// Remainder returns the part of path after the page slug.
func Remainder(slug, path string) string {
	if slug == "/" {
		if path == "/" {
			return ""
		}
		return path
	}
	return strings.TrimPrefix(path, slug)
}
