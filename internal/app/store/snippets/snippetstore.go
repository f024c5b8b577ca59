// internal/app/store/snippets/snippetstore.go
package snippetstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/directory/internal/app/system/slug"
	"github.com/dalemusser/directory/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is where groups and people live side by side.
const Collection = "snippets"

// AutocompleteLimit caps autocomplete results.
const AutocompleteLimit = 10

// maxSlugAttempts bounds the -2, -3, ... suffix search for generated slugs.
const maxSlugAttempts = 100

var (
	ErrNotFound      = errors.New("snippet not found")
	ErrDuplicateSlug = errors.New("a snippet with this slug already exists")
)

// Doc is satisfied by pointers to types embedding models.Snippet.
type Doc[T any] interface {
	*T
	Base() *models.Snippet
}

// GetOptions narrows and orders a Get.
type GetOptions struct {
	Editor       bool   // include unpublished
	Letter       string // title starts with
	Search       string // title contains (folded)
	Autocomplete string // title starts with (folded); caps results, no total
	Sort         bson.D // default title_ci asc
	Skip         int64
	Limit        int64
}

// Results is one page of snippets plus the total that matched.
type Results[T any] struct {
	Items []T
	Total int64
}

// Getter is the read capability decorators wrap.
type Getter[T any] interface {
	Get(ctx context.Context, criteria bson.M, opts GetOptions) (Results[T], error)
	GetOne(ctx context.Context, criteria bson.M, opts GetOptions) (T, error)
}

// Store reads and writes one snippet type.
type Store[T any, P Doc[T]] struct {
	c   *mongo.Collection
	typ string
}

func New[T any, P Doc[T]](db *mongo.Database, typ string) *Store[T, P] {
	return &Store[T, P]{c: db.Collection(Collection), typ: typ}
}

// Type returns the snippet type this store is scoped to.
func (s *Store[T, P]) Type() string { return s.typ }

// Collection exposes the underlying collection for bulk updates.
func (s *Store[T, P]) Collection() *mongo.Collection { return s.c }

// Filter combines the type scope, publication rule and text options with
// caller criteria.
func (s *Store[T, P]) Filter(criteria bson.M, opts GetOptions) bson.M {
	and := []bson.M{{"type": s.typ}}
	if !opts.Editor {
		and = append(and, bson.M{"published": true})
	}
	if l := text.Fold(opts.Letter); l != "" {
		and = append(and, bson.M{"title_ci": bson.M{"$regex": "^" + regexp.QuoteMeta(l)}})
	}
	if q := text.Fold(opts.Search); q != "" {
		and = append(and, bson.M{"title_ci": bson.M{"$regex": regexp.QuoteMeta(q)}})
	}
	if a := text.Fold(opts.Autocomplete); a != "" {
		and = append(and, bson.M{"title_ci": bson.M{"$regex": "^" + regexp.QuoteMeta(a)}})
	}
	if len(criteria) > 0 {
		and = append(and, criteria)
	}
	return bson.M{"$and": and}
}

func (s *Store[T, P]) Get(ctx context.Context, criteria bson.M, opts GetOptions) (Results[T], error) {
	filter := s.Filter(criteria, opts)

	sort := opts.Sort
	if len(sort) == 0 {
		sort = bson.D{{Key: "title_ci", Value: 1}, {Key: "_id", Value: 1}}
	}
	findOpts := options.Find().SetSort(sort)

	autocomplete := strings.TrimSpace(opts.Autocomplete) != ""
	switch {
	case autocomplete:
		findOpts.SetLimit(AutocompleteLimit)
	default:
		if opts.Skip > 0 {
			findOpts.SetSkip(opts.Skip)
		}
		if opts.Limit > 0 {
			findOpts.SetLimit(opts.Limit)
		}
	}

	cur, err := s.c.Find(ctx, filter, findOpts)
	if err != nil {
		return Results[T]{}, err
	}
	defer cur.Close(ctx)

	var items []T
	if err := cur.All(ctx, &items); err != nil {
		return Results[T]{}, err
	}
	if items == nil {
		items = []T{}
	}

	total := int64(len(items))
	if !autocomplete && (opts.Skip > 0 || opts.Limit > 0) {
		if total, err = s.c.CountDocuments(ctx, filter); err != nil {
			return Results[T]{}, err
		}
	}
	return Results[T]{Items: items, Total: total}, nil
}

func (s *Store[T, P]) GetOne(ctx context.Context, criteria bson.M, opts GetOptions) (T, error) {
	var out T
	err := s.c.FindOne(ctx, s.Filter(criteria, opts)).Decode(&out)
	if err == mongo.ErrNoDocuments {
		return out, ErrNotFound
	}
	return out, err
}

// GetByID returns a snippet of this type regardless of publication.
func (s *Store[T, P]) GetByID(ctx context.Context, id primitive.ObjectID) (T, error) {
	return s.GetOne(ctx, bson.M{"_id": id}, GetOptions{Editor: true})
}

// Insert assigns an ID, folds the title and picks a unique slug. A slug
// derived from the title gets a numeric suffix on collision; an explicit
// slug that collides is an error.
func (s *Store[T, P]) Insert(ctx context.Context, doc P) error {
	b := doc.Base()
	now := time.Now().UTC()
	b.ID = primitive.NewObjectID()
	b.Type = s.typ
	b.TitleCI = text.Fold(b.Title)
	b.CreatedAt = now
	b.UpdatedAt = now

	sl, err := s.pickSlug(ctx, b)
	if err != nil {
		return err
	}
	b.Slug = sl

	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

// Update replaces the stored document. CreatedAt and Type are preserved.
func (s *Store[T, P]) Update(ctx context.Context, doc P) error {
	b := doc.Base()
	if b.ID.IsZero() {
		return ErrNotFound
	}
	var prev models.Snippet
	err := s.c.FindOne(ctx, bson.M{"_id": b.ID, "type": s.typ},
		options.FindOne().SetProjection(bson.M{"created_at": 1, "slug": 1})).Decode(&prev)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	b.Type = s.typ
	b.TitleCI = text.Fold(b.Title)
	b.CreatedAt = prev.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	if strings.TrimSpace(b.Slug) == "" {
		b.Slug = prev.Slug
	}
	if b.Slug != prev.Slug {
		taken, err := s.slugTaken(ctx, b.Slug, b.ID)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateSlug
		}
	}

	if _, err := s.c.ReplaceOne(ctx, bson.M{"_id": b.ID}, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateSlug
		}
		return err
	}
	return nil
}

// Delete removes a snippet of this type. Returns the number deleted (0 or 1).
func (s *Store[T, P]) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "type": s.typ})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store[T, P]) pickSlug(ctx context.Context, b *models.Snippet) (string, error) {
	explicit := strings.TrimSpace(b.Slug)
	if explicit != "" {
		taken, err := s.slugTaken(ctx, explicit, primitive.NilObjectID)
		if err != nil {
			return "", err
		}
		if taken {
			return "", ErrDuplicateSlug
		}
		return explicit, nil
	}

	root := slug.Make(b.Title)
	if root == "" {
		root = s.typ
	}
	for n := 1; n <= maxSlugAttempts; n++ {
		candidate := slug.WithSuffix(root, n)
		taken, err := s.slugTaken(ctx, candidate, primitive.NilObjectID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrDuplicateSlug, root)
}

// slugTaken checks the whole collection, not just this type; slugs are
// unique across groups and people.
func (s *Store[T, P]) slugTaken(ctx context.Context, sl string, self primitive.ObjectID) (bool, error) {
	filter := bson.M{"slug": sl}
	if !self.IsZero() {
		filter["_id"] = bson.M{"$ne": self}
	}
	n, err := s.c.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LookupType returns the type of the snippet with the given slug, using a
// single-field projection. A miss is ErrNotFound.
func LookupType(ctx context.Context, db *mongo.Database, sl string) (string, error) {
	var doc struct {
		Type string `bson:"type"`
	}
	err := db.Collection(Collection).FindOne(ctx, bson.M{"slug": sl},
		options.FindOne().SetProjection(bson.M{"type": 1, "_id": 0})).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return doc.Type, nil
}
