// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"strings"

	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var ErrNotFound = snippetstore.ErrNotFound

// PeopleSource supplies the people side of the reverse join.
type PeopleSource interface {
	ByGroupIDs(ctx context.Context, ids []primitive.ObjectID, opts snippetstore.GetOptions) ([]models.Person, error)
}

// Options extends the base get options with page restrictions and the
// people join.
type Options struct {
	snippetstore.GetOptions

	GroupIDs    []primitive.ObjectID // _id $in
	NotGroupIDs []primitive.ObjectID // _id $nin

	// SkipPeople turns the join off. People are joined by default.
	SkipPeople bool
	// PeopleEditor includes unpublished people in the join.
	PeopleEditor bool
}

// Store decorates the base group getter with the people join.
type Store struct {
	base     *snippetstore.Store[models.Group, *models.Group]
	people   PeopleSource
	sortable bool
}

// New returns a group store joining people from src. When sortable is
// set and a single group comes back, its people are ordered by rank.
func New(db *mongo.Database, src PeopleSource, sortable bool) *Store {
	return &Store{
		base:     snippetstore.New[models.Group](db, models.TypeGroup),
		people:   src,
		sortable: sortable,
	}
}

func (s *Store) Base() *snippetstore.Store[models.Group, *models.Group] { return s.base }

// RankSort orders people by their rank within groupID, then by title.
// Mongo sorts a missing rank before any number, so unranked people come
// first. Callers must not re-sort a page fetched with it.
func RankSort(groupID primitive.ObjectID) bson.D {
	return bson.D{
		{Key: "groupExtras." + groupID.Hex() + "." + models.RankKey, Value: 1},
		{Key: "title_ci", Value: 1},
	}
}

func restrict(criteria bson.M, opts Options) bson.M {
	var and []bson.M
	if len(opts.GroupIDs) > 0 {
		and = append(and, bson.M{"_id": bson.M{"$in": opts.GroupIDs}})
	}
	if len(opts.NotGroupIDs) > 0 {
		and = append(and, bson.M{"_id": bson.M{"$nin": opts.NotGroupIDs}})
	}
	if len(and) == 0 {
		return criteria
	}
	if len(criteria) > 0 {
		and = append(and, criteria)
	}
	return bson.M{"$and": and}
}

func (s *Store) Get(ctx context.Context, criteria bson.M, opts Options) (snippetstore.Results[models.Group], error) {
	res, err := s.base.Get(ctx, restrict(criteria, opts), opts.GetOptions)
	if err != nil {
		return res, err
	}
	if !opts.SkipPeople {
		if err := s.join(ctx, res.Items, opts.PeopleEditor); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (s *Store) GetOne(ctx context.Context, criteria bson.M, opts Options) (models.Group, error) {
	g, err := s.base.GetOne(ctx, restrict(criteria, opts), opts.GetOptions)
	if err != nil {
		return g, err
	}
	if !opts.SkipPeople {
		one := []models.Group{g}
		if err := s.join(ctx, one, opts.PeopleEditor); err != nil {
			return g, err
		}
		g = one[0]
	}
	return g, nil
}

// join fills People on each group from the people whose groupIds contain
// the group's ID.
func (s *Store) join(ctx context.Context, groups []models.Group, editor bool) error {
	if len(groups) == 0 || s.people == nil {
		return nil
	}
	ids := make([]primitive.ObjectID, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}

	opts := snippetstore.GetOptions{Editor: editor}
	ranked := s.sortable && len(groups) == 1
	if ranked {
		opts.Sort = RankSort(groups[0].ID)
	}
	people, err := s.people.ByGroupIDs(ctx, ids, opts)
	if err != nil {
		return err
	}

	for i := range groups {
		gid := groups[i].ID
		members := []models.Person{}
		for _, p := range people {
			if p.InGroup(gid) {
				members = append(members, p)
			}
		}
		groups[i].People = members
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	return s.GetOne(ctx, bson.M{"_id": id}, Options{
		GetOptions:   snippetstore.GetOptions{Editor: true},
		PeopleEditor: true,
	})
}

// Save inserts g when it has no ID, otherwise replaces it. People is never
// stored on the group.
func (s *Store) Save(ctx context.Context, g *models.Group) error {
	if g.Permissions == nil {
		g.Permissions = []string{}
	}
	if g.ID.IsZero() {
		return s.base.Insert(ctx, g)
	}
	return s.base.Update(ctx, g)
}

// Delete removes the group document. Callers unlink its members.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return s.base.Delete(ctx, id)
}

// EnsureExists returns the group titled title, creating it with perms if
// it does not exist. An existing group's permissions are left as they are.
func (s *Store) EnsureExists(ctx context.Context, title string, perms []string) (models.Group, bool, error) {
	title = strings.TrimSpace(title)
	g, err := s.base.GetOne(ctx, bson.M{"title_ci": text.Fold(title)}, snippetstore.GetOptions{Editor: true})
	if err == nil {
		return g, false, nil
	}
	if err != ErrNotFound {
		return models.Group{}, false, err
	}

	g = models.Group{Permissions: append([]string{}, perms...)}
	g.Title = title
	if err := s.Save(ctx, &g); err != nil {
		return models.Group{}, false, err
	}
	return g, true, nil
}
