// internal/app/store/people/peoplestore.go
package peoplestore

import (
	"context"
	"strings"

	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound is returned when no person matches.
var ErrNotFound = snippetstore.ErrNotFound

// Options extends the base get options with group membership filters.
type Options struct {
	snippetstore.GetOptions

	GroupIDs    []primitive.ObjectID // member of at least one
	NotGroupIDs []primitive.ObjectID // member of none
	GetGroups   bool                 // fill Person.Groups
}

// Store wraps the base person getter.
type Store struct {
	base   *snippetstore.Store[models.Person, *models.Person]
	groups *snippetstore.Store[models.Group, *models.Group]
}

func New(db *mongo.Database) *Store {
	return &Store{
		base:   snippetstore.New[models.Person](db, models.TypePerson),
		groups: snippetstore.New[models.Group](db, models.TypeGroup),
	}
}

// Base returns the undecorated getter.
func (s *Store) Base() *snippetstore.Store[models.Person, *models.Person] { return s.base }

func restrict(criteria bson.M, opts Options) bson.M {
	var and []bson.M
	if len(opts.GroupIDs) > 0 {
		and = append(and, bson.M{"groupIds": bson.M{"$in": opts.GroupIDs}})
	}
	if len(opts.NotGroupIDs) > 0 {
		and = append(and, bson.M{"groupIds": bson.M{"$nin": opts.NotGroupIDs}})
	}
	if len(and) == 0 {
		return criteria
	}
	if len(criteria) > 0 {
		and = append(and, criteria)
	}
	return bson.M{"$and": and}
}

func (s *Store) Get(ctx context.Context, criteria bson.M, opts Options) (snippetstore.Results[models.Person], error) {
	res, err := s.base.Get(ctx, restrict(criteria, opts), opts.GetOptions)
	if err != nil {
		return res, err
	}
	if opts.GetGroups {
		for i := range res.Items {
			if res.Items[i].Groups, err = s.GroupsFor(ctx, res.Items[i], opts.Editor); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

func (s *Store) GetOne(ctx context.Context, criteria bson.M, opts Options) (models.Person, error) {
	p, err := s.base.GetOne(ctx, restrict(criteria, opts), opts.GetOptions)
	if err != nil {
		return p, err
	}
	if opts.GetGroups {
		if p.Groups, err = s.GroupsFor(ctx, p, opts.Editor); err != nil {
			return p, err
		}
	}
	return p, nil
}

// ByGroupIDs returns the people linked to any of ids, in the order opts
// asks for. It feeds the group getter's reverse join.
func (s *Store) ByGroupIDs(ctx context.Context, ids []primitive.ObjectID, opts snippetstore.GetOptions) ([]models.Person, error) {
	if len(ids) == 0 {
		return []models.Person{}, nil
	}
	res, err := s.base.Get(ctx, bson.M{"groupIds": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// GroupsFor returns the groups a person belongs to, by title.
func (s *Store) GroupsFor(ctx context.Context, p models.Person, editor bool) ([]models.Group, error) {
	if len(p.GroupIDs) == 0 {
		return []models.Group{}, nil
	}
	res, err := s.groups.Get(ctx, bson.M{"_id": bson.M{"$in": p.GroupIDs}}, snippetstore.GetOptions{Editor: editor})
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// GetByUsername finds a login-enabled person. Publication does not matter
// for signing in.
func (s *Store) GetByUsername(ctx context.Context, username string) (models.Person, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return models.Person{}, ErrNotFound
	}
	return s.base.GetOne(ctx, bson.M{"username": username, "login": true}, snippetstore.GetOptions{Editor: true})
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Person, error) {
	return s.base.GetByID(ctx, id)
}

// Save inserts p when it has no ID, otherwise replaces it. groupIds is
// always written as an array so $addToSet and $pull can apply to it.
func (s *Store) Save(ctx context.Context, p *models.Person) error {
	if p.GroupIDs == nil {
		p.GroupIDs = []primitive.ObjectID{}
	}
	if p.ID.IsZero() {
		return s.base.Insert(ctx, p)
	}
	return s.base.Update(ctx, p)
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return s.base.Delete(ctx, id)
}
