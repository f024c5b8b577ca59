// internal/app/store/memberships/membershipstore.go
package membershipstore

// Memberships are stored on the person, not the group: each person carries
// groupIds (indexed, so $in/$nin queries are cheap) and groupExtras keyed
// by the group's hex ID:
//
//	{ title: "Bob Smith", groupIds: [g1], groupExtras: { "<g1>": { jobTitle: "Flosser", rank: 0 } } }

import (
	"context"
	"fmt"
	"strings"

	snippetstore "github.com/dalemusser/directory/internal/app/store/snippets"
	"github.com/dalemusser/directory/internal/app/system/txn"
	"github.com/dalemusser/directory/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Step names one of the four writes a sync performs, in order.
type Step int

const (
	StepLink Step = iota + 1
	StepSetExtras
	StepUnlink
	StepUnsetExtras
)

func (s Step) String() string {
	switch s {
	case StepLink:
		return "link"
	case StepSetExtras:
		return "set-extras"
	case StepUnlink:
		return "unlink"
	case StepUnsetExtras:
		return "unset-extras"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// Op is one planned update against the snippets collection.
type Op struct {
	Step   Step
	Filter bson.M
	Update bson.M
	Many   bool
}

// Plan computes the writes that make groupID's membership equal to infos.
// Rows whose value is not a valid ObjectID are dropped, and a person listed
// twice keeps the first row. When sortable, each kept row's extras get
// rank = its position.
func Plan(groupID primitive.ObjectID, infos []models.PersonInfo, sortable bool) []Op {
	extrasKey := "groupExtras." + groupID.Hex()

	ids := make([]primitive.ObjectID, 0, len(infos))
	rows := make([]models.PersonInfo, 0, len(infos))
	seen := make(map[primitive.ObjectID]bool, len(infos))
	for _, info := range infos {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(info.Value))
		if err != nil || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		rows = append(rows, info)
	}

	ops := make([]Op, 0, len(rows)+3)
	ops = append(ops, Op{
		Step:   StepLink,
		Filter: bson.M{"type": models.TypePerson, "_id": bson.M{"$in": ids}},
		Update: bson.M{"$addToSet": bson.M{"groupIds": groupID}},
		Many:   true,
	})

	for n, info := range rows {
		extras := models.Extras{}
		for k, v := range info.Extras {
			if k == "value" {
				continue
			}
			extras[k] = v
		}
		if sortable {
			extras[models.RankKey] = n
		}
		ops = append(ops, Op{
			Step:   StepSetExtras,
			Filter: bson.M{"_id": ids[n]},
			Update: bson.M{"$set": bson.M{extrasKey: extras}},
		})
	}

	notSelected := bson.M{"type": models.TypePerson, "_id": bson.M{"$nin": ids}}
	ops = append(ops,
		Op{
			Step:   StepUnlink,
			Filter: notSelected,
			Update: bson.M{"$pull": bson.M{"groupIds": groupID}},
			Many:   true,
		},
		Op{
			Step:   StepUnsetExtras,
			Filter: notSelected,
			Update: bson.M{"$unset": bson.M{extrasKey: ""}},
			Many:   true,
		},
	)
	return ops
}

// Store applies membership plans.
type Store struct {
	db       *mongo.Database
	c        *mongo.Collection
	log      *zap.Logger
	sortable bool
}

func New(db *mongo.Database, logger *zap.Logger, sortable bool) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, c: db.Collection(snippetstore.Collection), log: logger, sortable: sortable}
}

// Sync makes the group's members exactly the people in infos. The steps
// run in one transaction when the server supports it; otherwise they run
// in order and stop at the first failure.
func (s *Store) Sync(ctx context.Context, groupID primitive.ObjectID, infos []models.PersonInfo) error {
	ops := Plan(groupID, infos, s.sortable)
	return txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		return s.apply(ctx, ops)
	})
}

// Unlink removes every person's link to groupID.
func (s *Store) Unlink(ctx context.Context, groupID primitive.ObjectID) error {
	return s.Sync(ctx, groupID, nil)
}

func (s *Store) apply(ctx context.Context, ops []Op) error {
	for _, op := range ops {
		var err error
		if op.Many {
			_, err = s.c.UpdateMany(ctx, op.Filter, op.Update)
		} else {
			_, err = s.c.UpdateOne(ctx, op.Filter, op.Update)
		}
		if err != nil {
			return fmt.Errorf("membership %s: %w", op.Step, err)
		}
	}
	return nil
}
