// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryAuth  = "auth"
	CategoryAdmin = "admin"
)

// Auth event types
const (
	EventLoginSuccess     = "login_success"
	EventLoginFailed      = "login_failed"
	EventLoginRateLimited = "login_rate_limited"
	EventLogout           = "logout"
)

// Admin event types
const (
	EventGroupCreated  = "group_created"
	EventGroupUpdated  = "group_updated"
	EventGroupDeleted  = "group_deleted"
	EventGroupsImport  = "groups_imported"
	EventMembersSynced = "group_members_synced"
)

// Event is one audit record.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who acted, and on what.
	ActorID  *primitive.ObjectID `bson:"actor_id,omitempty"`
	PersonID *primitive.ObjectID `bson:"person_id,omitempty"`
	GroupID  *primitive.ObjectID `bson:"group_id,omitempty"`

	IP        string `bson:"ip"`
	UserAgent string `bson:"user_agent,omitempty"`

	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter narrows Query and Count. Zero fields match everything.
type QueryFilter struct {
	Category  string
	EventType string
	ActorID   *primitive.ObjectID
	GroupID   *primitive.ObjectID
	Since     *time.Time
	Limit     int64
	Offset    int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// Collection holds audit events.
const Collection = "audit_events"

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Log records an event, stamping its ID and time when unset.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query returns matching events, newest first. Limit defaults to 100.
func (s *Store) Query(ctx context.Context, f QueryFilter) ([]Event, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit).
		SetSkip(f.Offset)

	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []Event
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns how many events match, ignoring Limit and Offset.
func (s *Store) Count(ctx context.Context, f QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

func (f QueryFilter) query() bson.M {
	q := bson.M{}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.EventType != "" {
		q["event_type"] = f.EventType
	}
	if f.ActorID != nil {
		q["actor_id"] = *f.ActorID
	}
	if f.GroupID != nil {
		q["group_id"] = *f.GroupID
	}
	if f.Since != nil {
		q["timestamp"] = bson.M{"$gte": *f.Since}
	}
	return q
}
