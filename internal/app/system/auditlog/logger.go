// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/directory/internal/app/store/audit"
	"github.com/dalemusser/directory/internal/app/system/auth"
	"github.com/dalemusser/directory/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Destinations for a category of events.
const (
	ModeAll = "all" // MongoDB + zap
	ModeDB  = "db"
	ModeLog = "log"
	ModeOff = "off"
)

// Config picks a destination per category.
type Config struct {
	Auth  string // login, logout
	Admin string // group editor changes
}

// Logger records audit events to the audit store and to zap.
// A nil *Logger is valid and records nothing.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{store: store, zapLog: zapLog, config: config}
}

// ValidMode reports whether s is a known destination.
func ValidMode(s string) bool {
	switch s {
	case ModeAll, ModeDB, ModeLog, ModeOff:
		return true
	}
	return false
}

func (l *Logger) mode(category string) string {
	switch category {
	case audit.CategoryAuth:
		return l.config.Auth
	case audit.CategoryAdmin:
		return l.config.Admin
	}
	return ModeAll
}

// Log records event according to its category's mode. Store failures are
// logged and otherwise ignored; auditing never fails the request.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	mode := l.mode(event.Category)
	if mode == ModeOff {
		return
	}
	if mode == ModeAll || mode == ModeLog || mode == "" {
		l.logToZap(event)
	}
	if (mode == ModeAll || mode == ModeDB || mode == "") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType))
		}
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.PersonID != nil {
		fields = append(fields, zap.String("person_id", event.PersonID.Hex()))
	}
	if event.GroupID != nil {
		fields = append(fields, zap.String("group_id", event.GroupID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// base fills the request context shared by every event.
func base(r *http.Request, category, eventType string, success bool) audit.Event {
	e := audit.Event{
		Category:  category,
		EventType: eventType,
		Success:   success,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
	if u, ok := auth.CurrentUser(r); ok {
		e.ActorID = objectID(u.ID)
	}
	return e
}

func objectID(hex string) *primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}

// --- Authentication events ---

func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, personID, username string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginSuccess, true)
	e.PersonID = objectID(personID)
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

// LoginFailed records a rejected attempt. The username is what was typed,
// which may not exist.
func (l *Logger) LoginFailed(ctx context.Context, r *http.Request, username, reason string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginFailed, false)
	e.FailureReason = reason
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

func (l *Logger) LoginRateLimited(ctx context.Context, r *http.Request, username string) {
	e := base(r, audit.CategoryAuth, audit.EventLoginRateLimited, false)
	e.FailureReason = "rate limited"
	e.Details = map[string]string{"username": username}
	l.Log(ctx, e)
}

// Logout must be called before the session is cleared so the actor is known.
func (l *Logger) Logout(ctx context.Context, r *http.Request) {
	e := base(r, audit.CategoryAuth, audit.EventLogout, true)
	e.PersonID = e.ActorID
	l.Log(ctx, e)
}

// --- Admin events ---

func (l *Logger) GroupCreated(ctx context.Context, r *http.Request, groupID primitive.ObjectID, title string) {
	e := base(r, audit.CategoryAdmin, audit.EventGroupCreated, true)
	e.GroupID = &groupID
	e.Details = map[string]string{"title": title}
	l.Log(ctx, e)
}

func (l *Logger) GroupUpdated(ctx context.Context, r *http.Request, groupID primitive.ObjectID, title string) {
	e := base(r, audit.CategoryAdmin, audit.EventGroupUpdated, true)
	e.GroupID = &groupID
	e.Details = map[string]string{"title": title}
	l.Log(ctx, e)
}

func (l *Logger) GroupDeleted(ctx context.Context, r *http.Request, groupID primitive.ObjectID) {
	e := base(r, audit.CategoryAdmin, audit.EventGroupDeleted, true)
	e.GroupID = &groupID
	l.Log(ctx, e)
}

// MembersSynced records the size of the selection a group save kept.
func (l *Logger) MembersSynced(ctx context.Context, r *http.Request, groupID primitive.ObjectID, members int) {
	e := base(r, audit.CategoryAdmin, audit.EventMembersSynced, true)
	e.GroupID = &groupID
	e.Details = map[string]string{"members": strconv.Itoa(members)}
	l.Log(ctx, e)
}

func (l *Logger) GroupsImported(ctx context.Context, r *http.Request, created, updated, skipped int) {
	e := base(r, audit.CategoryAdmin, audit.EventGroupsImport, true)
	e.Details = map[string]string{
		"created": strconv.Itoa(created),
		"updated": strconv.Itoa(updated),
		"skipped": strconv.Itoa(skipped),
	}
	l.Log(ctx, e)
}
