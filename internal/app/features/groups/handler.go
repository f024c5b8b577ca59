// internal/app/features/groups/handler.go
package groups

import (
	errorsfeature "github.com/dalemusser/directory/internal/app/features/errors"
	groupstore "github.com/dalemusser/directory/internal/app/store/groups"
	membershipstore "github.com/dalemusser/directory/internal/app/store/memberships"
	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	"github.com/dalemusser/directory/internal/app/system/auditlog"
	"github.com/dalemusser/directory/internal/app/system/fields"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler is the shared dependency container for the group editor.
// Schema lists the editor's fields in form order; each entry is rendered
// and parsed by the field type registered under its Type.
type Handler struct {
	DB      *mongo.Database
	Groups  *groupstore.Store
	People  *peoplestore.Store
	Members *membershipstore.Store
	Fields  *fields.Registry
	Schema  []fields.Spec
	ErrLog  *errorsfeature.ErrorLogger
	Audit   *auditlog.Logger
	Log     *zap.Logger
}

// NewHandler constructs the group editor. It is called from the bootstrap
// BuildHandler function once the database and field registry exist.
func NewHandler(db *mongo.Database, reg *fields.Registry, schema []fields.Spec, sortable bool, errLog *errorsfeature.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	people := peoplestore.New(db)
	return &Handler{
		DB:      db,
		Groups:  groupstore.New(db, people, sortable),
		People:  people,
		Members: membershipstore.New(db, logger, sortable),
		Fields:  reg,
		Schema:  schema,
		ErrLog:  errLog,
		Audit:   audit,
		Log:     logger,
	}
}

// Schema returns the group editor schema: the permissions checkboxes and
// the people picker with its per-membership extras.
func Schema(extras []fields.Extra) []fields.Spec {
	return []fields.Spec{
		{Name: "permissions", Label: "Permissions", Type: fields.TypePermissions},
		{Name: "people", Label: "People", Type: fields.TypePeople, Extras: extras},
	}
}
