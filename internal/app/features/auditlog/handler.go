// internal/app/features/auditlog/handler.go
package auditlog

import (
	errorsfeature "github.com/dalemusser/directory/internal/app/features/errors"
	"github.com/dalemusser/directory/internal/app/store/audit"
	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the admin view of recorded audit events.
type Handler struct {
	Audit  *audit.Store
	People *peoplestore.Store
	ErrLog *errorsfeature.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, errLog *errorsfeature.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Audit:  audit.New(db),
		People: peoplestore.New(db),
		ErrLog: errLog,
		Log:    logger,
	}
}
