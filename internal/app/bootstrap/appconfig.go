// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/directory/internal/app/system/fields"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). Framework-level settings such
// as ports, TLS and log level live in WAFFLE's CoreConfig instead.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // Secret key for signing session cookies (must be strong in production)
	SessionName   string // Cookie name for sessions (default: directory-session)
	SessionDomain string // Cookie domain (blank means current host)
	SessionMaxAge time.Duration

	// CSRFKey signs the form token cookie. Falls back to SessionKey when blank.
	CSRFKey string

	// Directory behavior
	PeopleSortable bool           // editors may reorder a group's people; listings follow that order
	PeopleExtras   []fields.Extra // per-membership columns on the people picker
	PerPage        int            // people per directory index page

	// PermissionsFile replaces the generated permission catalog when set.
	PermissionsFile string

	// Audit destinations per category: all, db, log or off.
	AuditLogAuth  string
	AuditLogAdmin string

	// LivereloadDir is watched for changes in dev; blank disables /livereload.
	LivereloadDir string
}
