// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dalemusser/directory/internal/app/system/auditlog"
	"github.com/dalemusser/directory/internal/app/system/fields"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for the directory.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: DIRECTORY_MONGO_URI, DIRECTORY_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "directory", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: devSessionKey, Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "directory-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "168h", Desc: "Session lifetime (e.g., 12h, 168h)"},
	{Name: "csrf_key", Default: "", Desc: "CSRF token key, 32 bytes (blank reuses session_key)"},

	// Directory
	{Name: "people_sortable", Default: false, Desc: "Let editors order the people in a group"},
	{Name: "people_extras", Default: "jobTitle:Job Title", Desc: "Per-membership fields as name:Label pairs, comma separated ('none' disables)"},
	{Name: "per_page", Default: 10, Desc: "People per directory index page"},
	{Name: "permissions_file", Default: "", Desc: "YAML file replacing the generated permission list"},

	// Audit logging
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Development
	{Name: "livereload_dir", Default: "", Desc: "Directory watched for live reload (dev only)"},
}

const devSessionKey = "dev-only-change-me-please-0123456789ABCDEF"

// minSessionKey is the shortest session key accepted outside dev.
const minSessionKey = 32

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, DIRECTORY_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "DIRECTORY", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	extras, err := parseExtras(appValues.String("people_extras"))
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 7*24*time.Hour),
		CSRFKey:          appValues.String("csrf_key"),

		PeopleSortable:  appValues.Bool("people_sortable"),
		PeopleExtras:    extras,
		PerPage:         appValues.Int("per_page"),
		PermissionsFile: appValues.String("permissions_file"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		LivereloadDir: appValues.String("livereload_dir"),
	}
	if appCfg.PerPage <= 0 {
		appCfg.PerPage = 10
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// The MongoDB URI format is checked here to catch configuration errors
// early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if coreCfg.Env != "dev" {
		if err := checkSessionKey(appCfg.SessionKey); err != nil {
			return err
		}
	}
	for key, mode := range map[string]string{"audit_log_auth": appCfg.AuditLogAuth, "audit_log_admin": appCfg.AuditLogAdmin} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s: unknown mode %q (want all, db, log or off)", key, mode)
		}
	}
	if appCfg.LivereloadDir != "" && coreCfg.Env != "dev" {
		logger.Warn("livereload_dir is ignored outside dev", zap.String("dir", appCfg.LivereloadDir))
	}
	return nil
}

func checkSessionKey(key string) error {
	if key == devSessionKey {
		return errors.New("session_key must be changed from the development default")
	}
	if len(key) < minSessionKey {
		return fmt.Errorf("session_key must be at least %d characters", minSessionKey)
	}
	return nil
}

var extraName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// reserved keys are used by the people picker rows themselves.
var reservedExtras = map[string]bool{"value": true, "label": true, "rank": true}

// parseExtras reads "name:Label, other:Other Label". A bare name is its
// own label; "none" or blank yields no extras.
func parseExtras(s string) ([]fields.Extra, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	var out []fields.Extra
	seen := map[string]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, label, _ := strings.Cut(part, ":")
		name, label = strings.TrimSpace(name), strings.TrimSpace(label)
		if !extraName.MatchString(name) {
			return nil, fmt.Errorf("people_extras: invalid field name %q", name)
		}
		if reservedExtras[name] {
			return nil, fmt.Errorf("people_extras: %q is reserved", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("people_extras: %q listed twice", name)
		}
		seen[name] = true
		if label == "" {
			label = name
		}
		out = append(out, fields.Extra{Name: name, Label: label, Type: "text"})
	}
	return out, nil
}
