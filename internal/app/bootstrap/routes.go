// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"crypto/sha256"
	"net/http"
	"sync"

	auditlogfeature "github.com/dalemusser/directory/internal/app/features/auditlog"
	directoryfeature "github.com/dalemusser/directory/internal/app/features/directory"
	errorsfeature "github.com/dalemusser/directory/internal/app/features/errors"
	groupsfeature "github.com/dalemusser/directory/internal/app/features/groups"
	healthfeature "github.com/dalemusser/directory/internal/app/features/health"
	loginfeature "github.com/dalemusser/directory/internal/app/features/login"
	logoutfeature "github.com/dalemusser/directory/internal/app/features/logout"
	"github.com/dalemusser/directory/internal/app/store/audit"
	"github.com/dalemusser/directory/internal/app/system/auditlog"
	"github.com/dalemusser/directory/internal/app/system/auth"
	"github.com/dalemusser/directory/internal/app/system/fields"
	"github.com/dalemusser/directory/internal/app/system/livereload"
	"github.com/dalemusser/directory/internal/app/system/permissions"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// contentTypes feed the generated permission catalog. Groups are edited
// by admins only and get no per-type tokens.
var contentTypes = []permissions.ContentType{
	{Name: "person", Label: "Person"},
	{Name: "group", AdminOnly: true},
	{Name: "directoryPage", Label: "Directory Page"},
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. The router carries the session and CSRF
// middleware, the login and admin areas, and hands every path nothing else
// claims to the directory dispatcher.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	reg, err := buildFields(appCfg, logger)
	if err != nil {
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	db := deps.MongoDatabase
	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	r := chi.NewRouter()

	if !secure {
		r.Use(plaintextCSRF)
	}
	r.Use(csrf.Protect(csrfKey(appCfg),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailed)),
	))
	r.Use(sessionMgr.LoadSessionUser)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	if liveReloadEnabled(coreCfg, appCfg) {
		r.Handle("/livereload", startLiveReload(appCfg.LivereloadDir, logger))
	}

	loginHandler := loginfeature.NewHandler(db, sessionMgr, errLog, auditLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	groupsHandler := groupsfeature.NewHandler(db, reg, groupsfeature.Schema(appCfg.PeopleExtras), appCfg.PeopleSortable, errLog, auditLog, logger)
	r.Mount("/admin/groups", groupsfeature.Routes(groupsHandler, sessionMgr))

	auditHandler := auditlogfeature.NewHandler(db, errLog, logger)
	r.Mount("/admin/audit", auditlogfeature.Routes(auditHandler, sessionMgr))

	// Directory pages live at editor-chosen slugs anywhere in the tree.
	dirHandler := directoryfeature.NewHandler(db, appCfg.PeopleSortable, appCfg.PerPage, errLog, logger)
	r.NotFound(dirHandler.ServeHTTP)
	r.MethodNotAllowed(errorsHandler.NotFound)

	return r, nil
}

// buildFields registers the editor field types. The permission catalog
// comes from permissions_file when set.
func buildFields(appCfg AppConfig, logger *zap.Logger) (*fields.Registry, error) {
	catalog := permissions.Build(contentTypes)
	if appCfg.PermissionsFile != "" {
		c, err := permissions.Load(appCfg.PermissionsFile)
		if err != nil {
			logger.Error("load permissions file failed", zap.String("path", appCfg.PermissionsFile), zap.Error(err))
			return nil, err
		}
		catalog = c
	}
	return fields.NewRegistry(
		fields.PermissionsField{Catalog: catalog},
		fields.PeopleField{Sortable: appCfg.PeopleSortable},
	)
}

// csrfKey returns the 32-byte CSRF key, derived from the session key when
// no dedicated key is configured.
func csrfKey(appCfg AppConfig) []byte {
	src := appCfg.CSRFKey
	if src == "" {
		src = appCfg.SessionKey
	}
	sum := sha256.Sum256([]byte(src))
	return sum[:]
}

// plaintextCSRF marks non-TLS requests so the CSRF origin checks apply
// plain-HTTP rules in dev.
func plaintextCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.TLS == nil {
			r = csrf.PlaintextHTTPRequest(r)
		}
		next.ServeHTTP(w, r)
	})
}

func csrfFailed(w http.ResponseWriter, r *http.Request) {
	errorsfeature.RenderForbidden(w, r, "Your form expired. Go back, reload the page and try again.", "/")
}

var (
	liveReloadMu   sync.Mutex
	stopLiveReload context.CancelFunc
)

// startLiveReload runs the watcher until Shutdown and returns the SSE
// endpoint its changes are broadcast on.
func startLiveReload(dir string, logger *zap.Logger) http.Handler {
	broker := livereload.NewBroker(logger)
	ctx, cancel := context.WithCancel(context.Background())

	liveReloadMu.Lock()
	stopLiveReload = cancel
	liveReloadMu.Unlock()

	w := &livereload.Watcher{Dir: dir, OnChange: broker.Notify, Log: logger}
	go func() {
		if err := w.Run(ctx); err != nil {
			logger.Warn("livereload watcher stopped", zap.Error(err))
		}
	}()
	return broker
}

func stopLiveReloadWatcher() {
	liveReloadMu.Lock()
	defer liveReloadMu.Unlock()
	if stopLiveReload != nil {
		stopLiveReload()
		stopLiveReload = nil
	}
}
