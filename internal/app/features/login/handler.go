// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	errorsfeature "github.com/dalemusser/directory/internal/app/features/errors"
	peoplestore "github.com/dalemusser/directory/internal/app/store/people"
	"github.com/dalemusser/directory/internal/app/system/auditlog"
	"github.com/dalemusser/directory/internal/app/system/auth"
	"github.com/dalemusser/directory/internal/app/system/limits"
	"github.com/dalemusser/directory/internal/app/system/permissions"
	"github.com/dalemusser/directory/internal/app/system/ratelimit"
	"github.com/dalemusser/directory/internal/app/system/timeouts"
	"github.com/dalemusser/directory/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers an unknown username, a person who may not
// log in, and a wrong password alike.
var ErrInvalidCredentials = errors.New("invalid username or password")

// Handler serves the login form. Limiter may be nil, which disables
// attempt throttling.
type Handler struct {
	People     *peoplestore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Audit      *auditlog.Logger
	ErrLog     *errorsfeature.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, sessionMgr *auth.SessionManager, errLog *errorsfeature.ErrorLogger, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		People:     peoplestore.New(db),
		SessionMgr: sessionMgr,
		Limiter:    ratelimit.NewLoginLimiter(),
		Audit:      audit,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type loginFormData struct {
	viewdata.BaseVM
	ReturnURL string
	Username  string
	Error     string
}

// ServeLogin handles GET /login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Log in", "/"),
		ReturnURL: query.Get(r, "return"),
	})
}

// HandleLoginPost handles POST /login.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxLoginFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}
	username := strings.TrimSpace(r.PostForm.Get("username"))
	password := r.PostForm.Get("password")
	returnURL := r.PostForm.Get("return")

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, username); !ok {
			h.Log.Warn("login throttled", zap.String("username", username), zap.String("ip", ratelimit.ClientIP(r)))
			h.Audit.LoginRateLimited(r.Context(), r, username)
			h.renderFormWithError(w, r, msg, username, returnURL)
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "login")
	defer cancel()

	u, err := h.Authenticate(ctx, username, password)
	if errors.Is(err, ErrInvalidCredentials) {
		h.Log.Info("login failed", zap.String("username", username))
		h.Audit.LoginFailed(ctx, r, username, "invalid credentials")
		h.renderFormWithError(w, r, "Invalid username or password.", username, returnURL)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "login lookup failed", err, "A database error occurred.", "/login")
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("username", username))
		h.renderFormWithError(w, r, "Unable to create session. Please try again.", username, returnURL)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetUser(username)
	}
	h.Log.Info("login", zap.String("user_id", u.ID), zap.Strings("permissions", u.Permissions))
	h.Audit.LoginSuccess(ctx, r, u.ID, u.Username)

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/"), http.StatusSeeOther)
}

// Authenticate checks a login-enabled person's password and returns the
// session identity with the union of their groups' permissions.
func (h *Handler) Authenticate(ctx context.Context, username, password string) (*auth.SessionUser, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	p, err := h.People.GetByUsername(ctx, username)
	if errors.Is(err, peoplestore.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if p.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	groups, err := h.People.GroupsFor(ctx, p, true)
	if err != nil {
		return nil, err
	}
	return &auth.SessionUser{
		ID:          p.ID.Hex(),
		Name:        p.Title,
		Username:    p.Username,
		Permissions: permissions.Effective(groups),
	}, nil
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, msg, username, returnURL string) {
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Log in", "/"),
		ReturnURL: returnURL,
		Username:  username,
		Error:     msg,
	})
}
