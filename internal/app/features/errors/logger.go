// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/dalemusser/directory/internal/app/system/auth"
	"github.com/dalemusser/directory/internal/app/system/viewdata"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrorLogger logs handler failures with a correlation ID and shows the
// user a page carrying the same ID.
type ErrorLogger struct {
	Log *zap.Logger
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{Log: logger}
}

// LogServerError logs err at error level and renders a 500 page.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	id := e.log(zap.ErrorLevel, r, msg, err)
	e.page(w, r, http.StatusInternalServerError, "Something went wrong", userMsg, backURL, id)
}

// LogBadRequest logs err at warn level and renders a 400 page.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg, backURL string) {
	id := e.log(zap.WarnLevel, r, msg, err)
	e.page(w, r, http.StatusBadRequest, "Bad request", userMsg, backURL, id)
}

func (e *ErrorLogger) log(level zapcore.Level, r *http.Request, msg string, err error) string {
	id := uuid.NewString()
	fields := []zap.Field{
		zap.String("error_id", id),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err),
	}
	if u, ok := auth.CurrentUser(r); ok {
		fields = append(fields, zap.String("user_id", u.ID))
	}
	if ce := e.Log.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
	return id
}

func (e *ErrorLogger) page(w http.ResponseWriter, r *http.Request, status int, title, userMsg, backURL, id string) {
	if userMsg == "" {
		userMsg = "An unexpected error occurred."
	}
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, title, "/"),
		Message: userMsg,
		ErrorID: id,
	}
	if backURL != "" {
		data.BackURL = backURL
	}
	render(w, r, status, data)
}
