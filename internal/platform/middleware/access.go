package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/lims/lims/internal/platform/auth"
)

// AccessEntry captures who accessed which LIMS module, when, from where, and
// the action type. Emitted for every /api/v1 request as part of the
// regulatory access trail.
type AccessEntry struct {
	UserID     string
	UserRoles  []string
	Module     string
	Action     string // read, create, update, delete
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AccessRecorder is the interface the access-log middleware uses to persist
// entries, decoupling it from any concrete sink so tests can provide a mock.
type AccessRecorder interface {
	RecordAccess(entry AccessEntry) error
}

// AccessRecorderFunc is a function adapter for AccessRecorder.
type AccessRecorderFunc func(entry AccessEntry) error

func (f AccessRecorderFunc) RecordAccess(entry AccessEntry) error {
	return f(entry)
}

// AccessLog returns Echo middleware that logs every /api/v1 request with the
// authenticated user, target module, and action. If no AccessRecorder is
// provided it falls back to structured zerolog logging only.
func AccessLog(logger zerolog.Logger, recorders ...AccessRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			if !strings.HasPrefix(path, "/api/v1/") {
				return next(c)
			}

			// Execute the handler first so we capture the response status
			err := next(c)

			entry := AccessEntry{
				Timestamp:  time.Now().UTC(),
				Path:       path,
				Method:     req.Method,
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				StatusCode: c.Response().Status,
				Action:     httpMethodToAction(req.Method),
				Module:     moduleFromPath(path),
			}

			ctx := req.Context()
			entry.UserID = auth.UserIDFromContext(ctx)
			entry.UserRoles = auth.RolesFromContext(ctx)

			if rid, ok := c.Get("request_id").(string); ok {
				entry.RequestID = rid
			}

			if len(recorders) > 0 && recorders[0] != nil {
				if recErr := recorders[0].RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record access entry")
				}
			}

			logger.Info().
				Str("type", "access_trail").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Strs("user_roles", entry.UserRoles).
				Str("module", entry.Module).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("module_access")

			return err
		}
	}
}

// httpMethodToAction maps HTTP methods to access-trail action names.
func httpMethodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

// moduleFromPath parses the LIMS module name from a URL path:
// /api/v1/samples/123 -> samples.
func moduleFromPath(path string) string {
	segments := strings.Split(strings.TrimPrefix(path, "/api/v1/"), "/")
	if len(segments) > 0 && segments[0] != "" {
		return segments[0]
	}
	return "unknown"
}
