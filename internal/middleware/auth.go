package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/session"
)

type sessionKey struct{}

var assetExts = map[string]bool{
	".svg": true, ".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".webp": true, ".ico": true, ".css": true, ".js": true,
}

// Public reports whether p can be served without a session.
func Public(p string) bool {
	switch {
	case strings.HasPrefix(p, "/login"),
		strings.HasPrefix(p, "/static/"),
		p == "/logout", p == "/health", p == "/metrics", p == "/favicon.ico":
		return true
	}
	return assetExts[strings.ToLower(path.Ext(p))]
}

// RequireSession lets through public paths and requests carrying a valid
// admin session cookie. API calls without one get a 401; page loads are sent
// to the login page with the original path in "redirect".
func RequireSession(sessions *session.Manager, fallback *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Public(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			s, err := sessionFromCookie(r, sessions)
			if err == nil && !s.Admin {
				err = session.ErrInvalid
			}
			if err != nil {
				LoggerFromRequest(r, fallback).Debug("session rejected",
					zap.String("path", r.URL.Path), zap.Error(err))
				if strings.HasPrefix(r.URL.Path, "/api/") {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusUnauthorized)
					_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
					return
				}
				http.Redirect(w, r, "/login?redirect="+url.QueryEscape(r.URL.Path), http.StatusFound)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

func sessionFromCookie(r *http.Request, sessions *session.Manager) (session.Session, error) {
	c, err := r.Cookie(session.CookieName)
	if err != nil || c.Value == "" {
		return session.Session{}, errors.New("no session cookie")
	}
	return sessions.Verify(c.Value)
}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session set by RequireSession.
func SessionFromContext(ctx context.Context) (session.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(session.Session)
	return s, ok
}
