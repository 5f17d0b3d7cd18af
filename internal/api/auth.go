package api

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/backend"
	"github.com/kututorium/adminserve/internal/middleware"
	"github.com/kututorium/adminserve/internal/session"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Redirect string `json:"redirect"`
}

type loginResponse struct {
	Redirect string `json:"redirect"`
}

// LoginHandler handles POST /login with either a form or a JSON body. On
// success it sets the session cookie; form posts are redirected, JSON
// callers get the redirect target in the body.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "login"
	const method = "POST"
	defer func() { s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start)) }()

	logger := middleware.LoggerFromRequest(r, s.Logger)
	ip := s.clientIP(r)

	if s.LoginLimiter != nil && !s.LoginLimiter.Allow(ip) {
		logger.Warn("login rate limited", zap.String("ip", ip))
		s.Metrics.IncrementLoginAttempts("limited")
		s.Metrics.IncrementRequests(endpoint, method, "429")
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "Too many login attempts. Try again later.")
		return
	}

	jsonBody := isJSON(r)
	var req loginRequest
	if jsonBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			writeError(w, http.StatusBadRequest, "invalid json")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			writeError(w, http.StatusBadRequest, "invalid form")
			return
		}
		req = loginRequest{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
			Redirect: r.FormValue("redirect"),
		}
	}
	req.Username = strings.TrimSpace(req.Username)
	target := safeRedirect(req.Redirect)

	admin, err := s.Backend.AuthenticateAdmin(r.Context(), req.Username, req.Password)
	if err != nil {
		msg := err.Error()
		var le *backend.LoginError
		if errors.As(err, &le) {
			msg = le.Msg
		}
		logger.Info("login failed", append(clientFields(r, ip), zap.String("username", req.Username), zap.Error(err))...)
		s.Metrics.IncrementLoginAttempts("failure")
		s.Metrics.IncrementRequests(endpoint, method, "401")
		if jsonBody {
			writeError(w, http.StatusUnauthorized, msg)
			return
		}
		q := url.Values{"error": {msg}}
		if target != "/" {
			q.Set("redirect", target)
		}
		http.Redirect(w, r, "/login?"+q.Encode(), http.StatusSeeOther)
		return
	}

	tok, err := s.Sessions.Issue(session.Session{
		UserID:       admin.UserID,
		StudentID:    admin.StudentID,
		BackendToken: admin.Token,
		Admin:        true,
	})
	if err != nil {
		logger.Error("issue session", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(s.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.Config.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	logger.Info("admin signed in", append(clientFields(r, ip),
		zap.Int64("user_id", admin.UserID),
		zap.String("student_id", admin.StudentID))...)
	s.Metrics.IncrementLoginAttempts("success")

	if jsonBody {
		s.Metrics.IncrementRequests(endpoint, method, "200")
		writeJSON(w, loginResponse{Redirect: target})
		return
	}
	s.Metrics.IncrementRequests(endpoint, method, "303")
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// LogoutHandler clears the session cookie and returns to the login page.
func (s *Server) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.Config.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	s.Metrics.IncrementRequests("logout", r.Method, "303")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type meResponse struct {
	UserID    int64     `json:"user_id"`
	StudentID string    `json:"student_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MeHandler describes the signed-in admin.
func (s *Server) MeHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	s.Metrics.IncrementRequests("me", "GET", "200")
	writeJSON(w, meResponse{UserID: sess.UserID, StudentID: sess.StudentID, ExpiresAt: sess.ExpiresAt})
}

func isJSON(r *http.Request) bool {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json"
}

// safeRedirect keeps redirects on this site.
func safeRedirect(target string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	if strings.HasPrefix(target, "/login") {
		return "/"
	}
	return target
}

// clientFields describes the caller's browser for the sign-in audit log.
func clientFields(r *http.Request, ip string) []zap.Field {
	ua := uasurfer.Parse(r.UserAgent())
	bv := ua.Browser.Version
	return []zap.Field{
		zap.String("ip", ip),
		zap.String("browser", strings.TrimPrefix(ua.Browser.Name.String(), "Browser")+" "+strconv.Itoa(bv.Major)),
		zap.String("os", strings.TrimPrefix(ua.OS.Name.String(), "OS")),
		zap.String("device", deviceType(ua.DeviceType)),
		zap.Bool("bot", ua.IsBot()),
	}
}

func deviceType(d uasurfer.DeviceType) string {
	switch d {
	case uasurfer.DeviceComputer:
		return "desktop"
	case uasurfer.DevicePhone:
		return "mobile"
	case uasurfer.DeviceTablet:
		return "tablet"
	}
	return "other"
}
