package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/backend"
	"github.com/kututorium/adminserve/internal/config"
	"github.com/kututorium/adminserve/internal/middleware"
	"github.com/kututorium/adminserve/internal/moderation"
	"github.com/kututorium/adminserve/internal/observability"
	"github.com/kututorium/adminserve/internal/ratelimit"
	"github.com/kututorium/adminserve/internal/session"
)

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger       *zap.Logger
	Metrics      observability.MetricsRegistry
	Config       config.Config
	Backend      *backend.Client
	Moderation   *moderation.Service
	Sessions     *session.Manager
	LoginLimiter *ratelimit.KeyedLimiter

	trustedProxies []netip.Prefix
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, metrics observability.MetricsRegistry, cfg config.Config, client *backend.Client, svc *moderation.Service, sessions *session.Manager, limiter *ratelimit.KeyedLimiter) *Server {
	trusted, err := cfg.TrustedProxyPrefixes()
	if err != nil {
		logger.Warn("ignoring TRUSTED_PROXIES", zap.Error(err))
	}
	return &Server{
		trustedProxies: trusted,
		Logger:       logger,
		Metrics:      metrics,
		Config:       cfg,
		Backend:      client,
		Moderation:   svc,
		Sessions:     sessions,
		LoginLimiter: limiter,
	}
}

// Router builds the full handler: routes, the session gate, per-request
// loggers and sampled access logs, wrapped in an otelhttp server span.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", s.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/login", s.LoginHandler).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.LogoutHandler).Methods(http.MethodPost, http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/me", s.MeHandler).Methods(http.MethodGet)
	api.HandleFunc("/reports", s.ListReportsHandler).Methods(http.MethodGet)
	api.HandleFunc("/reports/export", s.ExportReportsHandler).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}", s.GetReportHandler).Methods(http.MethodGet)
	api.HandleFunc("/reports/{id}/decision", s.DecideReportHandler).Methods(http.MethodPost)
	api.HandleFunc("/users", s.ListUsersHandler).Methods(http.MethodGet)
	api.HandleFunc("/users/export", s.ExportUsersHandler).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/bans/{role}", s.BanHandler).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/bans/{role}", s.UnbanHandler).Methods(http.MethodDelete)
	api.PathPrefix("/proxy/").Handler(s.ProxyHandler())

	var h http.Handler = r
	h = middleware.RequireSession(s.Sessions, s.Logger)(h)
	h = middleware.AccessLog(s.Logger, observability.GetSamplingRate())(h)
	h = middleware.WithTraceLogger(s.Logger)(h)
	return otelhttp.NewHandler(h, s.Config.ServiceName)
}

// helper function to write JSON response
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON shape of every API error.
type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// statusFor maps service and backend errors to the status returned to the
// dashboard.
func statusFor(err error) int {
	switch {
	case errors.Is(err, moderation.ErrBusy), errors.Is(err, moderation.ErrNotPending):
		return http.StatusConflict
	case errors.Is(err, moderation.ErrNoteRequired), errors.Is(err, moderation.ErrInvalidAction),
		errors.Is(err, moderation.ErrNoRole), errors.Is(err, moderation.ErrNotBanned):
		return http.StatusUnprocessableEntity
	case errors.Is(err, moderation.ErrUserNotFound), errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	}
	switch backend.StatusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return http.StatusUnauthorized
	case http.StatusNotFound:
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

// fail logs err, records the request and writes the mapped status.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	status := statusFor(err)
	logger := middleware.LoggerFromRequest(r, s.Logger)
	if status == http.StatusBadGateway {
		logger.Error("backend request failed", zap.String("endpoint", endpoint), zap.Error(err))
	} else {
		logger.Info("request rejected", zap.String("endpoint", endpoint), zap.Error(err))
	}
	s.Metrics.IncrementRequests(endpoint, r.Method, strconv.Itoa(status))
	writeError(w, status, err.Error())
}

// backendToken returns the bearer token of the signed-in admin.
func backendToken(r *http.Request) string {
	sess, _ := middleware.SessionFromContext(r.Context())
	return sess.BackendToken
}

// clientIP returns the caller address. X-Forwarded-For is only read when the
// connection comes from a trusted proxy; the right-most hop that is not itself
// a trusted proxy is the client, since anything left of it is caller supplied.
func (s *Server) clientIP(r *http.Request) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if !s.trusted(remote) {
		return remote
	}

	var hops []string
	for _, v := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(v, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}
	for i := len(hops) - 1; i >= 0; i-- {
		if !s.trusted(hops[i]) {
			return hops[i]
		}
	}
	if len(hops) > 0 {
		return hops[0]
	}
	return remote
}

func (s *Server) trusted(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range s.trustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}
