package api

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/middleware"
)

const proxyPrefix = "/api/proxy/"

// ProxyHandler forwards /api/proxy/<path> to <backend>/<path> on behalf of
// the dashboard. Only Accept, Content-Type and Authorization travel upstream;
// the session's backend token is used when the caller sends no
// Authorization. Only the status and Content-Type come back. Redirects are
// returned as-is, never followed.
func (s *Server) ProxyHandler() http.Handler {
	base, err := url.Parse(s.Backend.BaseURL())
	if err != nil || base.Host == "" {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusInternalServerError, "backend url is not configured")
		})
	}

	rp := &httputil.ReverseProxy{
		Transport: s.Backend.Transport(),
		Rewrite: func(pr *httputil.ProxyRequest) {
			in := pr.In
			out := pr.Out

			target := *base
			target.Path = strings.TrimRight(base.Path, "/") + "/" + strings.TrimPrefix(in.URL.Path, proxyPrefix)
			target.RawPath = ""
			target.RawQuery = in.URL.RawQuery
			out.URL = &target
			out.Host = ""

			h := http.Header{}
			h.Set("Accept", headerOr(in.Header, "Accept", "application/json"))
			h.Set("Content-Type", headerOr(in.Header, "Content-Type", "application/json"))
			if auth := in.Header.Get("Authorization"); auth != "" {
				h.Set("Authorization", auth)
			} else if tok := backendToken(in); tok != "" {
				h.Set("Authorization", "Bearer "+tok)
			}
			out.Header = h

			if in.Method == http.MethodGet || in.Method == http.MethodHead {
				out.Body = nil
				out.ContentLength = 0
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			ct := resp.Header.Get("Content-Type")
			resp.Header = http.Header{}
			if ct != "" {
				resp.Header.Set("Content-Type", ct)
			}
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			middleware.LoggerFromRequest(r, s.Logger).Error("proxy request failed",
				zap.String("path", r.URL.Path), zap.Error(err))
			s.Metrics.IncrementRequests("proxy", r.Method, "502")
			writeError(w, http.StatusBadGateway, err.Error())
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &proxyStatus{ResponseWriter: w}
		rp.ServeHTTP(rec, r)
		if rec.status != 0 && rec.status != http.StatusBadGateway {
			s.Metrics.IncrementRequests("proxy", r.Method, strconv.Itoa(rec.status))
		}
	})
}

type proxyStatus struct {
	http.ResponseWriter
	status int
}

func (p *proxyStatus) WriteHeader(code int) {
	p.status = code
	p.ResponseWriter.WriteHeader(code)
}

func (p *proxyStatus) Unwrap() http.ResponseWriter { return p.ResponseWriter }

func headerOr(h http.Header, key, def string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	return def
}
