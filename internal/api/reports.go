package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/export"
	"github.com/kututorium/adminserve/internal/middleware"
	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/moderation"
)

// ListReportsHandler handles GET /api/reports.
func (s *Server) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "reports"
	defer func() { s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start)) }()

	f, err := reportFilter(r.URL.Query(), s.Moderation.Now(), s.Config.Location())
	if err != nil {
		s.Metrics.IncrementRequests(endpoint, r.Method, "400")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	page, err := s.Moderation.ReportView(r.Context(), backendToken(r), f, pageParam(r.URL.Query()))
	if err != nil {
		s.fail(w, r, endpoint, err)
		return
	}
	s.Metrics.IncrementRequests(endpoint, r.Method, "200")
	writeJSON(w, page)
}

// ExportReportsHandler handles GET /api/reports/export. The CSV holds every
// report matching the filters, not just one page.
func (s *Server) ExportReportsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "reports_export"
	defer func() { s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start)) }()

	now := s.Moderation.Now()
	f, err := reportFilter(r.URL.Query(), now, s.Config.Location())
	if err != nil {
		s.Metrics.IncrementRequests(endpoint, r.Method, "400")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reports, err := s.Moderation.FilteredReports(r.Context(), backendToken(r), f)
	if err != nil {
		s.fail(w, r, endpoint, err)
		return
	}

	setCSVHeaders(w, export.ReportsFilename(now.In(s.Config.Location())))
	if err := export.WriteReports(w, reports); err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Warn("write reports csv", zap.Error(err))
	}
	s.Metrics.IncrementExports("reports")
	s.Metrics.IncrementRequests(endpoint, r.Method, "200")
}

type reportDetail struct {
	models.Report
	Evidence  string `json:"evidence,omitempty"`
	Decidable bool   `json:"decidable"`
	Busy      bool   `json:"busy"`
}

// GetReportHandler handles GET /api/reports/{id}.
func (s *Server) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "report"
	defer func() { s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start)) }()

	id, ok := pathID(r)
	if !ok {
		s.Metrics.IncrementRequests(endpoint, r.Method, "400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	rep, err := s.Moderation.Report(r.Context(), backendToken(r), id)
	if err != nil {
		s.fail(w, r, endpoint, err)
		return
	}
	s.Metrics.IncrementRequests(endpoint, r.Method, "200")
	writeJSON(w, reportDetail{
		Report:    rep,
		Evidence:  rep.EvidenceSource(),
		Decidable: rep.IsPending(),
		Busy:      s.Moderation.Busy(r.Context(), moderation.ReportKey(id)),
	})
}

type decisionRequest struct {
	Action string `json:"action"`
	Note   string `json:"note"`
}

// DecideReportHandler handles POST /api/reports/{id}/decision.
func (s *Server) DecideReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "report_decision"
	defer func() { s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start)) }()

	id, ok := pathID(r)
	if !ok {
		s.Metrics.IncrementRequests(endpoint, r.Method, "400")
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Metrics.IncrementRequests(endpoint, r.Method, "400")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	action, err := moderation.ParseAction(req.Action)
	if err != nil {
		s.fail(w, r, endpoint, err)
		return
	}

	updated, err := s.Moderation.Decide(r.Context(), backendToken(r), id, action, req.Note)
	if err != nil {
		s.fail(w, r, endpoint, err)
		return
	}
	middleware.LoggerFromRequest(r, s.Logger).Info("report decision recorded",
		zap.Int64("report_id", id), zap.String("action", string(action)))
	s.Metrics.IncrementRequests(endpoint, r.Method, "200")
	writeJSON(w, updated)
}

func setCSVHeaders(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filename))
	w.Header().Set("Cache-Control", "no-store")
}
