package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/query"
)

func TestListReportsClampsPage(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(http.MethodGet, "/api/reports?page=5", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	p := decode[query.Page[models.Report]](t, rr)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 23, p.TotalItems)
	assert.Equal(t, 21, p.From)
	assert.Equal(t, 23, p.To)
	require.Len(t, p.Items, 3)
	assert.Equal(t, int64(3), p.Items[0].ID, "newest first, so the oldest land on the last page")
}

func TestListReportsFilters(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(http.MethodGet, "/api/reports?status=approved&start=2024-01-05&end=2024-01-10", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	p := decode[query.Page[models.Report]](t, rr)
	var ids []int64
	for _, r := range p.Items {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []int64{10, 8, 6}, ids)

	rr = a.do(http.MethodGet, "/api/reports?q=42", nil)
	p = decode[query.Page[models.Report]](t, rr)
	assert.Equal(t, 0, p.TotalItems)

	rr = a.do(http.MethodGet, "/api/reports?q=221", nil)
	p = decode[query.Page[models.Report]](t, rr)
	require.Equal(t, 1, p.TotalItems, "reported user id 221")
	assert.Equal(t, int64(21), p.Items[0].ID)
}

func TestListReportsRejectsBadDate(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(http.MethodGet, "/api/reports?start=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = a.do(http.MethodGet, "/api/reports?preset=decade", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListReportsPreset(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(http.MethodGet, "/api/reports?preset=7d", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	p := decode[query.Page[models.Report]](t, rr)
	// testNow is 2024-01-25; the last seven days start on the 19th
	assert.Equal(t, 5, p.TotalItems)
}

func TestExportReports(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(http.MethodGet, "/api/reports/export?status=pending&end=2024-01-03", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="reports_2024-01-25.csv"`, rr.Header().Get("Content-Disposition"))

	lines := strings.Split(rr.Body.String(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id,report_user_id,reported_user_id,class_session_id,report_type,report_reason,report_status,report_date", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "3,103,203,303,class,absent,pending,"))
	assert.Equal(t, 1, a.metrics.Count("exports", "reports"))
}

func TestGetReport(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(http.MethodGet, "/api/reports/7", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, float64(7), got["id"])
	assert.Equal(t, true, got["decidable"])
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", got["evidence"])

	rr = a.do(http.MethodGet, "/api/reports/99", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = a.do(http.MethodGet, "/api/reports/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDecideReport(t *testing.T) {
	a := newTestAPI(t)

	rr := a.do(http.MethodPost, "/api/reports/7/decision", strings.NewReader(`{"action":"approve","note":""}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = a.do(http.MethodPost, "/api/reports/8/decision", strings.NewReader(`{"action":"reject","note":"late"}`))
	assert.Equal(t, http.StatusConflict, rr.Code, "already approved")

	rr = a.do(http.MethodPost, "/api/reports/7/decision", strings.NewReader(`{"action":"delete","note":"x"}`))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = a.do(http.MethodPost, "/api/reports/7/decision", strings.NewReader(`{"action":"approve","note":"confirmed"}`))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	updated := decode[models.Report](t, rr)
	assert.Equal(t, "approved", updated.Status)

	var sent map[string]any
	require.NoError(t, json.Unmarshal([]byte(a.platform.bodies["PUT /reports/7"]), &sent))
	assert.Equal(t, "approved", sent["report_status"])
	assert.Equal(t, "confirmed", sent["report_result"])
	assert.Equal(t, float64(107), sent["report_user_id"])
	assert.Equal(t, 1, a.metrics.Count("moderation_actions", "decide_approve", "success"))
}
