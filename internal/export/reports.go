package export

import (
	"io"
	"strconv"

	"github.com/kututorium/adminserve/internal/models"
)

// ReportColumns is the header row of a report export.
var ReportColumns = []string{
	"id",
	"report_user_id",
	"reported_user_id",
	"class_session_id",
	"report_type",
	"report_reason",
	"report_status",
	"report_date",
}

// WriteReports writes reports, already filtered and sorted, as CSV.
func WriteReports(w io.Writer, reports []models.Report) error {
	t := newTable(w)
	t.row(ReportColumns...)
	for _, r := range reports {
		t.row(
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.ReportingUserID, 10),
			strconv.FormatInt(r.ReportedUserID, 10),
			strconv.FormatInt(r.ClassSessionID, 10),
			r.Type,
			r.Reason,
			r.Status,
			r.ReportDate,
		)
	}
	return t.flush()
}
