// Package query filters, sorts and pages the report and user collections the
// dashboard shows. Everything here is pure: bad field values degrade to
// "no match" or "oldest" instead of failing the view.
package query

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/kututorium/adminserve/internal/models"
)

// All disables a categorical filter.
const All = "all"

// ReportFilter selects reports. Zero Start/End mean no bound. End is
// inclusive through the last millisecond of its calendar day.
type ReportFilter struct {
	Query  string
	Reason string
	Status string
	Start  time.Time
	End    time.Time
}

// bounded reports whether a date range is set.
func (f ReportFilter) bounded() bool {
	return !f.Start.IsZero() || !f.End.IsZero()
}

// Match reports whether r passes every predicate of f.
func (f ReportFilter) Match(r models.Report) bool {
	if q := normalizeQuery(f.Query); q != "" && !reportContains(r, q) {
		return false
	}
	if reason := strings.ToLower(strings.TrimSpace(f.Reason)); reason != "" && reason != All {
		if models.NormalizeReason(r.Reason) != reason {
			return false
		}
	}
	if status := strings.ToLower(strings.TrimSpace(f.Status)); status != "" && status != All {
		if string(r.NormalizedStatus()) != status {
			return false
		}
	}
	if f.bounded() {
		d, ok := r.Date()
		if !ok {
			return false
		}
		if !f.Start.IsZero() && d.Before(f.Start) {
			return false
		}
		if !f.End.IsZero() && d.After(EndOfDay(f.End)) {
			return false
		}
	}
	return true
}

func reportContains(r models.Report, q string) bool {
	fields := []string{
		strconv.FormatInt(r.ID, 10),
		strconv.FormatInt(r.ReportingUserID, 10),
		strconv.FormatInt(r.ReportedUserID, 10),
		strconv.FormatInt(r.ClassSessionID, 10),
		r.Reason,
		r.Type,
		r.Status,
	}
	return containsAny(fields, q)
}

// FilterReports returns the reports matching f, in input order.
func FilterReports(reports []models.Report, f ReportFilter) []models.Report {
	out := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// SortReports orders reports newest first. Reports with an unreadable date
// sort as the Unix epoch. Equal dates keep their input order.
func SortReports(reports []models.Report) []models.Report {
	out := append([]models.Report(nil), reports...)
	sort.SliceStable(out, func(i, j int) bool {
		return reportSortKey(out[i]) > reportSortKey(out[j])
	})
	return out
}

func reportSortKey(r models.Report) int64 {
	d, ok := r.Date()
	if !ok {
		return 0
	}
	return d.UnixMilli()
}

// EndOfDay returns 23:59:59.999 on t's calendar day, in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// StartOfDay returns midnight on t's calendar day, in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

func containsAny(fields []string, q string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}
