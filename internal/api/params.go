package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kututorium/adminserve/internal/query"
)

const dateLayout = "2006-01-02"

// reportFilter reads q, reason, status, preset, start and end. An explicit
// start or end overrides the matching side of the preset.
func reportFilter(v url.Values, now time.Time, loc *time.Location) (query.ReportFilter, error) {
	f := query.ReportFilter{
		Query:  v.Get("q"),
		Reason: orAll(v.Get("reason")),
		Status: orAll(v.Get("status")),
	}

	preset, err := query.ParsePreset(v.Get("preset"))
	if err != nil {
		return query.ReportFilter{}, err
	}
	f.Start, f.End = preset.Range(now.In(loc))

	if s := strings.TrimSpace(v.Get("start")); s != "" {
		if f.Start, err = time.ParseInLocation(dateLayout, s, loc); err != nil {
			return query.ReportFilter{}, fmt.Errorf("invalid start date %q", s)
		}
	}
	if s := strings.TrimSpace(v.Get("end")); s != "" {
		if f.End, err = time.ParseInLocation(dateLayout, s, loc); err != nil {
			return query.ReportFilter{}, fmt.Errorf("invalid end date %q", s)
		}
	}
	return f, nil
}

func userFilter(v url.Values) query.UserFilter {
	return query.UserFilter{
		Query:  v.Get("q"),
		Role:   orAll(v.Get("role")),
		Status: orAll(v.Get("status")),
	}
}

// pageParam reads the 1-based page; anything unusable means page 1. Range
// clamping happens during pagination.
func pageParam(v url.Values) int {
	p, err := strconv.Atoi(strings.TrimSpace(v.Get("page")))
	if err != nil {
		return 1
	}
	return p
}

func orAll(s string) string {
	if strings.TrimSpace(s) == "" {
		return query.All
	}
	return s
}
