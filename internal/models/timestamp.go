package models

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// strictLayouts are tried before the lenient parser. Timestamps without a
// zone are read as UTC.
var strictLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

var lenient = &now.Config{TimeLocation: time.UTC, TimeFormats: now.TimeFormats}

// The lenient parser fills parts missing from the input ("10:30", "1-2") from
// its reference clock. Parsing against two references that differ in every
// field exposes those fragments, and keeps the result off the wall clock.
var (
	refA = time.Date(2001, 2, 3, 4, 5, 6, 7, time.UTC)
	refB = time.Date(2012, 11, 24, 16, 27, 38, 9, time.UTC)
)

// ParseTimestamp parses a backend timestamp. It never fails loudly: the second
// result is false for empty or unrecognizable input.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range strictLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	a, err := lenient.With(refA).Parse(s)
	if err != nil {
		return time.Time{}, false
	}
	b, err := lenient.With(refB).Parse(s)
	if err != nil || !a.Equal(b) {
		return time.Time{}, false
	}
	return a, true
}

// ParseID parses an identifier that may arrive as a JSON number or numeric
// string. Non-finite or fractional values are rejected.
func ParseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}
