package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimestamp(t *testing.T) {
	cases := map[string]time.Time{
		"2024-01-08":                    time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		"2024-01-08T10:30:00Z":          time.Date(2024, 1, 8, 10, 30, 0, 0, time.UTC),
		"2024-01-08T10:30:00.5+07:00":   time.Date(2024, 1, 8, 3, 30, 0, 500e6, time.UTC),
		"2024-01-08 10:30:00":           time.Date(2024, 1, 8, 10, 30, 0, 0, time.UTC),
		"2024-01-08T10:30:00.123456789": time.Date(2024, 1, 8, 10, 30, 0, 123456789, time.UTC),
		"1/8/2024":                      time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
		"2024/01/08 10:30:00":           time.Date(2024, 1, 8, 10, 30, 0, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseTimestamp(in)
		if assert.True(t, ok, in) {
			assert.True(t, want.Equal(got), "%s: got %s", in, got)
		}
	}

	for _, in := range []string{"", "   ", "not a date", "2024-13-45"} {
		_, ok := ParseTimestamp(in)
		assert.False(t, ok, in)
	}
}

func TestParseTimestampRejectsFragments(t *testing.T) {
	// Time-of-day or month-day alone would otherwise be completed from the clock.
	for _, in := range []string{"10:30", "10:30:15", "10", "1-2", "Jan 2 15:04:05"} {
		got, ok := ParseTimestamp(in)
		assert.False(t, ok, "%s parsed as %s", in, got)
	}
}

func TestParseID(t *testing.T) {
	ok := map[string]int64{"5": 5, " 42 ": 42, "-3": -3, "7.0": 7, "1e3": 1000}
	for in, want := range ok {
		got, valid := ParseID(in)
		assert.True(t, valid, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "abc", "1.5", "NaN", "Inf", "1e400"} {
		_, valid := ParseID(in)
		assert.False(t, valid, in)
	}
}

func TestReportHelpers(t *testing.T) {
	assert.Equal(t, ReasonAbsent, NormalizeReason("Teacher_Absent"))
	assert.Equal(t, ReasonPoorTeaching, NormalizeReason("teacher_behavior"))
	assert.Equal(t, ReasonBullying, NormalizeReason(" BULLYING "))

	pic := "iVBORw0KGgo="
	url := "https://cdn.example.com/a.png"
	r := Report{Status: "Pending", Picture: &pic}
	assert.True(t, r.IsPending())
	assert.Equal(t, "data:image/png;base64,"+pic, r.EvidenceSource())
	r.Picture = &url
	assert.Equal(t, url, r.EvidenceSource())
	r.Picture = nil
	assert.Empty(t, r.EvidenceSource())

	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	u := Report{ID: 1, Reason: "absent"}.Decided(ReportApproved, "confirmed", now)
	assert.Equal(t, "approved", u.Status)
	assert.Equal(t, "confirmed", u.Result)
	assert.Equal(t, "2024-02-01T00:00:00Z", u.ReportDate)
}
