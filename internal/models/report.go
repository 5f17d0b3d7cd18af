package models

import (
	"strings"
	"time"
)

// ReportStatus is the moderation state of a report. A report starts pending
// and moves exactly once to approved or rejected.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportApproved ReportStatus = "approved"
	ReportRejected ReportStatus = "rejected"
)

// Canonical report reasons shown in the dashboard filters.
const (
	ReasonFakeReview    = "fake_review"
	ReasonAbsent        = "absent"
	ReasonNotTeaching   = "not_teaching"
	ReasonPoorTeaching  = "poor_teaching"
	ReasonDisruption    = "disruption"
	ReasonDisrespecting = "disrespecting"
	ReasonHarassment    = "harassment"
	ReasonBullying      = "bullying"
)

// Reasons lists the canonical reason tags in display order.
var Reasons = []string{
	ReasonFakeReview,
	ReasonAbsent,
	ReasonNotTeaching,
	ReasonPoorTeaching,
	ReasonDisruption,
	ReasonDisrespecting,
	ReasonHarassment,
	ReasonBullying,
}

// reasonAliases maps legacy reason codes still present in old reports to
// their canonical tag.
var reasonAliases = map[string]string{
	"teacher_absent":   ReasonAbsent,
	"teacher_behavior": ReasonPoorTeaching,
}

// NormalizeReason lowercases a reason code and resolves legacy aliases.
func NormalizeReason(reason string) string {
	r := strings.ToLower(strings.TrimSpace(reason))
	if canonical, ok := reasonAliases[r]; ok {
		return canonical
	}
	return r
}

// Report is a complaint raised by one platform user against another about a
// class session. The dashboard only ever changes Status and ResultNote.
type Report struct {
	ID              int64   `json:"id"`
	ClassSessionID  int64   `json:"class_session_id"`
	ReportDate      string  `json:"report_date"` // Backend timestamp text, parsed lazily.
	Reason          string  `json:"report_reason"`
	Status          string  `json:"report_status"`
	Type            string  `json:"report_type"`
	ReportingUserID int64   `json:"report_user_id"`
	ReportedUserID  int64   `json:"reported_user_id"`
	Picture         *string `json:"report_picture"`     // URL, data URI or bare base64 PNG.
	Description     *string `json:"report_description"` // Free text supplied by the reporter.
	ResultNote      *string `json:"report_result"`      // Decision note written by an admin.
}

// NormalizedStatus returns the lowercased status.
func (r Report) NormalizedStatus() ReportStatus {
	return ReportStatus(strings.ToLower(strings.TrimSpace(r.Status)))
}

// IsPending reports whether the report still awaits a decision.
func (r Report) IsPending() bool {
	return r.NormalizedStatus() == ReportPending
}

// Date parses ReportDate. The second result is false when the text is not a
// recognizable timestamp.
func (r Report) Date() (time.Time, bool) {
	return ParseTimestamp(r.ReportDate)
}

// EvidenceSource returns a value usable as an image source for the report
// picture, or "" when the report has no picture.
func (r Report) EvidenceSource() string {
	if r.Picture == nil || *r.Picture == "" {
		return ""
	}
	p := *r.Picture
	if strings.HasPrefix(p, "http") || strings.HasPrefix(p, "data:") {
		return p
	}
	return "data:image/png;base64," + p
}

// ReportUpdate is the full payload the backend expects when a report is
// rewritten. The backend replaces every field, so the current values are sent
// back alongside the new status and note.
type ReportUpdate struct {
	ClassSessionID  int64   `json:"class_session_id"`
	ReportDate      string  `json:"report_date"`
	Description     *string `json:"report_description"`
	Picture         *string `json:"report_picture"`
	Reason          string  `json:"report_reason"`
	Status          string  `json:"report_status"`
	Type            string  `json:"report_type"`
	ReportingUserID int64   `json:"report_user_id"`
	ReportedUserID  int64   `json:"reported_user_id"`
	Result          string  `json:"report_result"`
}

// Decided builds the update moving r to status with the given note. A report
// with no usable date is stamped with now.
func (r Report) Decided(status ReportStatus, note string, now time.Time) ReportUpdate {
	date := r.ReportDate
	if date == "" {
		date = now.UTC().Format(time.RFC3339Nano)
	}
	return ReportUpdate{
		ClassSessionID:  r.ClassSessionID,
		ReportDate:      date,
		Description:     r.Description,
		Picture:         r.Picture,
		Reason:          r.Reason,
		Status:          string(status),
		Type:            r.Type,
		ReportingUserID: r.ReportingUserID,
		ReportedUserID:  r.ReportedUserID,
		Result:          note,
	}
}
