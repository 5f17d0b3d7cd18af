package models

import (
	"fmt"
	"strconv"

	"github.com/valyala/fastjson"
)

// The backend is not consistent about field names: some endpoints return
// snake_case ids, others embed GORM models with "ID" and nested profiles.
// Every decoder here accepts both shapes and degrades malformed fields to
// their zero value instead of rejecting the record.

var parsers fastjson.ParserPool

// DecodeReports decodes a report listing. The payload may be a bare array or
// an object carrying the array under "data". An empty body is an empty list.
func DecodeReports(data []byte) ([]Report, error) {
	var out []Report
	err := decodeList(data, func(v *fastjson.Value) {
		out = append(out, reportFrom(v))
	})
	if err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}
	return out, nil
}

// DecodeReport decodes a single report object.
func DecodeReport(data []byte) (Report, error) {
	p := parsers.Get()
	defer parsers.Put(p)
	v, err := p.ParseBytes(data)
	if err != nil {
		return Report{}, fmt.Errorf("decode report: %w", err)
	}
	if v.Type() != fastjson.TypeObject {
		return Report{}, fmt.Errorf("decode report: unexpected %s", v.Type())
	}
	return reportFrom(v), nil
}

// DecodeUsers decodes a user listing.
func DecodeUsers(data []byte) ([]User, error) {
	var out []User
	err := decodeList(data, func(v *fastjson.Value) {
		out = append(out, userFrom(v))
	})
	if err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return out, nil
}

// DecodeBans decodes a learner-ban or teacher-ban listing.
func DecodeBans(data []byte, role Role) ([]BanRecord, error) {
	var out []BanRecord
	err := decodeList(data, func(v *fastjson.Value) {
		out = append(out, banFrom(v, role))
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s bans: %w", role, err)
	}
	return out, nil
}

// LoginResult is what the backend login endpoint hands back.
type LoginResult struct {
	Token     string
	StudentID string
}

// DecodeLoginResult extracts the bearer token and the student id of the
// authenticated account. Missing fields are returned empty.
func DecodeLoginResult(data []byte) (LoginResult, error) {
	p := parsers.Get()
	defer parsers.Put(p)
	v, err := p.ParseBytes(data)
	if err != nil {
		return LoginResult{}, fmt.Errorf("decode login response: %w", err)
	}
	return LoginResult{
		Token:     stringOf(v.Get("token")),
		StudentID: stringOf(v.Get("user", "student_id")),
	}, nil
}

// ErrorMessage pulls a human readable message out of a backend error body:
// "message", then "error", then a bare JSON string. Non-JSON bodies are
// returned as-is.
func ErrorMessage(data []byte) string {
	p := parsers.Get()
	defer parsers.Put(p)
	v, err := p.ParseBytes(data)
	if err != nil {
		return string(data)
	}
	if v.Type() == fastjson.TypeString {
		return string(v.GetStringBytes())
	}
	for _, key := range []string{"message", "error"} {
		if s := stringOf(v.Get(key)); s != "" {
			return s
		}
	}
	return ""
}

// DecodeAdminUserIDs returns the user ids of every admin profile in a listing.
func DecodeAdminUserIDs(data []byte) ([]int64, error) {
	var out []int64
	err := decodeList(data, func(v *fastjson.Value) {
		if id, ok := intOf(firstOf(v, []string{"user_id"}, []string{"UserID"}, []string{"User", "ID"})); ok {
			out = append(out, id)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("decode admins: %w", err)
	}
	return out, nil
}

func decodeList(data []byte, each func(*fastjson.Value)) error {
	if len(data) == 0 {
		return nil
	}
	p := parsers.Get()
	defer parsers.Put(p)
	v, err := p.ParseBytes(data)
	if err != nil {
		return err
	}
	var items []*fastjson.Value
	switch v.Type() {
	case fastjson.TypeArray:
		items, _ = v.Array()
	case fastjson.TypeObject:
		if d := v.Get("data"); d != nil && d.Type() == fastjson.TypeArray {
			items, _ = d.Array()
		}
	}
	for _, it := range items {
		if it.Type() == fastjson.TypeObject {
			each(it)
		}
	}
	return nil
}

func reportFrom(v *fastjson.Value) Report {
	r := Report{
		ReportDate:  stringOf(firstOf(v, []string{"report_date"}, []string{"CreatedAt"})),
		Reason:      stringOf(v.Get("report_reason")),
		Status:      stringOf(v.Get("report_status")),
		Type:        stringOf(v.Get("report_type")),
		Picture:     optionalString(v.Get("report_picture")),
		Description: optionalString(v.Get("report_description")),
		ResultNote:  optionalString(v.Get("report_result")),
	}
	r.ID, _ = intOf(firstOf(v, []string{"id"}, []string{"ID"}))
	r.ClassSessionID, _ = intOf(firstOf(v, []string{"class_session_id"}, []string{"ClassSession", "ID"}))
	r.ReportingUserID, _ = intOf(firstOf(v, []string{"report_user_id"}, []string{"Reporter", "ID"}))
	r.ReportedUserID, _ = intOf(firstOf(v, []string{"reported_user_id"}, []string{"Reported", "ID"}))
	return r
}

func userFrom(v *fastjson.Value) User {
	u := User{
		StudentID:   stringOf(v.Get("student_id")),
		FirstName:   stringOf(v.Get("first_name")),
		LastName:    stringOf(v.Get("last_name")),
		Gender:      optionalString(v.Get("gender")),
		PhoneNumber: optionalString(v.Get("phone_number")),
		Balance:     floatOf(v.Get("balance")),
		LearnerID:   optionalInt(firstOf(v, []string{"learner_id"}, []string{"Learner", "ID"})),
		TeacherID:   optionalInt(firstOf(v, []string{"teacher_id"}, []string{"Teacher", "ID"})),
		AdminID:     optionalInt(firstOf(v, []string{"admin_id"}, []string{"Admin", "ID"})),
	}
	u.ID, _ = intOf(firstOf(v, []string{"id"}, []string{"ID"}))
	u.BanCount, _ = intOf(v.Get("ban_count"))
	u.LearnerFlagCount, _ = intOf(firstOf(v, []string{"learner_flag"}, []string{"Learner", "flag_count"}))
	u.TeacherFlagCount, _ = intOf(firstOf(v, []string{"teacher_flag"}, []string{"Teacher", "flag_count"}))
	return u
}

func banFrom(v *fastjson.Value, role Role) BanRecord {
	b := BanRecord{
		Role:     role,
		BanStart: stringOf(firstOf(v, []string{"ban_start"}, []string{"BanStart"})),
		BanEnd:   stringOf(firstOf(v, []string{"ban_end"}, []string{"BanEnd"})),
	}
	b.ID, _ = intOf(firstOf(v, []string{"id"}, []string{"ID"}))
	switch role {
	case RoleLearner:
		b.SubjectID = stringOf(firstOf(v, []string{"learner_id"}, []string{"Learner", "ID"}))
	case RoleTeacher:
		b.SubjectID = stringOf(firstOf(v, []string{"teacher_id"}, []string{"Teacher", "ID"}))
	}
	return b
}

// firstOf returns the first present, non-null value among the given paths.
func firstOf(v *fastjson.Value, paths ...[]string) *fastjson.Value {
	for _, path := range paths {
		if f := v.Get(path...); f != nil && f.Type() != fastjson.TypeNull {
			return f
		}
	}
	return nil
}

func stringOf(v *fastjson.Value) string {
	if v == nil {
		return ""
	}
	switch v.Type() {
	case fastjson.TypeString:
		return string(v.GetStringBytes())
	case fastjson.TypeNumber, fastjson.TypeTrue, fastjson.TypeFalse:
		return v.String()
	}
	return ""
}

func optionalString(v *fastjson.Value) *string {
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil
	}
	s := stringOf(v)
	return &s
}

func intOf(v *fastjson.Value) (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.Type() {
	case fastjson.TypeNumber, fastjson.TypeString:
		return ParseID(stringOf(v))
	}
	return 0, false
}

func optionalInt(v *fastjson.Value) *int64 {
	id, ok := intOf(v)
	if !ok {
		return nil
	}
	return &id
}

func floatOf(v *fastjson.Value) float64 {
	if v == nil {
		return 0
	}
	f, err := strconv.ParseFloat(stringOf(v), 64)
	if err != nil {
		return 0
	}
	return f
}
