package export

import (
	"io"
	"strconv"

	"github.com/kututorium/adminserve/internal/query"
)

// UserColumns is the header row of a user export.
var UserColumns = []string{
	"user_id",
	"learner_id",
	"teacher_id",
	"admin_id",
	"name",
	"learner_flag",
	"teacher_flag",
	"ban_count",
	"status",
	"student_id",
	"phone_number",
	"gender",
	"balance",
}

// WriteUsers writes user rows, already filtered and sorted, as CSV.
func WriteUsers(w io.Writer, rows []query.UserRow) error {
	t := newTable(w)
	t.row(UserColumns...)
	for _, row := range rows {
		u := row.User
		t.row(
			strconv.FormatInt(u.ID, 10),
			optionalID(u.LearnerID),
			optionalID(u.TeacherID),
			optionalID(u.AdminID),
			u.FullName(),
			strconv.FormatInt(u.LearnerFlagCount, 10),
			strconv.FormatInt(u.TeacherFlagCount, 10),
			strconv.FormatInt(u.BanCount, 10),
			row.Status.Kind.String(),
			u.StudentID,
			optional(u.PhoneNumber),
			optional(u.Gender),
			strconv.FormatFloat(u.Balance, 'f', -1, 64),
		)
	}
	return t.flush()
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
