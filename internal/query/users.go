package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kututorium/adminserve/internal/bans"
	"github.com/kututorium/adminserve/internal/models"
)

// Role filter values.
const (
	RoleLearner = "learner"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// UserFilter selects users. Status takes the values of bans.Kind.FilterKey.
type UserFilter struct {
	Query  string
	Role   string
	Status string
}

// UserRow is a user together with its derived ban status.
type UserRow struct {
	User   models.User
	Status bans.Status
}

// Rows derives the ban status of every user.
func Rows(users []models.User, learner, teacher bans.Resolution) []UserRow {
	out := make([]UserRow, len(users))
	for i, u := range users {
		out[i] = UserRow{User: u, Status: bans.StatusOf(u, learner, teacher)}
	}
	return out
}

// Match reports whether row passes every predicate of f.
func (f UserFilter) Match(row UserRow) bool {
	u := row.User
	switch strings.ToLower(strings.TrimSpace(f.Role)) {
	case RoleLearner:
		if !u.IsLearner() {
			return false
		}
	case RoleTeacher:
		if !u.IsTeacher() {
			return false
		}
	case RoleAdmin:
		if !u.IsAdmin() {
			return false
		}
	}
	if status := strings.ToLower(strings.TrimSpace(f.Status)); status != "" && status != All {
		if row.Status.Kind.FilterKey() != status {
			return false
		}
	}
	if q := normalizeQuery(f.Query); q != "" && !userContains(u, q) {
		return false
	}
	return true
}

func userContains(u models.User, q string) bool {
	fields := []string{
		u.FullName(),
		strconv.FormatInt(u.ID, 10),
		u.StudentID,
		optional(u.PhoneNumber),
		optionalID(u.LearnerID),
		optionalID(u.TeacherID),
	}
	return containsAny(fields, q)
}

// FilterUsers returns the rows matching f, in input order.
func FilterUsers(rows []UserRow, f UserFilter) []UserRow {
	out := make([]UserRow, 0, len(rows))
	for _, row := range rows {
		if f.Match(row) {
			out = append(out, row)
		}
	}
	return out
}

// SortUsers orders rows by user id ascending. Equal ids keep input order.
func SortUsers(rows []UserRow) []UserRow {
	out := append([]UserRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].User.ID < out[j].User.ID })
	return out
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
