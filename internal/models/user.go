package models

import "strings"

// User is a platform account. One account may hold a learner, a teacher and an
// admin profile at the same time; each profile has its own id.
type User struct {
	ID               int64   `json:"id"`
	StudentID        string  `json:"student_id"`
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Gender           *string `json:"gender"`
	PhoneNumber      *string `json:"phone_number"`
	Balance          float64 `json:"balance"`
	BanCount         int64   `json:"ban_count"`
	LearnerID        *int64  `json:"learner_id"`
	LearnerFlagCount int64   `json:"learner_flag"`
	TeacherID        *int64  `json:"teacher_id"`
	TeacherFlagCount int64   `json:"teacher_flag"`
	AdminID          *int64  `json:"admin_id"`
}

// FullName joins first and last name the way the dashboard displays it.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u User) IsLearner() bool { return present(u.LearnerID) }
func (u User) IsTeacher() bool { return present(u.TeacherID) }
func (u User) IsAdmin() bool   { return present(u.AdminID) }

// SubjectID returns the profile id for the given role, if the user holds it.
func (u User) SubjectID(role Role) (int64, bool) {
	var id *int64
	switch role {
	case RoleLearner:
		id = u.LearnerID
	case RoleTeacher:
		id = u.TeacherID
	}
	if !present(id) {
		return 0, false
	}
	return *id, true
}

// HasAnyBanTarget reports whether the user can be banned in at least one role.
func (u User) HasAnyBanTarget() bool {
	return u.IsLearner() || u.IsTeacher()
}

// FindByStudentID returns the first user whose student id matches.
func FindByStudentID(users []User, studentID string) (User, bool) {
	for _, u := range users {
		if matchesStudentID(u.StudentID, studentID) {
			return u, true
		}
	}
	return User{}, false
}

// matchesStudentID compares student ids as text, ignoring surrounding spaces.
func matchesStudentID(a, b string) bool {
	return strings.TrimSpace(a) == strings.TrimSpace(b)
}

func present(id *int64) bool {
	return id != nil && *id != 0
}
