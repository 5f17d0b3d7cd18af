package models

import "strings"

// Role identifies which profile of a user a ban applies to.
type Role string

const (
	RoleLearner Role = "learner"
	RoleTeacher Role = "teacher"
)

// ParseRole accepts "learner" or "teacher" in any case.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleLearner:
		return RoleLearner, true
	case RoleTeacher:
		return RoleTeacher, true
	}
	return "", false
}

// BanRecord is a time-boxed suspension of a learner or teacher profile.
// SubjectID is the profile id (not the user id) as sent by the backend; it is
// kept as text so records with unusable ids can be discarded during
// resolution instead of failing the whole listing.
type BanRecord struct {
	ID        int64  `json:"id"`
	Role      Role   `json:"role"`
	SubjectID string `json:"subject_id"`
	BanStart  string `json:"ban_start"`
	BanEnd    string `json:"ban_end"`
}
