package bans

import (
	"time"

	"github.com/kututorium/adminserve/internal/models"
)

// Kind is the combined ban state of a user across both roles.
type Kind int

const (
	Active Kind = iota
	Learner
	Teacher
	Both
)

// FilterKey returns the value used for this kind in user status filters.
func (k Kind) FilterKey() string {
	switch k {
	case Learner:
		return "banned_learner"
	case Teacher:
		return "banned_teacher"
	case Both:
		return "banned_both"
	}
	return "active"
}

func (k Kind) String() string {
	switch k {
	case Learner:
		return "Learner"
	case Teacher:
		return "Teacher"
	case Both:
		return "Both"
	}
	return "Active"
}

// Status is a user's derived ban status. Until is zero for Active users and
// for indefinite bans.
type Status struct {
	Kind       Kind
	Until      time.Time
	Indefinite bool
	Learner    *ActiveBan
	Teacher    *ActiveBan
}

// Banned reports whether any role of the user is banned.
func (s Status) Banned() bool { return s.Kind != Active }

// Ban returns the active ban for one role.
func (s Status) Ban(role models.Role) (ActiveBan, bool) {
	var b *ActiveBan
	switch role {
	case models.RoleLearner:
		b = s.Learner
	case models.RoleTeacher:
		b = s.Teacher
	}
	if b == nil {
		return ActiveBan{}, false
	}
	return *b, true
}

// StatusOf merges the learner and teacher resolutions for one user. When both
// roles are banned the later end is reported.
func StatusOf(u models.User, learner, teacher Resolution) Status {
	var st Status
	if id, ok := u.SubjectID(models.RoleLearner); ok {
		if b, ok := learner.Lookup(id); ok {
			st.Learner = &b
		}
	}
	if id, ok := u.SubjectID(models.RoleTeacher); ok {
		if b, ok := teacher.Lookup(id); ok {
			st.Teacher = &b
		}
	}

	switch {
	case st.Learner != nil && st.Teacher != nil:
		st.Kind = Both
		later := *st.Learner
		if st.Teacher.outranks(later) {
			later = *st.Teacher
		}
		st.Until, st.Indefinite = later.Until, later.Indefinite
	case st.Learner != nil:
		st.Kind = Learner
		st.Until, st.Indefinite = st.Learner.Until, st.Learner.Indefinite
	case st.Teacher != nil:
		st.Kind = Teacher
		st.Until, st.Indefinite = st.Teacher.Until, st.Teacher.Indefinite
	}
	return st
}
