package moderation

import (
	"context"

	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/query"
)

// FilteredReports returns the reports matching f, newest first.
func (s *Service) FilteredReports(ctx context.Context, token string, f query.ReportFilter) ([]models.Report, error) {
	all, err := s.Reports(ctx, token)
	if err != nil {
		return nil, err
	}
	return query.SortReports(query.FilterReports(all, f)), nil
}

// ReportView returns one page of the filtered report list.
func (s *Service) ReportView(ctx context.Context, token string, f query.ReportFilter, page int) (query.Page[models.Report], error) {
	reports, err := s.FilteredReports(ctx, token, f)
	if err != nil {
		return query.Page[models.Report]{}, err
	}
	return query.Paginate(reports, page), nil
}

// FilteredUsers returns the users matching f with their ban status at the
// service clock, ordered by id.
func (s *Service) FilteredUsers(ctx context.Context, token string, f query.UserFilter) ([]query.UserRow, error) {
	d, err := s.Directory(ctx, token)
	if err != nil {
		return nil, err
	}
	learner, teacher := d.Resolve(s.now())
	return query.SortUsers(query.FilterUsers(query.Rows(d.Users, learner, teacher), f)), nil
}

// UserEntry is a user row with the busy state of its ban controls.
type UserEntry struct {
	query.UserRow
	LearnerBusy bool
	TeacherBusy bool
}

// UserView returns one page of the filtered user list.
func (s *Service) UserView(ctx context.Context, token string, f query.UserFilter, page int) (query.Page[UserEntry], error) {
	rows, err := s.FilteredUsers(ctx, token, f)
	if err != nil {
		return query.Page[UserEntry]{}, err
	}
	return query.MapPage(query.Paginate(rows, page), func(r query.UserRow) UserEntry {
		e := UserEntry{UserRow: r}
		if id, ok := r.User.SubjectID(models.RoleLearner); ok {
			e.LearnerBusy = s.Busy(ctx, SubjectKey(models.RoleLearner, id))
		}
		if id, ok := r.User.SubjectID(models.RoleTeacher); ok {
			e.TeacherBusy = s.Busy(ctx, SubjectKey(models.RoleTeacher, id))
		}
		return e
	}), nil
}
