package moderation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kututorium/adminserve/internal/bans"
	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/query"
)

func TestReportView(t *testing.T) {
	svc, _, _ := newTestService(t, sampleBackend())

	p, err := svc.ReportView(context.Background(), "tok", query.ReportFilter{Reason: query.All, Status: query.All}, 1)
	require.NoError(t, err)
	require.Len(t, p.Items, 2)
	assert.Equal(t, int64(2), p.Items[0].ID, "newest first")

	p, err = svc.ReportView(context.Background(), "tok", query.ReportFilter{Reason: query.All, Status: "approved"}, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Page)
	require.Len(t, p.Items, 1)
	assert.Equal(t, int64(2), p.Items[0].ID)
}

func TestUserViewStatusAndBusy(t *testing.T) {
	svc, _, _ := newTestService(t, sampleBackend())
	ctx := context.Background()

	release, err := svc.guard.Acquire(ctx, SubjectKey(models.RoleLearner, 5))
	require.NoError(t, err)
	defer release()

	p, err := svc.UserView(ctx, "tok", query.UserFilter{Role: query.All, Status: query.All}, 1)
	require.NoError(t, err)
	require.Len(t, p.Items, 3)

	ann := p.Items[0]
	assert.Equal(t, int64(10), ann.User.ID)
	assert.Equal(t, bans.Learner, ann.Status.Kind)
	assert.True(t, ann.LearnerBusy)
	assert.False(t, ann.TeacherBusy)

	assert.Equal(t, bans.Active, p.Items[1].Status.Kind)
	assert.False(t, p.Items[1].TeacherBusy)

	rows, err := svc.FilteredUsers(ctx, "tok", query.UserFilter{Role: query.All, Status: "banned_learner"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(10), rows[0].User.ID)
}
