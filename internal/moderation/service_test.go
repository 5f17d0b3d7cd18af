package moderation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/db"
	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/observability"
)

var errNotFound = errors.New("not found")

var testNow = time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)

func id(v int64) *int64 { return &v }

func newTestService(t *testing.T, b *fakeBackend) (*Service, *observability.MockMetricsRegistry, *fakeNotifier) {
	t.Helper()
	metrics := &observability.MockMetricsRegistry{}
	notifier := &fakeNotifier{}
	svc := NewService(b, Options{
		SnapshotTTL: time.Minute,
		Notifier:    notifier,
		Logger:      zap.NewNop(),
		Metrics:     metrics,
		Now:         func() time.Time { return testNow },
	})
	return svc, metrics, notifier
}

func sampleBackend() *fakeBackend {
	return &fakeBackend{
		reports: []models.Report{
			{ID: 1, Status: "pending", Reason: "absent", ReportDate: "2024-01-02"},
			{ID: 2, Status: "approved", Reason: "bullying", ReportDate: "2024-01-03"},
		},
		users: []models.User{
			{ID: 10, FirstName: "Ann", LearnerID: id(5)},
			{ID: 11, FirstName: "Bo", TeacherID: id(7)},
			{ID: 12, FirstName: "Cy"},
		},
		learnerBans: []models.BanRecord{
			{ID: 100, Role: models.RoleLearner, SubjectID: "5", BanStart: "2024-01-01", BanEnd: "2024-01-08"},
			{ID: 101, Role: models.RoleLearner, SubjectID: "5", BanStart: "2024-01-02", BanEnd: "2024-01-20"},
		},
	}
}

func TestDecideRequiresNote(t *testing.T) {
	b := sampleBackend()
	svc, metrics, _ := newTestService(t, b)

	_, err := svc.Decide(context.Background(), "tok", 1, Approve, "   ")
	assert.ErrorIs(t, err, ErrNoteRequired)
	assert.Empty(t, b.updates)
	assert.Equal(t, 1, metrics.Count("moderation_actions", "decide_approve", "invalid"))

	_, err = svc.Decide(context.Background(), "tok", 1, Action("escalate"), "note")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestDecideOnlyPending(t *testing.T) {
	svc, _, _ := newTestService(t, sampleBackend())
	_, err := svc.Decide(context.Background(), "tok", 2, Reject, "dup")
	assert.ErrorIs(t, err, ErrNotPending)
}

func TestDecideUpdatesAndInvalidates(t *testing.T) {
	b := sampleBackend()
	svc, metrics, notifier := newTestService(t, b)
	ctx := context.Background()

	_, err := svc.Reports(ctx, "tok")
	require.NoError(t, err)
	_, err = svc.Reports(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 1, b.reportLists, "second read served from snapshot")

	r, err := svc.Decide(ctx, "tok", 1, Approve, " verified absence ")
	require.NoError(t, err)
	assert.Equal(t, "approved", r.Status)
	require.Len(t, b.updates, 1)
	assert.Equal(t, "verified absence", b.updates[0].Result)
	assert.Equal(t, "absent", b.updates[0].Reason)
	assert.Equal(t, 1, metrics.Count("moderation_actions", "decide_approve", "success"))

	require.Len(t, notifier.msgs, 1)
	assert.Equal(t, EntityReports, notifier.msgs[0].Entity)
	assert.Equal(t, int64(1), notifier.msgs[0].ID)

	reports, err := svc.Reports(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, 2, b.reportLists, "mutation drops the snapshot")
	assert.Equal(t, "approved", reports[0].Status)
}

func TestDecideBusy(t *testing.T) {
	svc, metrics, _ := newTestService(t, sampleBackend())
	ctx := context.Background()

	release, err := svc.guard.Acquire(ctx, ReportKey(1))
	require.NoError(t, err)
	_, err = svc.Decide(ctx, "tok", 1, Reject, "x")
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, 1, metrics.Count("busy_rejections", "report"))
	release()

	_, err = svc.Decide(ctx, "tok", 1, Reject, "x")
	assert.NoError(t, err)
}

func TestDecideBackendFailureLeavesState(t *testing.T) {
	b := sampleBackend()
	svc, metrics, notifier := newTestService(t, b)
	b.err = errors.New("connection refused")

	_, err := svc.Decide(context.Background(), "tok", 1, Approve, "note")
	assert.EqualError(t, err, "connection refused")
	assert.Empty(t, notifier.msgs)
	assert.False(t, svc.Busy(context.Background(), ReportKey(1)), "slot released after failure")
	assert.Equal(t, 1, metrics.Count("moderation_actions", "decide_approve", "failure"))
}

func TestBanCreatesFixedWindow(t *testing.T) {
	b := sampleBackend()
	svc, _, notifier := newTestService(t, b)

	ban, err := svc.Ban(context.Background(), "tok", 11, models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(7*24*time.Hour), ban.Until)

	require.Len(t, b.created, 1)
	assert.Equal(t, createdBan{models.RoleTeacher, 7, testNow, testNow.Add(7 * 24 * time.Hour)}, b.created[0])
	require.Len(t, notifier.msgs, 1)
	assert.Equal(t, EntityUsers, notifier.msgs[0].Entity)
}

func TestBanValidation(t *testing.T) {
	b := sampleBackend()
	svc, _, _ := newTestService(t, b)
	ctx := context.Background()

	_, err := svc.Ban(ctx, "tok", 12, models.RoleLearner)
	assert.ErrorIs(t, err, ErrNoRole)
	_, err = svc.Ban(ctx, "tok", 10, models.RoleTeacher)
	assert.ErrorIs(t, err, ErrNoRole)
	_, err = svc.Ban(ctx, "tok", 99, models.RoleLearner)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, b.created)
}

func TestUnbanDeletesResolvedRecord(t *testing.T) {
	b := sampleBackend()
	svc, metrics, _ := newTestService(t, b)

	require.NoError(t, svc.Unban(context.Background(), "tok", 10, models.RoleLearner))
	assert.Equal(t, []deletedBan{{models.RoleLearner, 101}}, b.deleted, "latest-ending record is lifted")
	assert.Equal(t, 1, metrics.Count("moderation_actions", "unban_learner", "success"))

	err := svc.Unban(context.Background(), "tok", 11, models.RoleTeacher)
	assert.ErrorIs(t, err, ErrNotBanned)
}

func TestBusyIsPerSubject(t *testing.T) {
	b := sampleBackend()
	b.block = make(chan struct{})
	svc, _, _ := newTestService(t, b)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := svc.Ban(ctx, "tok", 10, models.RoleLearner)
		done <- err
	}()
	require.Eventually(t, func() bool {
		return svc.Busy(ctx, SubjectKey(models.RoleLearner, 5))
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Ban(ctx, "tok", 10, models.RoleLearner)
	assert.ErrorIs(t, err, ErrBusy)
	assert.False(t, svc.Busy(ctx, SubjectKey(models.RoleTeacher, 7)), "other rows stay interactive")

	close(b.block)
	require.NoError(t, <-done)
	assert.False(t, svc.Busy(ctx, SubjectKey(models.RoleLearner, 5)))

	require.NoError(t, svc.Unban(ctx, "tok", 10, models.RoleLearner))
}

func TestHandleUpdate(t *testing.T) {
	b := sampleBackend()
	svc, _, _ := newTestService(t, b)
	ctx := context.Background()

	_, err := svc.Directory(ctx, "tok")
	require.NoError(t, err)

	svc.HandleUpdate(db.UpdateMessage{Entity: EntityUsers, Origin: svc.origin})
	_, _ = svc.Directory(ctx, "tok")
	assert.Equal(t, 1, b.userLists, "own notices are ignored")

	svc.HandleUpdate(db.UpdateMessage{Entity: EntityUsers, Origin: "other"})
	_, _ = svc.Directory(ctx, "tok")
	assert.Equal(t, 2, b.userLists)
}

func TestParseAction(t *testing.T) {
	a, err := ParseAction(" Approve ")
	require.NoError(t, err)
	assert.Equal(t, Approve, a)
	assert.Equal(t, models.ReportApproved, a.Status())
	assert.Equal(t, models.ReportRejected, Reject.Status())
	_, err = ParseAction("delete")
	assert.ErrorIs(t, err, ErrInvalidAction)
}
