package moderation

import (
	"context"
	"sync"
	"time"

	"github.com/kututorium/adminserve/internal/db"
	"github.com/kututorium/adminserve/internal/models"
)

type createdBan struct {
	Role       models.Role
	SubjectID  int64
	Start, End time.Time
}

type deletedBan struct {
	Role     models.Role
	RecordID int64
}

// fakeBackend is an in-memory Backend recording every call.
type fakeBackend struct {
	mu          sync.Mutex
	reports     []models.Report
	users       []models.User
	learnerBans []models.BanRecord
	teacherBans []models.BanRecord
	err         error

	reportLists int
	userLists   int
	updates     []models.ReportUpdate
	created     []createdBan
	deleted     []deletedBan

	// onListReports runs inside ListReports before it returns.
	onListReports func()
	// block, when set, stalls CreateBan until it is closed.
	block chan struct{}
}

func (f *fakeBackend) ListReports(ctx context.Context, token string) ([]models.Report, error) {
	f.mu.Lock()
	f.reportLists++
	out, err, hook := append([]models.Report(nil), f.reports...), f.err, f.onListReports
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return out, err
}

func (f *fakeBackend) GetReport(ctx context.Context, token string, id int64) (models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return models.Report{}, f.err
	}
	for _, r := range f.reports {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Report{}, errNotFound
}

func (f *fakeBackend) UpdateReport(ctx context.Context, token string, id int64, u models.ReportUpdate) (models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, u)
	for i, r := range f.reports {
		if r.ID == id {
			r.Status = u.Status
			note := u.Result
			r.ResultNote = &note
			f.reports[i] = r
			return r, nil
		}
	}
	return models.Report{}, errNotFound
}

func (f *fakeBackend) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userLists++
	return append([]models.User(nil), f.users...), f.err
}

func (f *fakeBackend) ListBans(ctx context.Context, token string, role models.Role) ([]models.BanRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if role == models.RoleLearner {
		return append([]models.BanRecord(nil), f.learnerBans...), f.err
	}
	return append([]models.BanRecord(nil), f.teacherBans...), f.err
}

func (f *fakeBackend) CreateBan(ctx context.Context, token string, role models.Role, subjectID int64, start, end time.Time) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, createdBan{role, subjectID, start, end})
	return nil
}

func (f *fakeBackend) DeleteBan(ctx context.Context, token string, role models.Role, recordID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, deletedBan{role, recordID})
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []db.UpdateMessage
}

func (n *fakeNotifier) PublishUpdate(ctx context.Context, msg db.UpdateMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}
