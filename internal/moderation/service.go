// Package moderation runs the dashboard's reads and mutations against the
// backend: cached snapshots for views, the per-subject busy guard, and the
// report decision and ban actions.
package moderation

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/bans"
	"github.com/kututorium/adminserve/internal/db"
	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/observability"
)

var tracer = observability.Tracer("moderation")

// Backend is the part of the platform API the service needs.
type Backend interface {
	ListReports(ctx context.Context, token string) ([]models.Report, error)
	GetReport(ctx context.Context, token string, id int64) (models.Report, error)
	UpdateReport(ctx context.Context, token string, id int64, u models.ReportUpdate) (models.Report, error)
	ListUsers(ctx context.Context, token string) ([]models.User, error)
	ListBans(ctx context.Context, token string, role models.Role) ([]models.BanRecord, error)
	CreateBan(ctx context.Context, token string, role models.Role, subjectID int64, start, end time.Time) error
	DeleteBan(ctx context.Context, token string, role models.Role, recordID int64) error
}

// Notifier broadcasts changes to other instances.
type Notifier interface {
	PublishUpdate(ctx context.Context, msg db.UpdateMessage) error
}

// Update entities.
const (
	EntityReports = "reports"
	EntityUsers   = "users"
)

// Directory is the users snapshot: every account plus both ban histories.
type Directory struct {
	Users       []models.User
	LearnerBans []models.BanRecord
	TeacherBans []models.BanRecord
}

// Resolve returns the active learner and teacher bans at now.
func (d Directory) Resolve(now time.Time) (learner, teacher bans.Resolution) {
	return bans.Resolve(d.LearnerBans, now), bans.Resolve(d.TeacherBans, now)
}

// User returns the account with the given id.
func (d Directory) User(id int64) (models.User, bool) {
	i := slices.IndexFunc(d.Users, func(u models.User) bool { return u.ID == id })
	if i < 0 {
		return models.User{}, false
	}
	return d.Users[i], true
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	BanDuration time.Duration
	SnapshotTTL time.Duration
	Guard       BusyGuard
	Notifier    Notifier
	Logger      *zap.Logger
	Metrics     observability.MetricsRegistry
	Now         func() time.Time
}

// Service is safe for concurrent use.
type Service struct {
	backend     Backend
	guard       BusyGuard
	notifier    Notifier
	banDuration time.Duration
	logger      *zap.Logger
	metrics     observability.MetricsRegistry
	now         func() time.Time
	origin      string

	reports *snapshot[[]models.Report]
	users   *snapshot[Directory]
}

// NewService creates a Service over backend.
func NewService(backend Backend, opts Options) *Service {
	if opts.BanDuration <= 0 {
		opts.BanDuration = 7 * 24 * time.Hour
	}
	if opts.Guard == nil {
		opts.Guard = NewMemoryGuard()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewNoOpRegistry()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		backend:     backend,
		guard:       opts.Guard,
		notifier:    opts.Notifier,
		banDuration: opts.BanDuration,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		now:         opts.Now,
		origin:      uuid.NewString(),
		reports:     newSnapshot[[]models.Report](EntityReports, opts.SnapshotTTL, opts.Now, opts.Metrics),
		users:       newSnapshot[Directory](EntityUsers, opts.SnapshotTTL, opts.Now, opts.Metrics),
	}
}

// Now returns the service clock.
func (s *Service) Now() time.Time { return s.now() }

// BanDuration is how long a new ban lasts.
func (s *Service) BanDuration() time.Duration { return s.banDuration }

// Reports returns every report, from the snapshot when it is fresh.
func (s *Service) Reports(ctx context.Context, token string) ([]models.Report, error) {
	return s.reports.load(ctx, func(ctx context.Context) ([]models.Report, error) {
		return s.backend.ListReports(ctx, token)
	})
}

// Report fetches one report straight from the backend.
func (s *Service) Report(ctx context.Context, token string, id int64) (models.Report, error) {
	return s.backend.GetReport(ctx, token, id)
}

// Directory returns users and ban histories, from the snapshot when fresh.
// The three listings are fetched in sequence; any failure fails the whole
// read.
func (s *Service) Directory(ctx context.Context, token string) (Directory, error) {
	return s.users.load(ctx, func(ctx context.Context) (Directory, error) {
		var d Directory
		var err error
		if d.Users, err = s.backend.ListUsers(ctx, token); err != nil {
			return Directory{}, err
		}
		if d.LearnerBans, err = s.backend.ListBans(ctx, token, models.RoleLearner); err != nil {
			return Directory{}, err
		}
		if d.TeacherBans, err = s.backend.ListBans(ctx, token, models.RoleTeacher); err != nil {
			return Directory{}, err
		}
		return d, nil
	})
}

// Busy reports whether key has a mutation in flight.
func (s *Service) Busy(ctx context.Context, key string) bool {
	return s.guard.Held(ctx, key)
}

// Action is a report decision.
type Action string

const (
	Approve Action = "approve"
	Reject  Action = "reject"
)

// ParseAction accepts "approve" or "reject" in any case.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case Approve, Reject:
		return a, nil
	}
	return "", ErrInvalidAction
}

// Status is the report status the action moves to.
func (a Action) Status() models.ReportStatus {
	if a == Approve {
		return models.ReportApproved
	}
	return models.ReportRejected
}

// Decide approves or rejects a pending report with a note.
func (s *Service) Decide(ctx context.Context, token string, reportID int64, action Action, note string) (models.Report, error) {
	ctx, span := tracer.Start(ctx, "moderation.Decide")
	defer span.End()
	span.SetAttributes(attribute.Int64("report.id", reportID), attribute.String("action", string(action)))

	name := "decide_" + string(action)
	if action != Approve && action != Reject {
		s.metrics.IncrementModerationActions("decide", "invalid")
		return models.Report{}, ErrInvalidAction
	}
	note = strings.TrimSpace(note)
	if note == "" {
		s.metrics.IncrementModerationActions(name, "invalid")
		return models.Report{}, ErrNoteRequired
	}

	release, err := s.acquire(ctx, ReportKey(reportID), "report")
	if err != nil {
		s.metrics.IncrementModerationActions(name, outcomeOf(err))
		return models.Report{}, err
	}
	defer release()

	cur, err := s.backend.GetReport(ctx, token, reportID)
	if err != nil {
		return models.Report{}, s.failed(span, name, err)
	}
	if !cur.IsPending() {
		s.metrics.IncrementModerationActions(name, "invalid")
		return models.Report{}, ErrNotPending
	}

	updated, err := s.backend.UpdateReport(ctx, token, reportID, cur.Decided(action.Status(), note, s.now()))
	if err != nil {
		return models.Report{}, s.failed(span, name, err)
	}

	s.changed(ctx, EntityReports, string(action), reportID)
	s.metrics.IncrementModerationActions(name, "success")
	s.logger.Info("report decided", zap.Int64("report_id", reportID), zap.String("action", string(action)))
	return updated, nil
}

// Ban suspends the user's learner or teacher profile for the configured
// duration, starting now. It returns the new window.
func (s *Service) Ban(ctx context.Context, token string, userID int64, role models.Role) (bans.ActiveBan, error) {
	ctx, span := tracer.Start(ctx, "moderation.Ban")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID), attribute.String("role", string(role)))

	name := "ban_" + string(role)
	subjectID, err := s.subject(ctx, token, userID, role)
	if err != nil {
		return bans.ActiveBan{}, s.failed(span, name, err)
	}

	release, err := s.acquire(ctx, SubjectKey(role, subjectID), string(role))
	if err != nil {
		s.metrics.IncrementModerationActions(name, outcomeOf(err))
		return bans.ActiveBan{}, err
	}
	defer release()

	start := s.now()
	end := start.Add(s.banDuration)
	if err := s.backend.CreateBan(ctx, token, role, subjectID, start, end); err != nil {
		return bans.ActiveBan{}, s.failed(span, name, err)
	}

	s.changed(ctx, EntityUsers, "ban", userID)
	s.metrics.IncrementModerationActions(name, "success")
	s.logger.Info("subject banned",
		zap.Int64("user_id", userID),
		zap.String("role", string(role)),
		zap.Int64("subject_id", subjectID),
		zap.Time("until", end))
	return bans.ActiveBan{Until: end}, nil
}

// Unban lifts the user's active ban for role by deleting the record the
// resolver currently selects. Ban histories are re-read from the backend so
// the record id is never taken from a stale snapshot.
func (s *Service) Unban(ctx context.Context, token string, userID int64, role models.Role) error {
	ctx, span := tracer.Start(ctx, "moderation.Unban")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", userID), attribute.String("role", string(role)))

	name := "unban_" + string(role)
	subjectID, err := s.subject(ctx, token, userID, role)
	if err != nil {
		return s.failed(span, name, err)
	}

	release, err := s.acquire(ctx, SubjectKey(role, subjectID), string(role))
	if err != nil {
		s.metrics.IncrementModerationActions(name, outcomeOf(err))
		return err
	}
	defer release()

	records, err := s.backend.ListBans(ctx, token, role)
	if err != nil {
		return s.failed(span, name, err)
	}
	active, ok := bans.Resolve(records, s.now()).Lookup(subjectID)
	if !ok {
		s.metrics.IncrementModerationActions(name, "invalid")
		return ErrNotBanned
	}
	if err := s.backend.DeleteBan(ctx, token, role, active.RecordID); err != nil {
		return s.failed(span, name, err)
	}

	s.changed(ctx, EntityUsers, "unban", userID)
	s.metrics.IncrementModerationActions(name, "success")
	s.logger.Info("subject unbanned",
		zap.Int64("user_id", userID),
		zap.String("role", string(role)),
		zap.Int64("record_id", active.RecordID))
	return nil
}

// HandleUpdate drops the snapshot named by a notice from another instance.
func (s *Service) HandleUpdate(msg db.UpdateMessage) {
	if msg.Origin == s.origin {
		return
	}
	s.invalidate(msg.Entity)
}

func (s *Service) subject(ctx context.Context, token string, userID int64, role models.Role) (int64, error) {
	d, err := s.Directory(ctx, token)
	if err != nil {
		return 0, err
	}
	u, ok := d.User(userID)
	if !ok {
		return 0, ErrUserNotFound
	}
	id, ok := u.SubjectID(role)
	if !ok {
		return 0, ErrNoRole
	}
	return id, nil
}

func (s *Service) acquire(ctx context.Context, key, kind string) (func(), error) {
	release, err := s.guard.Acquire(ctx, key)
	if errors.Is(err, ErrBusy) {
		s.metrics.IncrementBusyRejections(kind)
	}
	return release, err
}

func (s *Service) invalidate(entity string) {
	switch entity {
	case EntityReports:
		s.reports.invalidate()
	case EntityUsers:
		s.users.invalidate()
	}
}

// changed invalidates the local snapshot and tells other instances.
func (s *Service) changed(ctx context.Context, entity, action string, id int64) {
	s.invalidate(entity)
	if s.notifier == nil {
		return
	}
	msg := db.UpdateMessage{Entity: entity, Action: action, ID: id, Origin: s.origin}
	if err := s.notifier.PublishUpdate(ctx, msg); err != nil {
		s.logger.Warn("failed to publish update", zap.String("entity", entity), zap.Error(err))
	}
}

func (s *Service) failed(span trace.Span, name string, err error) error {
	s.metrics.IncrementModerationActions(name, outcomeOf(err))
	if outcomeOf(err) == "failure" {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("moderation action failed", zap.String("action", name), zap.Error(err))
	}
	return err
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, ErrNoRole), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrNotBanned),
		errors.Is(err, ErrNotPending), errors.Is(err, ErrNoteRequired), errors.Is(err, ErrInvalidAction):
		return "invalid"
	}
	return "failure"
}
