package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/export"
	"github.com/kututorium/adminserve/internal/middleware"
	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/moderation"
	"github.com/kututorium/adminserve/internal/query"
)

// userItem is one row of the user table.
type userItem struct {
	models.User
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	StatusKey   string     `json:"status_key"`
	Until       *time.Time `json:"until,omitempty"`
	Indefinite  bool       `json:"indefinite,omitempty"`
	LearnerBan  *banState  `json:"learner_ban,omitempty"`
	TeacherBan  *banState  `json:"teacher_ban,omitempty"`
	LearnerBusy bool       `json:"learner_busy"`
	TeacherBusy bool       `json:"teacher_busy"`
}

type banState struct {
	RecordID   int64      `json:"record_id"`
	Until      *time.Time `json:"until,omitempty"`
	Indefinite bool       `json:"indefinite,omitempty"`
}

func newUserItem(e moderation.UserEntry) userItem {
	st := e.Status
	it := userItem{
		User:        e.User,
		Name:        e.User.FullName(),
		Status:      st.Kind.String(),
		StatusKey:   st.Kind.FilterKey(),
		Indefinite:  st.Indefinite,
		LearnerBusy: e.LearnerBusy,
		TeacherBusy: e.TeacherBusy,
	}
	if !st.Until.IsZero() {
		until := st.Until
		it.Until = &until
	}
	if b, ok := st.Ban(models.RoleLearner); ok {
		it.LearnerBan = newBanState(b.RecordID, b.Until, b.Indefinite)
	}
	if b, ok := st.Ban(models.RoleTeacher); ok {
		it.TeacherBan = newBanState(b.RecordID, b.Until, b.Indefinite)
	}
	return it
}

func newBanState(recordID int64, until time.Time, indefinite bool) *banState {
	b := &banState{RecordID: recordID, Indefinite: indefinite}
	if !until.IsZero() {
		b.Until = &until
	}
	return b
}

// ListUsersHandler handles GET /api/users.
func (s *Server) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "users"
	defer func() { s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start)) }()

	page, err := s.Moderation.UserView(r.Context(), backendToken(r), userFilter(r.URL.Query()), pageParam(r.URL.Query()))
	if err != nil {
		s.fail(w, r, endpoint, err)
		return
	}
	s.Metrics.IncrementRequests(endpoint, r.Method, "200")
	writeJSON(w, query.MapPage(page, newUserItem))
}

// ExportUsersHandler handles GET /api/users/export.
func (s *Server) ExportUsersHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "users_export"
	defer func() { s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start)) }()

	rows, err := s.Moderation.FilteredUsers(r.Context(), backendToken(r), userFilter(r.URL.Query()))
	if err != nil {
		s.fail(w, r, endpoint, err)
		return
	}

	setCSVHeaders(w, export.UsersFilename(s.Moderation.Now().In(s.Config.Location())))
	if err := export.WriteUsers(w, rows); err != nil {
		middleware.LoggerFromRequest(r, s.Logger).Warn("write users csv", zap.Error(err))
	}
	s.Metrics.IncrementExports("users")
	s.Metrics.IncrementRequests(endpoint, r.Method, "200")
}

type banResponse struct {
	UserID int64       `json:"user_id"`
	Role   models.Role `json:"role"`
	Banned bool        `json:"banned"`
	Until  *time.Time  `json:"until,omitempty"`
}

// banTarget reads the {id} and {role} path variables.
func banTarget(r *http.Request) (int64, models.Role, bool) {
	id, ok := pathID(r)
	if !ok {
		return 0, "", false
	}
	role, ok := models.ParseRole(mux.Vars(r)["role"])
	return id, role, ok
}

// BanHandler handles POST /api/users/{id}/bans/{role}.
func (s *Server) BanHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "ban"
	defer func() { s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start)) }()

	id, role, ok := banTarget(r)
	if !ok {
		s.Metrics.IncrementRequests(endpoint, r.Method, "400")
		writeError(w, http.StatusBadRequest, "invalid user id or role")
		return
	}
	ban, err := s.Moderation.Ban(r.Context(), backendToken(r), id, role)
	if err != nil {
		s.fail(w, r, endpoint, err)
		return
	}
	s.Metrics.IncrementRequests(endpoint, r.Method, "201")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, banResponse{UserID: id, Role: role, Banned: true, Until: &ban.Until})
}

// UnbanHandler handles DELETE /api/users/{id}/bans/{role}.
func (s *Server) UnbanHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "unban"
	defer func() { s.Metrics.RecordRequestLatency(endpoint, r.Method, time.Since(start)) }()

	id, role, ok := banTarget(r)
	if !ok {
		s.Metrics.IncrementRequests(endpoint, r.Method, "400")
		writeError(w, http.StatusBadRequest, "invalid user id or role")
		return
	}
	if err := s.Moderation.Unban(r.Context(), backendToken(r), id, role); err != nil {
		s.fail(w, r, endpoint, err)
		return
	}
	s.Metrics.IncrementRequests(endpoint, r.Method, "200")
	writeJSON(w, banResponse{UserID: id, Role: role, Banned: false})
}
