// Command fake_backend serves a seeded, in-memory tutoring platform API for
// running the admin dashboard locally without the real backend.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/observability"
)

var (
	addr        = flag.String("addr", ":8000", "listen address")
	userCount   = flag.Int("users", 40, "number of users")
	reportCount = flag.Int("reports", 120, "number of reports")
	banCount    = flag.Int("bans", 10, "number of ban records per role")
	seed        = flag.Int64("seed", time.Now().UnixNano(), "rng seed")
	password    = flag.String("password", "password", "password accepted for every account")
)

// adminStudentID signs in as the seeded admin account.
const adminStudentID = "6500000"

type user struct {
	ID          int64   `json:"id"`
	StudentID   string  `json:"student_id"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Gender      string  `json:"gender"`
	PhoneNumber string  `json:"phone_number"`
	Balance     float64 `json:"balance"`
	BanCount    int     `json:"ban_count"`
	LearnerID   *int64  `json:"learner_id"`
	TeacherID   *int64  `json:"teacher_id"`
	AdminID     *int64  `json:"admin_id"`
	LearnerFlag int     `json:"learner_flag"`
	TeacherFlag int     `json:"teacher_flag"`
}

type ban struct {
	ID        int64  `json:"id"`
	LearnerID int64  `json:"learner_id,omitempty"`
	TeacherID int64  `json:"teacher_id,omitempty"`
	BanStart  string `json:"ban_start"`
	BanEnd    string `json:"ban_end"`
}

// platform holds the seeded state. Every handler takes mu.
type platform struct {
	mu      sync.Mutex
	users   []user
	reports map[int64]models.ReportUpdate
	bans    map[models.Role][]ban
	nextBan int64
	tokens  map[string]string // bearer token -> student id
}

var (
	firstNames = []string{"Anan", "Mali", "Somchai", "Ploy", "Krit", "Nok", "Beam", "Fah", "Tong", "Mint"}
	lastNames  = []string{"Srisuk", "Chaiyo", "Boonmee", "Wongsa", "Saelim", "Kaewkla", "Jaidee", "Thongdee"}
)

func newPlatform(r *rand.Rand, users, reports, bans int, now time.Time) *platform {
	p := &platform{
		reports: make(map[int64]models.ReportUpdate),
		bans:    map[models.Role][]ban{models.RoleLearner: nil, models.RoleTeacher: nil},
		tokens:  make(map[string]string),
	}

	adminID := int64(1)
	p.users = append(p.users, user{ID: 1, StudentID: adminStudentID, FirstName: "Dash", LastName: "Admin", AdminID: &adminID})

	var learners, teachers []int64
	for i := 1; i <= users; i++ {
		u := user{
			ID:          int64(i + 1),
			StudentID:   strconv.Itoa(6500000 + i),
			FirstName:   firstNames[r.Intn(len(firstNames))],
			LastName:    lastNames[r.Intn(len(lastNames))],
			Gender:      []string{"male", "female", "other"}[r.Intn(3)],
			PhoneNumber: fmt.Sprintf("08%08d", r.Intn(100000000)),
			Balance:     float64(r.Intn(500000)) / 100,
		}
		// Most users learn, a third teach, some do both.
		if r.Intn(10) < 8 {
			id := int64(len(learners) + 1)
			u.LearnerID = &id
			u.LearnerFlag = r.Intn(4)
			learners = append(learners, id)
		}
		if r.Intn(3) == 0 {
			id := int64(len(teachers) + 1)
			u.TeacherID = &id
			u.TeacherFlag = r.Intn(4)
			teachers = append(teachers, id)
		}
		p.users = append(p.users, u)
	}

	for i := 1; i <= reports; i++ {
		status := []string{"pending", "pending", "approved", "rejected"}[r.Intn(4)]
		day := now.AddDate(0, 0, -r.Intn(90)).Add(-time.Duration(r.Intn(86400)) * time.Second)
		desc := "Reported during class"
		rep := models.ReportUpdate{
			ClassSessionID:  int64(1000 + r.Intn(500)),
			ReportDate:      day.UTC().Format(time.RFC3339),
			Description:     &desc,
			Reason:          models.Reasons[r.Intn(len(models.Reasons))],
			Status:          status,
			Type:            []string{"learner", "teacher"}[r.Intn(2)],
			ReportingUserID: int64(2 + r.Intn(users)),
			ReportedUserID:  int64(2 + r.Intn(users)),
		}
		if status != "pending" {
			rep.Result = "Reviewed"
		}
		p.reports[int64(i)] = rep
	}

	seedBans := func(role models.Role, ids []int64) {
		for i := 0; i < bans && len(ids) > 0; i++ {
			start := now.AddDate(0, 0, -r.Intn(30))
			b := ban{BanStart: start.UTC().Format(time.RFC3339), BanEnd: start.AddDate(0, 0, 1+r.Intn(21)).UTC().Format(time.RFC3339)}
			subject := ids[r.Intn(len(ids))]
			if role == models.RoleLearner {
				b.LearnerID = subject
			} else {
				b.TeacherID = subject
			}
			p.nextBan++
			b.ID = p.nextBan
			p.bans[role] = append(p.bans[role], b)
		}
	}
	seedBans(models.RoleLearner, learners)
	seedBans(models.RoleTeacher, teachers)
	return p
}

func (p *platform) router(logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/login", p.login).Methods("POST")

	authed := r.NewRoute().Subrouter()
	authed.Use(p.requireToken)
	authed.HandleFunc("/users", p.listUsers).Methods("GET")
	authed.HandleFunc("/admins", p.listAdmins).Methods("GET")
	authed.HandleFunc("/reports", p.listReports).Methods("GET")
	authed.HandleFunc("/reports/{id:[0-9]+}", p.getReport).Methods("GET")
	authed.HandleFunc("/reports/{id:[0-9]+}", p.putReport).Methods("PUT")
	authed.HandleFunc("/ban_{role:learner|teacher}s", p.listBans).Methods("GET")
	authed.HandleFunc("/ban_{role:learner|teacher}s", p.createBan).Methods("POST")
	authed.HandleFunc("/ban_{role:learner|teacher}s/{id:[0-9]+}", p.deleteBan).Methods("DELETE")

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		logger.Debug("request", zap.String("method", req.Method), zap.String("path", req.URL.Path))
		r.ServeHTTP(w, req)
	})
}

func (p *platform) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		p.mu.Lock()
		_, ok := p.tokens[token]
		p.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *platform) login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, u := range p.users {
		if u.StudentID == creds.Username && creds.Password == *password {
			token := fmt.Sprintf("fake-%s-%d", u.StudentID, len(p.tokens)+1)
			p.tokens[token] = u.StudentID
			writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": map[string]string{"student_id": u.StudentID}})
			return
		}
	}
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid username or password"})
}

func (p *platform) listUsers(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	writeJSON(w, http.StatusOK, p.users)
}

func (p *platform) listAdmins(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []map[string]int64
	for _, u := range p.users {
		if u.AdminID != nil {
			out = append(out, map[string]int64{"id": *u.AdminID, "user_id": u.ID})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type reportOut struct {
	ID int64 `json:"id"`
	models.ReportUpdate
}

func (p *platform) listReports(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]reportOut, 0, len(p.reports))
	for id, rep := range p.reports {
		out = append(out, reportOut{ID: id, ReportUpdate: rep})
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (p *platform) getReport(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	p.mu.Lock()
	defer p.mu.Unlock()
	rep, ok := p.reports[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "report not found"})
		return
	}
	writeJSON(w, http.StatusOK, reportOut{ID: id, ReportUpdate: rep})
}

func (p *platform) putReport(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	var u models.ReportUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.reports[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "report not found"})
		return
	}
	p.reports[id] = u
	w.WriteHeader(http.StatusNoContent)
}

func (p *platform) listBans(w http.ResponseWriter, r *http.Request) {
	role := models.Role(mux.Vars(r)["role"])
	p.mu.Lock()
	defer p.mu.Unlock()
	writeJSON(w, http.StatusOK, p.bans[role])
}

func (p *platform) createBan(w http.ResponseWriter, r *http.Request) {
	role := models.Role(mux.Vars(r)["role"])
	var in struct {
		LearnerID int64  `json:"learner_id"`
		TeacherID int64  `json:"teacher_id"`
		BanStart  string `json:"ban_start"`
		BanEnd    string `json:"ban_end"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextBan++
	b := ban{ID: p.nextBan, LearnerID: in.LearnerID, TeacherID: in.TeacherID, BanStart: in.BanStart, BanEnd: in.BanEnd}
	p.bans[role] = append(p.bans[role], b)
	writeJSON(w, http.StatusCreated, b)
}

func (p *platform) deleteBan(w http.ResponseWriter, r *http.Request) {
	role := models.Role(mux.Vars(r)["role"])
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, b := range p.bans[role] {
		if b.ID == id {
			p.bans[role] = append(p.bans[role][:i], p.bans[role][i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "ban not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	flag.Parse()

	logger, err := observability.InitLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	p := newPlatform(rand.New(rand.NewSource(*seed)), *userCount, *reportCount, *banCount, time.Now())
	logger.Info("fake backend running",
		zap.String("addr", *addr),
		zap.String("admin_username", adminStudentID),
		zap.Int("users", len(p.users)),
		zap.Int("reports", len(p.reports)))

	srv := &http.Server{Addr: *addr, Handler: p.router(logger), ReadTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("listen", zap.Error(err))
	}
}
