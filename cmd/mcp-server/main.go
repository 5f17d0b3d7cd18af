package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/backend"
	"github.com/kututorium/adminserve/internal/config"
	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/moderation"
	"github.com/kututorium/adminserve/internal/observability"
	"github.com/kututorium/adminserve/internal/query"
)

type ListReportsInput struct {
	Query  string `json:"query,omitempty"`
	Reason string `json:"reason,omitempty"`
	Status string `json:"status,omitempty"`
	Start  string `json:"start,omitempty"` // YYYY-MM-DD
	End    string `json:"end,omitempty"`   // YYYY-MM-DD
	Page   int    `json:"page,omitempty"`
}

type GetReportInput struct {
	ID int64 `json:"id"`
}

type ReportOutput struct {
	Report    models.Report `json:"report"`
	Evidence  string        `json:"evidence,omitempty"`
	Decidable bool          `json:"decidable"`
}

type ListUsersInput struct {
	Query  string `json:"query,omitempty"`
	Role   string `json:"role,omitempty"`
	Status string `json:"status,omitempty"`
	Page   int    `json:"page,omitempty"`
}

type UserSummary struct {
	ID         int64  `json:"id"`
	StudentID  string `json:"student_id"`
	Name       string `json:"name"`
	LearnerID  *int64 `json:"learner_id,omitempty"`
	TeacherID  *int64 `json:"teacher_id,omitempty"`
	Status     string `json:"status"`
	Until      string `json:"until,omitempty"` // RFC 3339
	Indefinite bool   `json:"indefinite,omitempty"`
}

// ModerationTools exposes read-only views of the moderation queue.
type ModerationTools struct {
	svc    *moderation.Service
	token  string
	loc    *time.Location
	logger *zap.Logger
}

// ListReports implements the list_reports tool.
func (t *ModerationTools) ListReports(ctx context.Context, req *mcp.CallToolRequest, in ListReportsInput) (*mcp.CallToolResult, query.Page[models.Report], error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	f := query.ReportFilter{Query: in.Query, Reason: orAll(in.Reason), Status: orAll(in.Status)}
	var err error
	if f.Start, err = parseDay(in.Start, t.loc); err != nil {
		return nil, query.Page[models.Report]{}, err
	}
	if f.End, err = parseDay(in.End, t.loc); err != nil {
		return nil, query.Page[models.Report]{}, err
	}

	page, err := t.svc.ReportView(ctx, t.token, f, in.Page)
	if err != nil {
		t.logger.Error("list reports", zap.Error(err))
		return nil, query.Page[models.Report]{}, fmt.Errorf("list reports: %w", err)
	}
	return nil, page, nil
}

// GetReport implements the get_report tool.
func (t *ModerationTools) GetReport(ctx context.Context, req *mcp.CallToolRequest, in GetReportInput) (*mcp.CallToolResult, ReportOutput, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	r, err := t.svc.Report(ctx, t.token, in.ID)
	if err != nil {
		return nil, ReportOutput{}, fmt.Errorf("get report %d: %w", in.ID, err)
	}
	return nil, ReportOutput{Report: r, Evidence: r.EvidenceSource(), Decidable: r.IsPending()}, nil
}

// ListUsers implements the list_users tool.
func (t *ModerationTools) ListUsers(ctx context.Context, req *mcp.CallToolRequest, in ListUsersInput) (*mcp.CallToolResult, query.Page[UserSummary], error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	f := query.UserFilter{Query: in.Query, Role: orAll(in.Role), Status: orAll(in.Status)}
	page, err := t.svc.UserView(ctx, t.token, f, in.Page)
	if err != nil {
		t.logger.Error("list users", zap.Error(err))
		return nil, query.Page[UserSummary]{}, fmt.Errorf("list users: %w", err)
	}
	return nil, query.MapPage(page, summarize), nil
}

func summarize(e moderation.UserEntry) UserSummary {
	s := UserSummary{
		ID:        e.User.ID,
		StudentID: e.User.StudentID,
		Name:      e.User.FullName(),
		LearnerID: e.User.LearnerID,
		TeacherID: e.User.TeacherID,
		Status:    e.Status.Kind.FilterKey(),
	}
	if !e.Status.Until.IsZero() {
		s.Until = e.Status.Until.UTC().Format(time.RFC3339)
	}
	s.Indefinite = e.Status.Indefinite
	return s
}

func parseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func orAll(s string) string {
	if s == "" {
		return query.All
	}
	return s
}

func newServer(tools *ModerationTools) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "adminserve",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_reports",
		Description: "List moderation reports, newest first, ten per page",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free text matched against ids, reason, type and status",
				},
				"reason": map[string]interface{}{
					"type":        "string",
					"enum":        append([]string{query.All}, models.Reasons...),
					"description": "Report reason (optional, defaults to all)",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{query.All, "pending", "approved", "rejected"},
					"description": "Report status (optional, defaults to all)",
				},
				"start": map[string]interface{}{
					"type":        "string",
					"format":      "date",
					"description": "First report day, inclusive",
				},
				"end": map[string]interface{}{
					"type":        "string",
					"format":      "date",
					"description": "Last report day, inclusive",
				},
				"page": map[string]interface{}{
					"type":        "integer",
					"minimum":     1,
					"description": "Page number (optional, defaults to 1)",
				},
			},
		},
	}, tools.ListReports)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_report",
		Description: "Fetch one moderation report with its evidence",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "integer",
					"description": "Report ID",
				},
			},
			"required": []string{"id"},
		},
	}, tools.GetReport)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_users",
		Description: "List platform users with their current ban status, ten per page",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free text matched against name, ids and phone number",
				},
				"role": map[string]interface{}{
					"type": "string",
					"enum": []string{query.All, query.RoleLearner, query.RoleTeacher, query.RoleAdmin},
				},
				"status": map[string]interface{}{
					"type": "string",
					"enum": []string{query.All, "active", "banned_learner", "banned_teacher", "banned_both"},
				},
				"page": map[string]interface{}{
					"type":    "integer",
					"minimum": 1,
				},
			},
		},
	}, tools.ListUsers)

	return server
}

func main() {
	// Initialize logger for MCP server - use stderr to avoid stdio conflicts
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}

	// Use same encoder config as observability package for consistency
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.LevelKey = "level"
	zcfg.EncoderConfig.NameKey = "logger"
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.MessageKey = "msg"
	zcfg.EncoderConfig.StacktraceKey = "stacktrace"

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("adminserve-mcp").With(zap.String("service", "adminserve-mcp"))

	cfg := config.Load()
	if cfg.BackendURL == "" {
		logger.Fatal("API_BASE_URL or API_URL environment variable is required")
	}
	if cfg.APIToken == "" {
		logger.Fatal("API_TOKEN environment variable is required")
	}

	metrics := observability.NewNoOpRegistry()
	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, logger, metrics)
	svc := moderation.NewService(client, moderation.Options{
		SnapshotTTL: cfg.SnapshotTTL,
		Logger:      logger,
		Metrics:     metrics,
	})

	server := newServer(&ModerationTools{svc: svc, token: cfg.APIToken, loc: cfg.Location(), logger: logger})

	var logBuffer bytes.Buffer
	loggingTransport := &mcp.LoggingTransport{
		Transport: &mcp.StdioTransport{},
		Writer:    &logBuffer,
	}

	logger.Info("MCP server running via stdio", zap.String("backend", cfg.BackendURL))
	if err := server.Run(context.Background(), loggingTransport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}
