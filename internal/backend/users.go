package backend

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/kututorium/adminserve/internal/models"
)

// ListUsers fetches every platform account.
func (c *Client) ListUsers(ctx context.Context, token string) ([]models.User, error) {
	data, err := c.do(ctx, "list_users", http.MethodGet, "/users", token, nil)
	if err != nil {
		return nil, err
	}
	return models.DecodeUsers(data)
}

// ListAdminUserIDs returns the user id behind every admin profile.
func (c *Client) ListAdminUserIDs(ctx context.Context, token string) ([]int64, error) {
	data, err := c.do(ctx, "list_admins", http.MethodGet, "/admins", token, nil)
	if err != nil {
		return nil, err
	}
	return models.DecodeAdminUserIDs(data)
}

func banPath(role models.Role) (string, error) {
	switch role {
	case models.RoleLearner:
		return "/ban_learners", nil
	case models.RoleTeacher:
		return "/ban_teachers", nil
	}
	return "", fmt.Errorf("unknown role %q", role)
}

// ListBans fetches the ban history for one role.
func (c *Client) ListBans(ctx context.Context, token string, role models.Role) ([]models.BanRecord, error) {
	path, err := banPath(role)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, "list_"+string(role)+"_bans", http.MethodGet, path, token, nil)
	if err != nil {
		return nil, err
	}
	return models.DecodeBans(data, role)
}

// CreateBan bans a learner or teacher profile over [start, end].
func (c *Client) CreateBan(ctx context.Context, token string, role models.Role, subjectID int64, start, end time.Time) error {
	path, err := banPath(role)
	if err != nil {
		return err
	}
	payload := map[string]any{
		string(role) + "_id": subjectID,
		"ban_start":          start.UTC().Format(time.RFC3339),
		"ban_end":            end.UTC().Format(time.RFC3339),
	}
	_, err = c.do(ctx, "create_"+string(role)+"_ban", http.MethodPost, path, token, payload)
	return err
}

// DeleteBan removes a ban record, lifting the ban.
func (c *Client) DeleteBan(ctx context.Context, token string, role models.Role, recordID int64) error {
	path, err := banPath(role)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, "delete_"+string(role)+"_ban", http.MethodDelete, path+"/"+strconv.FormatInt(recordID, 10), token, nil)
	return err
}
