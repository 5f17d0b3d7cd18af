package backend

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kututorium/adminserve/internal/models"
)

// ListReports fetches every report.
func (c *Client) ListReports(ctx context.Context, token string) ([]models.Report, error) {
	data, err := c.do(ctx, "list_reports", http.MethodGet, "/reports", token, nil)
	if err != nil {
		return nil, err
	}
	return models.DecodeReports(data)
}

// GetReport fetches one report. Some backend versions lack the single-report
// route, so any failure falls back to searching the full listing.
func (c *Client) GetReport(ctx context.Context, token string, id int64) (models.Report, error) {
	data, err := c.do(ctx, "get_report", http.MethodGet, "/reports/"+strconv.FormatInt(id, 10), token, nil)
	if err == nil {
		r, derr := models.DecodeReport(data)
		if derr == nil && r.ID == id {
			return r, nil
		}
		err = derr
	}
	c.logger.Debug("single report fetch failed, searching listing", zap.Int64("report_id", id), zap.Error(err))

	all, lerr := c.ListReports(ctx, token)
	if lerr != nil {
		return models.Report{}, lerr
	}
	for _, r := range all {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Report{}, fmt.Errorf("report %d: %w", id, ErrNotFound)
}

// UpdateReport replaces report id with u and returns the stored report. When
// the backend answers without a body the update itself is echoed back.
func (c *Client) UpdateReport(ctx context.Context, token string, id int64, u models.ReportUpdate) (models.Report, error) {
	data, err := c.do(ctx, "update_report", http.MethodPut, "/reports/"+strconv.FormatInt(id, 10), token, u)
	if err != nil {
		return models.Report{}, err
	}
	if r, err := models.DecodeReport(data); err == nil && r.ID != 0 {
		return r, nil
	}
	return models.Report{
		ID:              id,
		ClassSessionID:  u.ClassSessionID,
		ReportDate:      u.ReportDate,
		Reason:          u.Reason,
		Status:          u.Status,
		Type:            u.Type,
		ReportingUserID: u.ReportingUserID,
		ReportedUserID:  u.ReportedUserID,
		Picture:         u.Picture,
		Description:     u.Description,
		ResultNote:      &u.Result,
	}, nil
}
