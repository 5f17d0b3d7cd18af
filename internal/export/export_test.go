package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kututorium/adminserve/internal/bans"
	"github.com/kututorium/adminserve/internal/models"
	"github.com/kututorium/adminserve/internal/query"
)

func TestField(t *testing.T) {
	assert.Equal(t, "plain", Field("plain"))
	assert.Equal(t, " leading space", Field(" leading space"))
	assert.Equal(t, `"a,b"`, Field("a,b"))
	assert.Equal(t, `"say ""hi"""`, Field(`say "hi"`))
	assert.Equal(t, "\"line\nbreak\"", Field("line\nbreak"))
	assert.Equal(t, "\"cr\rhere\"", Field("cr\rhere"))
	assert.Equal(t, "", Field(""))
}

func TestWriteReports(t *testing.T) {
	var buf bytes.Buffer
	reports := []models.Report{
		{ID: 2, ReportingUserID: 10, ReportedUserID: 11, ClassSessionID: 5, Type: "class", Reason: "absent", Status: "pending", ReportDate: "2024-01-02T10:00:00Z"},
		{ID: 1, Type: "chat, dm", Reason: "harassment", Status: "approved"},
	}
	require.NoError(t, WriteReports(&buf, reports))

	want := strings.Join([]string{
		"id,report_user_id,reported_user_id,class_session_id,report_type,report_reason,report_status,report_date",
		"2,10,11,5,class,absent,pending,2024-01-02T10:00:00Z",
		`1,0,0,0,"chat, dm",harassment,approved,`,
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestWriteReportsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReports(&buf, nil))
	assert.Equal(t, strings.Join(ReportColumns, ","), buf.String())
}

func TestWriteUsers(t *testing.T) {
	learner := int64(50)
	phone := "081"
	rows := []query.UserRow{
		{
			User:   models.User{ID: 5, FirstName: "Mali", LastName: `"Mo" Srisuk`, StudentID: "6500005", LearnerID: &learner, LearnerFlagCount: 2, BanCount: 1, Balance: 12.5, PhoneNumber: &phone},
			Status: bans.Status{Kind: bans.Learner, Until: time.Now()},
		},
		{User: models.User{ID: 6, FirstName: "A", LastName: "B"}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteUsers(&buf, rows))

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(UserColumns, ","), lines[0])
	assert.Equal(t, `5,50,,,"Mali ""Mo"" Srisuk",2,0,1,Learner,6500005,081,,12.5`, lines[1])
	assert.Equal(t, "6,,,,A B,0,0,0,Active,,,,0", lines[2])
}

func TestFilenames(t *testing.T) {
	at := time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "reports_2024-03-09.csv", ReportsFilename(at))
	assert.Equal(t, "users_2024-03-09.csv", UsersFilename(at))
}
