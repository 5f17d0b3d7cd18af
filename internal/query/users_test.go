package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kututorium/adminserve/internal/bans"
	"github.com/kututorium/adminserve/internal/models"
)

func id(v int64) *int64 { return &v }

func userIDs(rows []UserRow) []int64 {
	out := make([]int64, len(rows))
	for i, r := range rows {
		out[i] = r.User.ID
	}
	return out
}

func sampleRows() []UserRow {
	phone := "0812345678"
	users := []models.User{
		{ID: 5, FirstName: "Mali", LastName: "Srisuk", StudentID: "6500005", LearnerID: id(50)},
		{ID: 2, FirstName: "Niran", LastName: "Chai", StudentID: "6500002", TeacherID: id(20), PhoneNumber: &phone},
		{ID: 9, FirstName: "Ploy", LastName: "Wong", StudentID: "6500009", LearnerID: id(90), TeacherID: id(91)},
		{ID: 1, FirstName: "Admin", LastName: "One", StudentID: "6500001", AdminID: id(1)},
	}
	until := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	learner := bans.Resolution{50: {RecordID: 1, Until: until}, 90: {RecordID: 2, Until: until}}
	teacher := bans.Resolution{91: {RecordID: 3, Until: until}}
	return Rows(users, learner, teacher)
}

func TestFilterUsersRole(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, []int64{5, 9}, userIDs(FilterUsers(rows, UserFilter{Role: "learner"})))
	assert.Equal(t, []int64{2, 9}, userIDs(FilterUsers(rows, UserFilter{Role: "teacher"})))
	assert.Equal(t, []int64{1}, userIDs(FilterUsers(rows, UserFilter{Role: "admin"})))
	assert.Len(t, FilterUsers(rows, UserFilter{Role: All}), 4)
}

func TestFilterUsersStatus(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, []int64{2, 1}, userIDs(FilterUsers(rows, UserFilter{Status: "active"})))
	assert.Equal(t, []int64{5}, userIDs(FilterUsers(rows, UserFilter{Status: "banned_learner"})))
	assert.Empty(t, FilterUsers(rows, UserFilter{Status: "banned_teacher"}))
	assert.Equal(t, []int64{9}, userIDs(FilterUsers(rows, UserFilter{Status: "banned_both"})))
}

func TestFilterUsersQuery(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, []int64{5}, userIDs(FilterUsers(rows, UserFilter{Query: "mali sri"})))
	assert.Equal(t, []int64{2}, userIDs(FilterUsers(rows, UserFilter{Query: "0812"})))
	assert.Equal(t, []int64{9}, userIDs(FilterUsers(rows, UserFilter{Query: "91"})))
	assert.Equal(t, []int64{9}, userIDs(FilterUsers(rows, UserFilter{Query: " 6500009 "})))
}

func TestFilterUsersIdempotent(t *testing.T) {
	rows := sampleRows()
	for _, f := range []UserFilter{{}, {Role: "learner"}, {Status: "active", Query: "n"}} {
		once := FilterUsers(rows, f)
		assert.Equal(t, once, FilterUsers(once, f))
	}
}

func TestSortUsers(t *testing.T) {
	assert.Equal(t, []int64{1, 2, 5, 9}, userIDs(SortUsers(sampleRows())))
}
