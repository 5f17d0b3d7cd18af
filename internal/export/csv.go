// Package export renders filtered collections as CSV downloads.
package export

import (
	"bufio"
	"io"
	"strings"
	"time"
)

const fileDateLayout = "2006-01-02"

// ReportsFilename is the download name for a report export made at t.
func ReportsFilename(t time.Time) string {
	return "reports_" + t.Format(fileDateLayout) + ".csv"
}

// UsersFilename is the download name for a user export made at t.
func UsersFilename(t time.Time) string {
	return "users_" + t.Format(fileDateLayout) + ".csv"
}

// table writes comma separated rows joined by "\n", with no trailing
// newline. A field is quoted only when it contains a comma, a double quote,
// CR or LF.
type table struct {
	w    *bufio.Writer
	rows int
}

func newTable(w io.Writer) *table {
	return &table{w: bufio.NewWriter(w)}
}

func (t *table) row(fields ...string) {
	if t.rows > 0 {
		_ = t.w.WriteByte('\n')
	}
	t.rows++
	for i, f := range fields {
		if i > 0 {
			_ = t.w.WriteByte(',')
		}
		_, _ = t.w.WriteString(Field(f))
	}
}

func (t *table) flush() error {
	return t.w.Flush()
}

// Field quotes s for a CSV cell when it needs it.
func Field(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
