package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlatform struct {
	loginStatus int
	loginBody   string
	admins      string
}

func (f fakePlatform) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "admin", creds["username"])
		if f.loginStatus != 0 {
			w.WriteHeader(f.loginStatus)
		}
		_, _ = w.Write([]byte(f.loginBody))
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer backend-token", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"ID":3,"student_id":"6500003"},{"ID":9,"student_id":"6500009"}]`))
	})
	mux.HandleFunc("/admins", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(f.admins))
	})
	return mux
}

const okLogin = `{"token":"backend-token","user":{"student_id":"6500009"}}`

func TestAuthenticateAdmin(t *testing.T) {
	c, _ := newTestClient(t, fakePlatform{loginBody: okLogin, admins: `[{"ID":1,"user_id":9}]`}.handler(t))

	admin, err := c.AuthenticateAdmin(context.Background(), "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, Admin{UserID: 9, StudentID: "6500009", Token: "backend-token"}, admin)
}

func TestAuthenticateAdminFailures(t *testing.T) {
	tests := []struct {
		name     string
		platform fakePlatform
		user     string
		pass     string
		want     string
	}{
		{"missing password", fakePlatform{}, "admin", "", "Username and password are required."},
		{"backend message", fakePlatform{loginStatus: 401, loginBody: `{"message":"Invalid credentials"}`}, "admin", "pw", "Invalid credentials"},
		{"backend error field", fakePlatform{loginStatus: 400, loginBody: `{"error":"locked"}`}, "admin", "pw", "locked"},
		{"bare status", fakePlatform{loginStatus: 500, loginBody: `{}`}, "admin", "pw", "HTTP 500"},
		{"missing token", fakePlatform{loginBody: `{"user":{"student_id":"1"}}`}, "admin", "pw", "Invalid login response: missing token or student_id."},
		{"unknown student", fakePlatform{loginBody: `{"token":"backend-token","user":{"student_id":"42"}}`}, "admin", "pw", "Cannot resolve user id from /users."},
		{"not admin", fakePlatform{loginBody: okLogin, admins: `[{"user_id":3}]`}, "admin", "pw", "This account is not an admin."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.platform.handler(t))
			_, err := c.AuthenticateAdmin(context.Background(), tt.user, tt.pass)
			var le *LoginError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.want, le.Msg)
		})
	}
}
