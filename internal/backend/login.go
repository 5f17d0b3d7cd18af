package backend

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/kututorium/adminserve/internal/models"
)

// LoginError is a login failure with a message fit to show the person
// signing in.
type LoginError struct {
	Msg string
	Err error
}

func (e *LoginError) Error() string { return e.Msg }
func (e *LoginError) Unwrap() error { return e.Err }

// Admin is a verified admin account.
type Admin struct {
	UserID    int64
	StudentID string
	Token     string
}

// AuthenticateAdmin signs in with the backend and confirms the account holds
// an admin profile. Every failure is a *LoginError.
func (c *Client) AuthenticateAdmin(ctx context.Context, username, password string) (Admin, error) {
	if username == "" || password == "" {
		return Admin{}, &LoginError{Msg: "Username and password are required."}
	}

	creds := map[string]string{"username": username, "password": password}
	data, err := c.do(ctx, "login", http.MethodPost, "/login", "", creds)
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			msg := be.Message()
			if msg == "" {
				msg = "HTTP " + strconv.Itoa(be.Status)
			}
			return Admin{}, &LoginError{Msg: msg, Err: err}
		}
		return Admin{}, &LoginError{Msg: err.Error(), Err: err}
	}
	res, err := models.DecodeLoginResult(data)
	if err != nil || res.Token == "" || res.StudentID == "" {
		return Admin{}, &LoginError{Msg: "Invalid login response: missing token or student_id.", Err: err}
	}

	users, err := c.ListUsers(ctx, res.Token)
	if err != nil {
		return Admin{}, &LoginError{Msg: "Fetch users failed: " + reason(err), Err: err}
	}
	me, ok := models.FindByStudentID(users, res.StudentID)
	if !ok || me.ID == 0 {
		return Admin{}, &LoginError{Msg: "Cannot resolve user id from /users."}
	}

	admins, err := c.ListAdminUserIDs(ctx, res.Token)
	if err != nil {
		return Admin{}, &LoginError{Msg: "Admin check failed: " + reason(err), Err: err}
	}
	if !slices.Contains(admins, me.ID) {
		return Admin{}, &LoginError{Msg: "This account is not an admin."}
	}

	return Admin{UserID: me.ID, StudentID: res.StudentID, Token: res.Token}, nil
}

func reason(err error) string {
	var be *Error
	if errors.As(err, &be) {
		if msg := be.Message(); msg != "" {
			return msg
		}
		return http.StatusText(be.Status)
	}
	return err.Error()
}
