// Package session issues and verifies the signed token kept in the admin
// session cookie.
package session

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalid = errors.New("invalid session")
	ErrExpired = errors.New("session expired")
)

// CookieName is the cookie carrying the session token.
const CookieName = "token"

// Session is what the dashboard remembers about a signed-in admin. The
// backend token is replayed as the bearer credential on backend calls.
type Session struct {
	UserID       int64
	StudentID    string
	BackendToken string
	Admin        bool
	ExpiresAt    time.Time
}

type claims struct {
	StudentID    string `json:"student_id"`
	BackendToken string `json:"bt"`
	Admin        bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Manager signs sessions with HS256.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewManager creates a Manager. ttl bounds both the token and the cookie.
func NewManager(secret []byte, ttl time.Duration) *Manager {
	return &Manager{secret: secret, ttl: ttl, now: time.Now}
}

// TTL returns the session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue signs a new token for s. ExpiresAt is ignored and set from the TTL.
func (m *Manager) Issue(s Session) (string, error) {
	now := m.now()
	c := claims{
		StudentID:    s.StudentID,
		BackendToken: s.BackendToken,
		Admin:        s.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of token and returns its session.
func (m *Manager) Verify(token string) (Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, ErrExpired
		}
		return Session{}, ErrInvalid
	}
	uid, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Session{}, ErrInvalid
	}
	return Session{
		UserID:       uid,
		StudentID:    c.StudentID,
		BackendToken: c.BackendToken,
		Admin:        c.Admin,
		ExpiresAt:    c.ExpiresAt.Time,
	}, nil
}
