package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueVerify(t *testing.T) {
	m := NewManager([]byte("secret"), time.Hour)
	tok, err := m.Issue(Session{UserID: 9, StudentID: "6500001", BackendToken: "bk", Admin: true})
	require.NoError(t, err)

	s, err := m.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, int64(9), s.UserID)
	assert.Equal(t, "6500001", s.StudentID)
	assert.Equal(t, "bk", s.BackendToken)
	assert.True(t, s.Admin)
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.ExpiresAt, 5*time.Second)
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager([]byte("s"), time.Minute)
	issued := time.Now()
	m.now = func() time.Time { return issued }
	tok, err := m.Issue(Session{UserID: 1})
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestVerifyInvalid(t *testing.T) {
	m := NewManager([]byte("s"), time.Minute)
	tok, _ := m.Issue(Session{UserID: 1})

	_, err := m.Verify(tok + "x")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = NewManager([]byte("other"), time.Minute).Verify(tok)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = m.Verify("")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	m := NewManager([]byte("s"), time.Minute)
	c := claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, c).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = m.Verify(none)
	assert.ErrorIs(t, err, ErrInvalid)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString([]byte("s"))
	require.NoError(t, err)
	_, err = m.Verify(hs512)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestVerifyRequiresExpiry(t *testing.T) {
	m := NewManager([]byte("s"), time.Minute)
	c := claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "1"}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("s"))
	require.NoError(t, err)
	_, err = m.Verify(tok)
	assert.ErrorIs(t, err, ErrInvalid)
}
