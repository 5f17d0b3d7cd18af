package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProxyFiltersHeaders(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(http.MethodPost, "/api/proxy/echo/items?page=2", strings.NewReader(`{"x":1}`),
		"X-Custom", "nope", "Content-Type", "text/plain")
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	got := decode[map[string]string](t, rr)
	assert.Equal(t, "/echo/items", got["path"])
	assert.Equal(t, "page=2", got["query"])
	assert.Equal(t, "Bearer backend-token", got["authorization"], "falls back to the session token")
	assert.Equal(t, "application/json", got["accept"])
	assert.Equal(t, "text/plain", got["content_type"])
	assert.Empty(t, got["cookie"])
	assert.Empty(t, got["custom"])
	assert.Equal(t, `{"x":1}`, got["body"])

	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Empty(t, rr.Header().Get("X-Backend-Secret"))
}

func TestProxyKeepsCallerAuthorization(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(http.MethodGet, "/api/proxy/echo/x", strings.NewReader("ignored"), "Authorization", "Bearer mine")
	require.Equal(t, http.StatusAccepted, rr.Code)

	got := decode[map[string]string](t, rr)
	assert.Equal(t, "Bearer mine", got["authorization"])
	assert.Empty(t, got["body"], "GET carries no body")
}

func TestProxyDoesNotFollowRedirects(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(http.MethodGet, "/api/proxy/moved", nil)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Empty(t, rr.Header().Get("Location"))
}
