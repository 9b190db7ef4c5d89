package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterSignsInAndHashesPassword(t *testing.T) {
	h := newHarness(t)

	resp := h.post("/register", url.Values{"username": {"carol"}, "password": {testPassword}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	sid := cookieValue(resp, "sid")
	require.NotEmpty(t, sid)

	page := body(t, h.get("/", &http.Cookie{Name: "sid", Value: sid}, flashOf(resp)))
	assert.Contains(t, page, "carol")
	assert.Contains(t, page, "Welcome, carol!")

	var hash string
	require.NoError(t, h.db.Get(&hash, `SELECT password_hash FROM users WHERE username='carol'`))
	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.NotContains(t, hash, testPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(testPassword)))
	assert.Len(t, h.logs.FilterMessage("auth.register").All(), 1)
}

func TestRegisterRejectsDuplicateAndWeakPassword(t *testing.T) {
	h := newHarness(t)
	h.user("dave", false)

	resp := h.post("/register", url.Values{"username": {"DAVE"}, "password": {testPassword}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body(t, resp), "That username is taken.")

	resp = h.post("/register", url.Values{"username": {"erin"}, "password": {"password"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Password does not meet the requirements.")
}

func TestLoginFailureIsLoggedWithoutPassword(t *testing.T) {
	h := newHarness(t)
	h.user("frank", false)

	resp := h.post("/login", url.Values{"username": {"frank"}, "password": {"Wrong-pass1"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Invalid username or password")
	assert.Empty(t, cookieValue(resp, "sid"))

	fails := h.logs.FilterMessage("auth.login.fail").All()
	require.Len(t, fails, 1)
	assert.Equal(t, zapcore.WarnLevel, fails[0].Level)
	fields := fails[0].ContextMap()["fields"].(map[string]any)
	assert.Equal(t, "frank", fields["username"])
	for _, e := range h.logs.All() {
		for _, v := range e.ContextMap() {
			assert.NotContains(t, toString(v), "Wrong-pass1")
		}
	}

	// unknown users get the same answer
	resp = h.post("/login", url.Values{"username": {"nobody"}, "password": {testPassword}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginIssuesFreshSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.deps.Auth.Register(t.Context(), "gina", testPassword, false)
	require.NoError(t, err)

	resp := h.post("/login",
		url.Values{"username": {"gina"}, "password": {testPassword}},
		&http.Cookie{Name: "sid", Value: "planted-session"})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	sid := cookieValue(resp, "sid")
	assert.NotEmpty(t, sid)
	assert.NotEqual(t, "planted-session", sid)

	// the planted id never became a session
	resp = h.get("/cart", &http.Cookie{Name: "sid", Value: "planted-session"})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestLogoutEndsSession(t *testing.T) {
	h := newHarness(t)
	sid := h.user("hank", false)

	require.Equal(t, http.StatusOK, h.get("/cart", sid).StatusCode)

	resp := h.post("/logout", nil, sid)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Empty(t, cookieValue(resp, "sid"))
	assert.Len(t, h.logs.FilterMessage("auth.logout").All(), 1)

	resp = h.get("/cart", sid)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	h := newHarness(t)

	req := newFormRequest("/login", url.Values{"username": {"x"}, "password": {"y"}})
	resp := h.do(req)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Security check failed")
	assert.Len(t, h.logs.FilterMessage("csrf.fail").All(), 1)
}
