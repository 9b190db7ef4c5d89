package handlers_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"bazaar/internal/config"
	"bazaar/internal/http/handlers"
	applog "bazaar/internal/log"
	"bazaar/internal/media"
	"bazaar/internal/repos"
)

const testPassword = "Passw0rd!"

// pngHead is enough for content sniffing to report image/png.
var pngHead = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type harness struct {
	t     *testing.T
	app   *fiber.App
	db    *sqlx.DB
	deps  *handlers.Deps
	media *media.Store
	logs  *observer.ObservedLogs
	csrf  string
}

// newHarness builds the full application over an in-memory store seeded
// with the demo catalog. mods adjust the config before wiring.
func newHarness(t *testing.T, mods ...func(*config.Config)) *harness {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(nil) })

	cfg := config.Config{
		DBDSN:      ":memory:",
		MediaDir:   t.TempDir(),
		RateLimit:  1000,
		BcryptCost: bcrypt.MinCost,
	}
	for _, m := range mods {
		m(&cfg)
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = repos.SeedDefault(db)
	require.NoError(t, err)

	store, err := media.NewStore(cfg.MediaDir)
	require.NoError(t, err)

	deps := handlers.NewDeps(db, cfg, nil, store)
	return &harness{
		t:     t,
		app:   handlers.NewApp(cfg, deps),
		db:    db,
		deps:  deps,
		media: store,
		logs:  logs,
	}
}

func (h *harness) do(req *http.Request, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(h.t, err)
	return resp
}

func (h *harness) get(path string, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	return h.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

// token fetches a CSRF token once; the cookie value doubles as the form value.
func (h *harness) token() string {
	h.t.Helper()
	if h.csrf == "" {
		h.csrf = cookieValue(h.get("/login"), "csrf_")
		require.NotEmpty(h.t, h.csrf, "csrf cookie missing")
	}
	return h.csrf
}

func (h *harness) post(path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	if form == nil {
		form = url.Values{}
	}
	form.Set("csrf", h.token())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: h.token()})
	return h.do(req, cookies...)
}

// postMultipart sends fields plus an optional "image" file part.
func (h *harness) postMultipart(path string, fields map[string]string, image []byte, cookies ...*http.Cookie) *http.Response {
	h.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(h.t, w.WriteField("csrf", h.token()))
	for k, v := range fields {
		require.NoError(h.t, w.WriteField(k, v))
	}
	if image != nil {
		part, err := w.CreateFormFile("image", "upload.png")
		require.NoError(h.t, err)
		_, err = part.Write(image)
		require.NoError(h.t, err)
	}
	require.NoError(h.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: h.token()})
	return h.do(req, cookies...)
}

// user registers an account and logs it in through the login form,
// returning the session cookie.
func (h *harness) user(username string, admin bool) *http.Cookie {
	h.t.Helper()
	_, err := h.deps.Auth.Register(context.Background(), username, testPassword, admin)
	require.NoError(h.t, err)

	resp := h.post("/login", url.Values{"username": {username}, "password": {testPassword}})
	require.Equal(h.t, http.StatusFound, resp.StatusCode)
	sid := cookieValue(resp, "sid")
	require.NotEmpty(h.t, sid)
	return &http.Cookie{Name: "sid", Value: sid}
}

func cookieValue(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// flashOf carries the one-shot flash cookie from a redirect to the next page.
func flashOf(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == "flash" {
			return &http.Cookie{Name: c.Name, Value: c.Value}
		}
	}
	return nil
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func newFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (h *harness) userID(username string) string {
	h.t.Helper()
	u, err := repos.NewUserRepo(h.db).ByUsername(context.Background(), username)
	require.NoError(h.t, err)
	return u.ID
}
