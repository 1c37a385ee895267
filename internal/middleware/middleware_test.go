package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/projectdesk/internal/config"
	"github.com/templui/projectdesk/internal/ctxkeys"
	"github.com/templui/projectdesk/internal/db"
	"github.com/templui/projectdesk/internal/model"
	"github.com/templui/projectdesk/internal/repository"
	"github.com/templui/projectdesk/internal/service"
	"github.com/templui/projectdesk/internal/session"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["message"]
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "authentication required", decodeMessage(t, rec))

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req = req.WithContext(ctxkeys.WithUser(req.Context(), &model.User{ID: "u1"}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

type authFixture struct {
	db       *sqlx.DB
	users    repository.UserRepository
	sessions *session.Manager
	handler  http.Handler
	seen     *model.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	f := &authFixture{
		db:       database,
		users:    repository.NewUserRepository(database),
		sessions: session.NewManager(session.NewSQLStore(database), "test-secret", time.Hour, false),
	}
	auth := service.NewAuthService(f.users, repository.NewProfileRepository(database), f.sessions, nil, time.Hour)

	f.handler = AuthMiddleware(f.sessions, auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.seen = ctxkeys.User(r.Context())
		if f.seen != nil {
			assert.NotNil(t, ctxkeys.Session(r.Context()))
		}
		w.WriteHeader(http.StatusOK)
	}))
	return f
}

func (f *authFixture) login(t *testing.T, user *model.User) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := f.sessions.Start(context.Background(), rec, user.ID, "127.0.0.1", "test")
	require.NoError(t, err)
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func (f *authFixture) setActive(t *testing.T, userID string, active bool) {
	t.Helper()
	_, err := f.db.ExecContext(context.Background(), `UPDATE users SET is_active = $1 WHERE id = $2`, active, userID)
	require.NoError(t, err)
}

func (f *authFixture) serve(cookie *http.Cookie) *httptest.ResponseRecorder {
	f.seen = nil
	req := httptest.NewRequest(http.MethodGet, "/api/auth_status", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func createUser(t *testing.T, users repository.UserRepository) *model.User {
	t.Helper()
	user := &model.User{ID: uuid.New().String(), Email: uuid.New().String() + "@b.com", PasswordHash: "hash", IsActive: true}
	require.NoError(t, users.CreateWithProfile(context.Background(), user, &model.Profile{Name: "Middleware User"}))
	return user
}

func TestAuthMiddleware_ValidSession(t *testing.T) {
	f := newAuthFixture(t)
	user := createUser(t, f.users)

	rec := f.serve(f.login(t, user))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.seen)
	assert.Equal(t, user.ID, f.seen.ID)
	assert.Empty(t, f.seen.PasswordHash)
}

func TestAuthMiddleware_Anonymous(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.serve(nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.seen)
	assert.Empty(t, rec.Result().Cookies())
}

func TestAuthMiddleware_TamperedCookieIsCleared(t *testing.T) {
	f := newAuthFixture(t)

	rec := f.serve(&http.Cookie{Name: session.CookieName, Value: "forged"})

	assert.Nil(t, f.seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, session.CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestAuthMiddleware_InactiveUserIsSignedOut(t *testing.T) {
	f := newAuthFixture(t)
	user := createUser(t, f.users)
	cookie := f.login(t, user)

	f.setActive(t, user.ID, false)

	f.serve(cookie)
	assert.Nil(t, f.seen)

	f.setActive(t, user.ID, true)

	f.serve(cookie)
	assert.Nil(t, f.seen, "the session was ended, not just skipped")
}

func TestAuthMiddleware_RevokedSession(t *testing.T) {
	f := newAuthFixture(t)
	user := createUser(t, f.users)
	cookie := f.login(t, user)

	require.NoError(t, f.sessions.RevokeUser(context.Background(), user.ID, ""))

	f.serve(cookie)
	assert.Nil(t, f.seen)
}

func TestCSRFProtection(t *testing.T) {
	h := CSRFProtection(okHandler)

	tests := []struct {
		name        string
		method      string
		contentType string
		requestedBy string
		want        int
	}{
		{"get passes", http.MethodGet, "", "", http.StatusOK},
		{"json post passes", http.MethodPost, "application/json", "", http.StatusOK},
		{"json with charset passes", http.MethodPut, "application/json; charset=utf-8", "", http.StatusOK},
		{"form post blocked", http.MethodPost, "application/x-www-form-urlencoded", "", http.StatusForbidden},
		{"bare delete blocked", http.MethodDelete, "", "", http.StatusForbidden},
		{"multipart with header passes", http.MethodPost, "multipart/form-data; boundary=x", "fetch", http.StatusOK},
		{"text plain blocked", http.MethodPost, "text/plain", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/projects", strings.NewReader("{}"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.requestedBy != "" {
				req.Header.Set(RequestedWithHeader, tt.requestedBy)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRateLimitAuth(t *testing.T) {
	limiter := NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Close)
	h := RateLimitAuth(limiter)(okHandler)

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, call("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusOK, call("10.0.0.1:1001").Code)

	rec := call("10.0.0.1:1002")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, decodeMessage(t, rec), "too many requests")

	assert.Equal(t, http.StatusOK, call("10.0.0.2:1000").Code, "limits are per client")
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	limiter := NewRateLimiter(1, 20*time.Millisecond)
	t.Cleanup(limiter.Close)

	ok, _ := limiter.Allow("ip")
	assert.True(t, ok)
	ok, wait := limiter.Allow("ip")
	assert.False(t, ok)
	assert.Positive(t, wait)

	time.Sleep(30 * time.Millisecond)
	ok, _ = limiter.Allow("ip")
	assert.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	limiter.cleanup()
	limiter.mu.Lock()
	assert.Empty(t, limiter.requests)
	limiter.mu.Unlock()
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "[::1]:8080"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, "::1", getClientIP(req), "forwarding headers are ignored here")

	req.RemoteAddr = "192.0.2.1"
	assert.Equal(t, "192.0.2.1", getClientIP(req))
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))

	prod := Chain(okHandler, Config(&config.Config{AppEnv: "production", SessionSecret: "s"}), SecurityHeaders)
	rec = httptest.NewRecorder()
	prod.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestConfig_StoresSanitizedCopy(t *testing.T) {
	var seen *config.Config
	h := Config(&config.Config{AppName: "ProjectDesk", SessionSecret: "secret"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ctxkeys.Config(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	assert.Equal(t, "ProjectDesk", seen.AppName)
	assert.Empty(t, seen.SessionSecret)
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := RequestLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/projects", nil))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "/api/projects", line["path"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Empty(t, buf.String())
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(okHandler, mw("first"), mw("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, []string{"first", "second"}, order)
}
