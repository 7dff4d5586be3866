package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bookmark-notes/backend/internal/db"
	"github.com/bookmark-notes/backend/internal/logging"
	"github.com/bookmark-notes/backend/internal/model"
	"github.com/bookmark-notes/backend/internal/password"
	"github.com/bookmark-notes/backend/internal/service"
	"github.com/bookmark-notes/backend/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAccessSecret  = "access-secret"
	testRefreshSecret = "refresh-secret"
)

func newIssuer(t *testing.T, now func() time.Time) *token.Issuer {
	t.Helper()
	issuer, err := token.NewIssuer(token.Config{
		AccessSecret:  testAccessSecret,
		RefreshSecret: testRefreshSecret,
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    24 * time.Hour,
		Now:           now,
	})
	require.NoError(t, err)
	return issuer
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := db.NewMemory()
	issuer := newIssuer(t, nil)
	hasher := password.NewHasher(password.Params{Memory: 64, Iterations: 1, Parallelism: 1})
	auth, err := service.NewAuthService(store, hasher, issuer, service.AuthOptions{
		SerializeSessions: true,
		Logger:            logging.Discard(),
	})
	require.NoError(t, err)

	return NewRouter(RouterDeps{
		Auth:      auth,
		Users:     service.NewUserService(store),
		Bookmarks: service.NewBookmarkService(store),
		Notes:     service.NewNoteService(store),
		Tokens:    issuer,
		Logger:    logging.Discard(),
	})
}

func do(t *testing.T, r http.Handler, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func signup(t *testing.T, r http.Handler, email string) model.TokensResponse {
	t.Helper()
	w := do(t, r, http.MethodPost, "/auth/signup", model.AuthRequest{Email: email, Password: "secret"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.TokensResponse](t, w)
}

func TestSessionLifecycle(t *testing.T) {
	r := newTestRouter(t)

	created := signup(t, r, "a@b.com")
	assert.NotEmpty(t, created.AccessToken)
	assert.NotEmpty(t, created.RefreshToken)

	w := do(t, r, http.MethodPost, "/auth/signin", model.AuthRequest{Email: "a@b.com", Password: "secret"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	session := decode[model.TokensResponse](t, w)

	w = do(t, r, http.MethodPost, "/auth/logout", nil, session.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Body.String())

	w = do(t, r, http.MethodPost, "/auth/logout", nil, session.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code, "logout is idempotent")

	w = do(t, r, http.MethodPost, "/auth/refresh", nil, session.RefreshToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "access denied", decode[model.ErrorResponse](t, w).Error)
}

func TestRefreshRotatesOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	first := signup(t, r, "a@b.com")

	w := do(t, r, http.MethodPost, "/auth/refresh", nil, first.RefreshToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode[model.TokensResponse](t, w)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	w = do(t, r, http.MethodPost, "/auth/refresh", nil, first.RefreshToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/users/me", nil, second.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSigninInvalidatesEarlierRefreshToken(t *testing.T) {
	r := newTestRouter(t)
	first := signup(t, r, "a@b.com")

	w := do(t, r, http.MethodPost, "/auth/signin", model.AuthRequest{Email: "a@b.com", Password: "secret"}, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/auth/refresh", nil, first.RefreshToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCredentialErrors(t *testing.T) {
	r := newTestRouter(t)
	signup(t, r, "a@b.com")

	w := do(t, r, http.MethodPost, "/auth/signup", model.AuthRequest{Email: "a@b.com", Password: "other"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	wrongPassword := do(t, r, http.MethodPost, "/auth/signin", model.AuthRequest{Email: "a@b.com", Password: "nope"}, "")
	unknownEmail := do(t, r, http.MethodPost, "/auth/signin", model.AuthRequest{Email: "x@b.com", Password: "secret"}, "")
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
}

func TestGuardRejectsBadTokens(t *testing.T) {
	r := newTestRouter(t)
	session := signup(t, r, "a@b.com")

	stale, err := newIssuer(t, func() time.Time { return time.Now().Add(-time.Hour) }).
		IssuePair(context.Background(), 1, "a@b.com")
	require.NoError(t, err)

	parts := strings.Split(session.AccessToken, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + session.AccessToken},
		{"empty bearer", "Bearer "},
		{"malformed", "Bearer not-a-jwt"},
		{"expired", "Bearer " + stale.AccessToken},
		{"tampered", "Bearer " + tampered},
		{"refresh token on access route", "Bearer " + session.RefreshToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/bookmarks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "unauthorized", decode[model.ErrorResponse](t, w).Error)
		})
	}

	w := do(t, r, http.MethodPost, "/auth/refresh", nil, session.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "access token on refresh route")

	w = do(t, r, http.MethodPost, "/auth/refresh", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuardRejectsTokenForUnknownUser(t *testing.T) {
	r := newTestRouter(t)
	ghost, err := newIssuer(t, nil).IssuePair(context.Background(), 4242, "ghost@b.com")
	require.NoError(t, err)

	w := do(t, r, http.MethodGet, "/users/me", nil, ghost.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMeHidesSecrets(t *testing.T) {
	r := newTestRouter(t)
	session := signup(t, r, "a@b.com")

	w := do(t, r, http.MethodGet, "/users/me", nil, session.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"email":"a@b.com"`)
	assert.NotContains(t, body, "argon2id")
	assert.NotContains(t, strings.ToLower(body), "hash")

	w = do(t, r, http.MethodPatch, "/users", map[string]any{"firstName": "Ada"}, session.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode[model.User](t, w)
	require.NotNil(t, user.FirstName)
	assert.Equal(t, "Ada", *user.FirstName)
}

func TestBookmarkOwnershipOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	alice := signup(t, r, "alice@b.com")
	bob := signup(t, r, "bob@b.com")

	w := do(t, r, http.MethodPost, "/bookmarks", map[string]any{"title": "t", "link": "https://x"}, alice.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	bookmark := decode[model.Bookmark](t, w)
	path := "/bookmarks/" + jsonInt(bookmark.ID)

	w = do(t, r, http.MethodGet, path, nil, bob.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = do(t, r, http.MethodPatch, path, map[string]any{"title": "mine"}, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = do(t, r, http.MethodDelete, path, nil, bob.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, http.MethodGet, "/bookmarks", nil, bob.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = do(t, r, http.MethodPatch, path, map[string]any{"title": "renamed"}, alice.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "renamed", decode[model.Bookmark](t, w).Title)

	w = do(t, r, http.MethodDelete, path, nil, alice.AccessToken)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, r, http.MethodGet, path, nil, alice.AccessToken)
	assert.Equal(t, "null", w.Body.String())
}

func TestNotesOverHTTP(t *testing.T) {
	r := newTestRouter(t)
	session := signup(t, r, "a@b.com")

	w := do(t, r, http.MethodPost, "/notes", map[string]any{
		"title":       "n",
		"relatedDate": "2022-07-20T19:28:44+00:00",
	}, session.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	note := decode[model.Note](t, w)
	require.NotNil(t, note.RelatedDate)

	w = do(t, r, http.MethodPost, "/notes", map[string]any{"title": "n", "relatedDate": "yesterday"}, session.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/notes", nil, session.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Note](t, w), 1)
}

func TestValidation(t *testing.T) {
	r := newTestRouter(t)
	session := signup(t, r, "a@b.com")

	w := do(t, r, http.MethodPost, "/auth/signup", map[string]any{"email": "not-an-email", "password": "x"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[model.ErrorResponse](t, w)
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "email")

	w = do(t, r, http.MethodPost, "/auth/signin", map[string]any{"email": "a@b.com"}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[model.ErrorResponse](t, w).Fields, "password")

	w = do(t, r, http.MethodPost, "/auth/signup", `{"email":"c@d.com","password":"x","admin":true}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "unknown fields are rejected")

	w = do(t, r, http.MethodPost, "/auth/signup", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/bookmarks", map[string]any{"link": "https://x"}, session.AccessToken)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[model.ErrorResponse](t, w).Fields, "title")

	w = do(t, r, http.MethodGet, "/bookmarks/abc", nil, session.AccessToken)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[model.ErrorResponse](t, w).Fields, "id")

	w = do(t, r, http.MethodPatch, "/notes/1", map[string]any{"title": ""}, session.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicRoutes(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/ping", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", decode[model.PingResponse](t, w).Message)

	w = do(t, r, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/openapi.json", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/auth/signup")
	assert.Contains(t, w.Body.String(), `"summary": "Service status"`)

	w = do(t, r, http.MethodGet, "/no-such-route", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRoutePoliciesDefaultToAccess(t *testing.T) {
	policies := DefaultPolicies()
	assert.Equal(t, PolicyPublic, policies.lookup(http.MethodPost, "/auth/signup"))
	assert.Equal(t, PolicyRefresh, policies.lookup(http.MethodPost, "/auth/refresh"))
	assert.Equal(t, PolicyAccess, policies.lookup(http.MethodPost, "/auth/logout"))
	assert.Equal(t, PolicyAccess, policies.lookup(http.MethodGet, "/auth/signup"))
	assert.Equal(t, PolicyAccess, policies.lookup(http.MethodDelete, "/bookmarks/:id"))
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.com", " "}))
	r.GET("/bookmarks", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/bookmarks", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/bookmarks", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecoveryAnswersJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(logging.Discard()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "server error", decode[model.ErrorResponse](t, w).Error)
}

func jsonInt(v int64) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}

type brokenBookmarks struct {
	*db.Memory
}

func (brokenBookmarks) ListBookmarks(context.Context, int64) ([]model.Bookmark, error) {
	return nil, errors.New("connection reset")
}

func TestServerErrorsUseRouterLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var injected, global bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&global, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	store := db.NewMemory()
	issuer := newIssuer(t, nil)
	hasher := password.NewHasher(password.Params{Memory: 64, Iterations: 1, Parallelism: 1})
	auth, err := service.NewAuthService(store, hasher, issuer, service.AuthOptions{Logger: logging.Discard()})
	require.NoError(t, err)

	r := NewRouter(RouterDeps{
		Auth:      auth,
		Users:     service.NewUserService(store),
		Bookmarks: service.NewBookmarkService(brokenBookmarks{store}),
		Notes:     service.NewNoteService(store),
		Tokens:    issuer,
		Logger:    slog.New(slog.NewTextHandler(&injected, nil)),
	})

	session := signup(t, r, "a@b.com")
	w := do(t, r, http.MethodGet, "/bookmarks", nil, session.AccessToken)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "server error", decode[model.ErrorResponse](t, w).Error)

	assert.Contains(t, injected.String(), "request failed")
	assert.Contains(t, injected.String(), "connection reset")
	assert.NotContains(t, global.String(), "request failed")
}
