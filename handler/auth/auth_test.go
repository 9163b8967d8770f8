package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotecollab/api/domain"
	"github.com/remotecollab/api/handler"
	"github.com/remotecollab/api/handler/auth"
	"github.com/remotecollab/api/repository/memory"
	"github.com/remotecollab/api/token"
)

type env struct {
	router *mux.Router
	store  *memory.Store
	tokens *token.Service
	cache  *memory.AuthCache
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	tokens := token.NewService("test-secret", time.Hour)
	cache := memory.NewAuthCache()

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	authHandler := auth.NewAuthHandler(api, store.Users(), store.Activities(), tokens, cache, "/auth")
	handler.NewProjectHandler(api, authHandler.Middleware, store.Projects(), store.Users(), store.Activities(), "/projects")

	return &env{router: r, store: store, tokens: tokens, cache: cache}
}

type result struct {
	Ok     bool              `json:"ok"`
	Err    *string           `json:"error"`
	Fields map[string]string `json:"fields"`
	Result json.RawMessage   `json:"result"`
}

func (e *env) do(t *testing.T, method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, *result) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	var res result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return rec, &res
}

func (e *env) register(t *testing.T, name, email, password, role string) (*domain.User, string) {
	t.Helper()
	rec, res := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password, "role": role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "register: %s", rec.Body.String())
	var out struct {
		User  *domain.User `json:"user"`
		Token string       `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Result, &out))
	return out.User, out.Token
}

func TestRegisterIssuesUsableToken(t *testing.T) {
	e := newEnv(t)

	user, tok := e.register(t, "Ada", "ada@x.com", "secret", "developer")
	assert.Equal(t, "ada@x.com", user.Email)
	assert.NotEmpty(t, tok)

	claims, err := e.tokens.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// The token gates protected routes and an empty project list comes back.
	rec, res := e.do(t, http.MethodGet, "/api/projects", tok, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(res.Result))
}

func TestRegisterNeverReturnsPasswordHash(t *testing.T) {
	e := newEnv(t)

	rec, _ := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@x.com", "password": "secret", "role": "developer",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	e := newEnv(t)
	e.register(t, "Ada", "ada@x.com", "secret", "developer")

	rec, res := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Other Ada", "email": "ada@x.com", "password": "hunter22", "role": "tester",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, res.Ok)

	// No duplicate record was persisted.
	n, err := e.store.Users().Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRegisterValidation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name    string
		payload map[string]string
		field   string
	}{
		{"missing name", map[string]string{"email": "a@x.com", "password": "secret", "role": "developer"}, "name"},
		{"missing email", map[string]string{"name": "A", "password": "secret", "role": "developer"}, "email"},
		{"malformed email", map[string]string{"name": "A", "email": "nope", "password": "secret", "role": "developer"}, "email"},
		{"unknown role", map[string]string{"name": "A", "email": "a@x.com", "password": "secret", "role": "wizard"}, "role"},
		{"short password", map[string]string{"name": "A", "email": "a@x.com", "password": "abc", "role": "developer"}, "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, res := e.do(t, http.MethodPost, "/api/auth/register", "", tc.payload)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, res.Fields, tc.field)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	e := newEnv(t)
	e.register(t, "Ada", "ada@x.com", "secret", "developer")

	rec, res := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@x.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, res.Err)
	assert.Equal(t, "invalid credentials", *res.Err)
	assert.Nil(t, res.Result)
}

func TestLoginUnknownEmailAnswersLikeWrongPassword(t *testing.T) {
	e := newEnv(t)
	e.register(t, "Ada", "ada@x.com", "secret", "developer")

	recWrong, resWrong := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@x.com", "password": "wrong-password",
	})
	recUnknown, resUnknown := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@x.com", "password": "secret",
	})
	assert.Equal(t, recWrong.Code, recUnknown.Code)
	assert.Equal(t, *resWrong.Err, *resUnknown.Err)
}

func TestLoginSuccess(t *testing.T) {
	e := newEnv(t)
	user, _ := e.register(t, "Ada", "ada@x.com", "secret", "developer")

	rec, res := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ada@x.com", "password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		User  *domain.User `json:"user"`
		Token string       `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Result, &out))
	assert.Equal(t, user.ID, out.User.ID)

	claims, err := e.tokens.Verify(out.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestLogoutRevokesToken(t *testing.T) {
	e := newEnv(t)
	_, tok := e.register(t, "Ada", "ada@x.com", "secret", "developer")

	rec, _ := e.do(t, http.MethodPost, "/api/auth/logout", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// A logged-out token cannot be replayed even though it has not expired.
	rec, _ = e.do(t, http.MethodGet, "/api/projects", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = e.do(t, http.MethodGet, "/api/auth/me", tok, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeReturnsCurrentUser(t *testing.T) {
	e := newEnv(t)
	user, tok := e.register(t, "Ada", "ada@x.com", "secret", "developer")

	rec, res := e.do(t, http.MethodGet, "/api/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.User
	require.NoError(t, json.Unmarshal(res.Result, &got))
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Ada", got.Name)
}

func TestRefreshIssuesNewToken(t *testing.T) {
	e := newEnv(t)
	user, tok := e.register(t, "Ada", "ada@x.com", "secret", "developer")

	rec, res := e.do(t, http.MethodPost, "/api/auth/refresh", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		User  *domain.User `json:"user"`
		Token string       `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Result, &out))
	assert.NotEmpty(t, out.Token)

	claims, err := e.tokens.Verify(out.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	oldClaims, err := e.tokens.Verify(tok)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.JTI, claims.JTI)
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	e := newEnv(t)
	e.register(t, "Ada", "ada@x.com", "secret", "developer")

	for _, tc := range []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"malformed", "garbage"},
		{"wrong secret", mustSign(t, "other-secret")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", "Bearer "+tc.header)
			}
			rec := httptest.NewRecorder()
			e.router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestTokenForDeletedUserIsNotFound(t *testing.T) {
	e := newEnv(t)
	user, _ := e.register(t, "Ada", "ada@x.com", "secret", "developer")

	// A token for a user id that no longer resolves.
	raw, _, err := e.tokens.Issue(user.ID + 1000)
	require.NoError(t, err)

	rec, _ := e.do(t, http.MethodGet, "/api/projects", raw, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func mustSign(t *testing.T, secret string) string {
	t.Helper()
	raw, _, err := token.NewService(secret, time.Hour).Issue(1)
	require.NoError(t, err)
	return raw
}
