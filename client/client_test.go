package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remotecollab/api/client"
	"github.com/remotecollab/api/domain"
	"github.com/remotecollab/api/handler"
	"github.com/remotecollab/api/handler/auth"
	"github.com/remotecollab/api/repository/memory"
	"github.com/remotecollab/api/token"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	tokens := token.NewService("test-secret", time.Hour)
	cache := memory.NewAuthCache()

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	authHandler := auth.NewAuthHandler(api, store.Users(), store.Activities(), tokens, cache, "/auth")
	handler.NewUserHandler(api, authHandler.Middleware, store.Users(), "/users")
	handler.NewProjectHandler(api, authHandler.Middleware, store.Projects(), store.Users(), store.Activities(), "/projects")
	handler.NewTaskHandler(api, authHandler.Middleware, store.Tasks(), store.Projects(), store.Users(), store.Activities(), "/tasks")
	handler.NewDocumentHandler(api, authHandler.Middleware, store.Documents(), store.Projects(), store.Activities(), "/documents")
	handler.NewActivityHandler(api, authHandler.Middleware, store.Activities(), "/activities")

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientSessionFlow(t *testing.T) {
	srv := newServer(t)
	store := client.NewMemoryTokenStore()
	c := client.New(srv.URL, store)
	ctx := context.Background()

	user, err := c.Register(ctx, "Ada", "ada@x.com", "secret", "developer")
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", user.Email)

	tok, err := store.Load()
	require.NoError(t, err)
	assert.NotEmpty(t, tok, "register persists the token")

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.ID, me.ID)

	require.NoError(t, c.Logout(ctx))
	tok, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok, "logout clears the stored token")

	_, err = c.Me(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthenticated)

	// Logging back in restores the session.
	_, err = c.Login(ctx, "ada@x.com", "secret")
	require.NoError(t, err)
	_, err = c.Me(ctx)
	assert.NoError(t, err)
}

func TestClientLoginFailure(t *testing.T) {
	srv := newServer(t)
	c := client.New(srv.URL, client.NewMemoryTokenStore())
	ctx := context.Background()

	_, err := c.Register(ctx, "Ada", "ada@x.com", "secret", "developer")
	require.NoError(t, err)

	_, err = c.Login(ctx, "ada@x.com", "wrong-password")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid credentials", apiErr.Message)
}

func TestClientValidationFields(t *testing.T) {
	srv := newServer(t)
	c := client.New(srv.URL, client.NewMemoryTokenStore())
	ctx := context.Background()

	_, err := c.Register(ctx, "Ada", "ada@x.com", "secret", "developer")
	require.NoError(t, err)

	_, err = c.CreateProject(ctx, "Backwards", "", "2026-12-31", "2026-08-01", "", nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Fields, "endDate")
}

func TestClientRevokedTokenClearsStore(t *testing.T) {
	srv := newServer(t)
	store := client.NewMemoryTokenStore()
	c := client.New(srv.URL, store)
	ctx := context.Background()

	_, err := c.Register(ctx, "Ada", "ada@x.com", "secret", "developer")
	require.NoError(t, err)

	// A second client sharing the store logs the session out.
	other := client.New(srv.URL, store)
	require.NoError(t, other.Logout(ctx))

	_, err = c.Projects(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthenticated)
	tok, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestClientRetriesTransportFailures(t *testing.T) {
	backendSrv := newServer(t)
	backendURL := backendSrv.URL

	// Drop the first two connections mid-flight, then proxy normally.
	var calls int32
	flaky := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		proxy, err := http.NewRequest(r.Method, backendURL+r.URL.RequestURI(), r.Body)
		require.NoError(t, err)
		proxy.Header = r.Header.Clone()
		resp, err := http.DefaultTransport.RoundTrip(proxy)
		require.NoError(t, err)
		defer resp.Body.Close()
		w.WriteHeader(resp.StatusCode)
		buf := make([]byte, 32*1024)
		for {
			n, rerr := resp.Body.Read(buf)
			if n > 0 {
				w.Write(buf[:n])
			}
			if rerr != nil {
				break
			}
		}
	}))
	defer flaky.Close()

	c := client.New(flaky.URL, client.NewMemoryTokenStore(), client.WithRetries(3))
	_, err := c.Register(context.Background(), "Ada", "ada@x.com", "secret", "developer")
	require.NoError(t, err, "transport failures are retried")
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestClientNoRetryOnHTTPErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"ok":false,"error":"Internal Server Error"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.NewMemoryTokenStore(), client.WithRetries(5))
	_, err := c.Users(context.Background())
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "server errors are not retried")
}

func TestClientDashboard(t *testing.T) {
	srv := newServer(t)
	c := client.New(srv.URL, client.NewMemoryTokenStore())
	ctx := context.Background()

	me, err := c.Register(ctx, "Ada", "ada@x.com", "secret", "project-manager")
	require.NoError(t, err)

	p, err := c.CreateProject(ctx, "Launch", "the big one", "2026-08-01", "2026-12-31", "", nil)
	require.NoError(t, err)
	_, err = c.CreateTask(ctx, "Ship it", "", p.ID, me.ID, "", "", "2026-09-01")
	require.NoError(t, err)
	_, err = c.CreateDocument(ctx, "Runbook", "", "markdown", "https://docs.example.com/runbook", p.ID)
	require.NoError(t, err)

	d, err := c.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, &client.Dashboard{Projects: 1, Tasks: 1, Documents: 1, Users: 1}, d)

	tasks, err := c.Tasks(ctx, "deadline")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Ship it", tasks[0].Title)
	assert.Equal(t, "Launch", tasks[0].ProjectName)

	feed, err := c.Activities(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, feed)
	assert.Equal(t, domain.ActivityDocumentCreated, feed[0].Type)
}

func TestFileTokenStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := client.NewFileTokenStore(path)

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok, "missing file reads as no token")

	require.NoError(t, store.Save("abc123"))
	tok, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)

	require.NoError(t, store.Clear())
	tok, err = store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, store.Clear(), "clearing twice is fine")
}
