// Package client is the programmatic counterpart of the web UI controller:
// it signs in, keeps the bearer token in a local store, replays it on every
// request and drops it as soon as the server answers 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/remotecollab/api/domain"
)

// ErrUnauthenticated is returned when the server rejects the token. The
// stored token has been cleared by the time the caller sees this.
var ErrUnauthenticated = errors.New("not authenticated")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

const (
	defaultTimeout = 10 * time.Second
	defaultRetries = 3
)

type Client struct {
	base    string
	http    *http.Client
	store   TokenStore
	retries uint64
}

type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRetries sets the number of retries for transport failures.
func WithRetries(n uint64) Option {
	return func(c *Client) { c.retries = n }
}

func New(base string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		base:    base,
		http:    &http.Client{Timeout: defaultTimeout},
		store:   store,
		retries: defaultRetries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Ok     bool              `json:"ok"`
	Err    *string           `json:"error,omitempty"`
	Fields map[string]string `json:"fields,omitempty"`
	Result json.RawMessage   `json:"result,omitempty"`
}

// do sends one API request, retrying transport-level failures with
// exponential backoff. HTTP error statuses are never retried.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, bytes.NewReader(payload))
		if err != nil {
			return backoff.Permanent(err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if tok, err := c.store.Load(); err == nil && tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			// Network failure: retryable.
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusUnauthorized {
			c.store.Clear()
			return backoff.Permanent(ErrUnauthenticated)
		}

		var env envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			msg := http.StatusText(resp.StatusCode)
			if env.Err != nil {
				msg = *env.Err
			}
			return backoff.Permanent(&APIError{Status: resp.StatusCode, Message: msg, Fields: env.Fields})
		}
		if out != nil && env.Result != nil {
			if err := json.Unmarshal(env.Result, out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode result: %w", err))
			}
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.retries), ctx)
	return backoff.Retry(op, policy)
}

type authResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, name, email, password, role string) (*domain.User, error) {
	var res authResult
	err := c.do(ctx, http.MethodPost, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     role,
	}, &res)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(res.Token); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Login authenticates and stores the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var res authResult
	err := c.do(ctx, http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(res.Token); err != nil {
		return nil, err
	}
	return res.User, nil
}

// Logout revokes the token server-side and clears the local copy either way.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.store.Clear()
	if errors.Is(err, ErrUnauthenticated) {
		return nil
	}
	return err
}

func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Projects(ctx context.Context) ([]domain.Project, error) {
	var projects []domain.Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) CreateProject(ctx context.Context, name, description, startDate, endDate, status string, team []int) (*domain.Project, error) {
	var project domain.Project
	err := c.do(ctx, http.MethodPost, "/api/projects", map[string]interface{}{
		"name":        name,
		"description": description,
		"startDate":   startDate,
		"endDate":     endDate,
		"status":      status,
		"team":        team,
	}, &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// Tasks lists tasks; sort may be "latest", "deadline" or empty.
func (c *Client) Tasks(ctx context.Context, sort string) ([]domain.Task, error) {
	path := "/api/tasks"
	if sort != "" {
		path += "?sort=" + sort
	}
	var tasks []domain.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, title, description string, projectID, assigneeID int, status, priority, dueDate string) (*domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", map[string]interface{}{
		"title":       title,
		"description": description,
		"projectId":   projectID,
		"assigneeId":  assigneeID,
		"status":      status,
		"priority":    priority,
		"dueDate":     dueDate,
	}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) Documents(ctx context.Context) ([]domain.Document, error) {
	var docs []domain.Document
	if err := c.do(ctx, http.MethodGet, "/api/documents", nil, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *Client) CreateDocument(ctx context.Context, title, description, docType, url string, projectID int) (*domain.Document, error) {
	var doc domain.Document
	err := c.do(ctx, http.MethodPost, "/api/documents", map[string]interface{}{
		"title":       title,
		"description": description,
		"type":        docType,
		"url":         url,
		"projectId":   projectID,
	}, &doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) Activities(ctx context.Context, limit int) ([]domain.Activity, error) {
	path := "/api/activities"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var activities []domain.Activity
	if err := c.do(ctx, http.MethodGet, path, nil, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

// Dashboard holds the landing-page summary counts.
type Dashboard struct {
	Projects  int
	Tasks     int
	Documents int
	Users     int
}

// Counts fetches the per-entity count endpoints for the dashboard.
func (c *Client) Counts(ctx context.Context) (*Dashboard, error) {
	var d Dashboard
	for _, entry := range []struct {
		path string
		dst  *int
	}{
		{"/api/projects/count", &d.Projects},
		{"/api/tasks/count", &d.Tasks},
		{"/api/documents/count", &d.Documents},
		{"/api/users/count", &d.Users},
	} {
		var res struct {
			Count int `json:"count"`
		}
		if err := c.do(ctx, http.MethodGet, entry.path, nil, &res); err != nil {
			return nil, err
		}
		*entry.dst = res.Count
	}
	return &d, nil
}
