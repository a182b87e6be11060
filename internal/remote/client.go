// Package remote implements the HTTP client for the task service:
// task CRUD, authentication, and profile management. It decodes the
// service's JSON wire format into pkg/models types and maps failures
// onto RemoteError and TransportError. The client performs no retries;
// retry policy, if any, belongs to the caller.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tasknest/taskdeck/pkg/models"
)

// TokenSource supplies the current bearer credential. An empty token means
// the user is logged out; authorized calls fail locally in that case.
type TokenSource interface {
	Token() string
}

// Client defines the operations the task service exposes.
type Client interface {
	ListTasks(ctx context.Context) ([]models.Task, error)
	CreateTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error)
	UpdateTask(ctx context.Context, id int64, draft models.TaskDraft) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error

	Login(ctx context.Context, username, password string) (string, error)
	Register(ctx context.Context, input models.RegisterInput) (*models.UserProfile, error)
	Profile(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, fields map[string]any) (*models.UserProfile, error)
	UpdatePassword(ctx context.Context, oldPassword, newPassword string) error
}

// httpClient implements Client over net/http.
type httpClient struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewClient creates a Client for the service at baseURL. The timeout is
// applied to every request; zero means no timeout.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource) Client {
	return &httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
	}
}

// ListTasks fetches the full current collection for the authenticated user.
// The service does not paginate; the whole set is loaded each time.
func (c *httpClient) ListTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.doAuthorized(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// CreateTask creates a task from the draft. Empty status and priority are
// filled with the service defaults before encoding.
func (c *httpClient) CreateTask(ctx context.Context, draft models.TaskDraft) (*models.Task, error) {
	var task models.Task
	if err := c.doAuthorized(ctx, http.MethodPost, "/tasks", draft.WithDefaults(), &task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return &task, nil
}

// UpdateTask replaces all mutable fields of the task with the draft.
// Callers carry forward fields they do not intend to change.
func (c *httpClient) UpdateTask(ctx context.Context, id int64, draft models.TaskDraft) (*models.Task, error) {
	var task models.Task
	path := fmt.Sprintf("/tasks/update/%d", id)
	if err := c.doAuthorized(ctx, http.MethodPut, path, draft.WithDefaults(), &task); err != nil {
		return nil, fmt.Errorf("updating task %d: %w", id, err)
	}
	return &task, nil
}

// DeleteTask removes the task with the given id.
func (c *httpClient) DeleteTask(ctx context.Context, id int64) error {
	if err := c.doAuthorized(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil); err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}
	return nil
}

// Login exchanges credentials for a bearer token. The service expects a
// form-encoded body, unlike the JSON used everywhere else.
func (c *httpClient) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("logging in: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.send(req, &token); err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}
	return token.AccessToken, nil
}

// Register creates a new account. It does not log the user in; callers
// hand control to the login flow on success.
func (c *httpClient) Register(ctx context.Context, input models.RegisterInput) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodPost, "/register", input, &profile, ""); err != nil {
		return nil, fmt.Errorf("registering: %w", err)
	}
	return &profile, nil
}

// Profile fetches the authenticated user's account summary.
func (c *httpClient) Profile(ctx context.Context) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.doAuthorized(ctx, http.MethodGet, "/profile", nil, &profile); err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfile applies a partial update of profile fields.
func (c *httpClient) UpdateProfile(ctx context.Context, fields map[string]any) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.doAuthorized(ctx, http.MethodPut, "/profile", fields, &profile); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return &profile, nil
}

// UpdatePassword changes the account password.
func (c *httpClient) UpdatePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{
		"old_password": oldPassword,
		"new_password": newPassword,
	}
	if err := c.doAuthorized(ctx, http.MethodPut, "/update-password", body, nil); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	return nil
}

// doAuthorized performs a JSON request carrying the bearer credential.
// A missing credential fails immediately with a 401 RemoteError, without
// touching the network.
func (c *httpClient) doAuthorized(ctx context.Context, method, path string, body, out any) error {
	token := ""
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if token == "" {
		return &RemoteError{Status: http.StatusUnauthorized, Message: "not logged in"}
	}
	return c.do(ctx, method, path, body, out, token)
}

// do performs a JSON request, optionally with a bearer token.
func (c *httpClient) do(ctx context.Context, method, path string, body, out any, token string) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.send(req, out)
}

// send executes the request and decodes the response into out.
func (c *httpClient) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{
			Status:  resp.StatusCode,
			Message: decodeDetail(resp.Body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// decodeDetail extracts the service's {"detail": ...} error text, if any.
func decodeDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return strings.TrimSpace(string(data))
}
