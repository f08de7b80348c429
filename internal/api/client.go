// Package api talks to the task tracker REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/sadopc/tasklog/internal/model"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

type Client struct {
	base *url.URL
	http *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. The bearer token is not
// attached to a replaced client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// NewClient builds a client for baseURL. A non-empty token is sent as a
// bearer credential on every request.
func NewClient(ctx context.Context, baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse api url: unsupported scheme %q", u.Scheme)
	}

	hc := &http.Client{Timeout: defaultTimeout}
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		hc = oauth2.NewClient(ctx, src)
		hc.Timeout = defaultTimeout
	}

	c := &Client{base: u, http: hc}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, "list tasks", "/api/tasks", nil, &tasks, &model.NotFoundError{Resource: "tasks endpoint"}); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	if err := c.do(ctx, http.MethodGet, "list projects", "/api/projects", nil, &projects, &model.NotFoundError{Resource: "projects endpoint"}); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) GetTask(ctx context.Context, id model.ID) (model.Task, error) {
	var task model.Task
	p := "/api/tasks/" + url.PathEscape(id.String())
	if err := c.do(ctx, http.MethodGet, "get task", p, nil, &task, &model.NotFoundError{Resource: "task", ID: id.String()}); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (c *Client) ListTaskTimeEntries(ctx context.Context, taskID model.ID) ([]model.TimeEntry, error) {
	var entries []model.TimeEntry
	p := "/api/tasks/" + url.PathEscape(taskID.String()) + "/time-entries"
	if err := c.do(ctx, http.MethodGet, "list task time entries", p, nil, &entries, &model.NotFoundError{Resource: "task", ID: taskID.String()}); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListAllTimeEntries reads the optional cross-task endpoint. Callers decide
// how to degrade when it is missing.
func (c *Client) ListAllTimeEntries(ctx context.Context) ([]model.TimeEntry, error) {
	var entries []model.TimeEntry
	if err := c.do(ctx, http.MethodGet, "list time entries", "/api/tasks/time-entries", nil, &entries, &model.NotFoundError{Resource: "time entries endpoint"}); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateTimeEntry validates e locally and posts it. Invalid entries never
// reach the network.
func (c *Client) CreateTimeEntry(ctx context.Context, taskID model.ID, e model.NewTimeEntry) (model.TimeEntry, error) {
	body, err := e.Wire()
	if err != nil {
		return model.TimeEntry{}, err
	}
	var created model.TimeEntry
	p := "/api/tasks/" + url.PathEscape(taskID.String()) + "/time-entries"
	if err := c.do(ctx, http.MethodPost, "create time entry", p, body, &created, &model.NotFoundError{Resource: "task", ID: taskID.String()}); err != nil {
		return model.TimeEntry{}, err
	}
	if created.TaskID == "" {
		created.TaskID = taskID
	}
	return created, nil
}

func (c *Client) do(ctx context.Context, method, op, path string, in, out any, notFound *model.NotFoundError) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case resp.StatusCode == http.StatusNotFound:
		return notFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &NetworkError{Op: op, Status: resp.StatusCode, Err: errors.New(errorMessage(resp.Body))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage prefers the backend's {"message": ...} body.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Message != "" {
		return payload.Message
	}
	if s := strings.TrimSpace(string(data)); s != "" {
		return s
	}
	return "no response body"
}
