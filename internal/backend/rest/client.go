// Package rest implements the service.Service interface against the taskdesk REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskdesk/internal/config"
	"taskdesk/internal/service"
)

const (
	// APIPrefix is the path under which the task resource lives.
	APIPrefix = "/api"

	// APITimeout is the timeout for API calls.
	APITimeout = 5 * time.Second

	// maxErrorBody bounds how much of an error response is read.
	maxErrorBody = 64 << 10
)

// Client implements service.Service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// New creates a client from config.
// When a bearer token is configured, requests carry it via an oauth2 transport.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	token, err := cfg.LoadToken()
	if err != nil {
		return nil, err
	}

	httpClient := http.DefaultClient
	if token != nil {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	}

	c := NewWithHTTPClient(cfg.BaseURL, httpClient)
	if cfg.Debug {
		c.logger = log.New(log.Writer(), "taskdesk: ", log.LstdFlags|log.Lmsgprefix)
	}
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     log.New(io.Discard, "", 0),
	}
}

// SetLogger routes request tracing to l.
func (c *Client) SetLogger(l *log.Logger) {
	if l != nil {
		c.logger = l
	}
}

// ListTasks returns every task in server order.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var tasks []service.Task
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// GetTask selects one task from the list. The API has no single-item read
// in its contract, so this costs a full list request.
func (c *Client) GetTask(ctx context.Context, id int64) (service.Task, error) {
	tasks, err := c.ListTasks(ctx)
	if err != nil {
		return service.Task{}, err
	}
	for _, t := range tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return service.Task{}, fmt.Errorf("task %d: %w", id, service.ErrNotFound)
}

// CreateTask creates a task. The request always sends completed=false.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	if err := draft.Validate(); err != nil {
		return service.Task{}, err
	}

	body := createRequest{
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Completed:   false,
	}

	var created service.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", body, &created); err != nil {
		return service.Task{}, err
	}
	if created.ID == 0 {
		return service.Task{}, fmt.Errorf("create task: response carries no id")
	}
	return created, nil
}

// UpdateTask replaces the task stored under task.ID.
func (c *Client) UpdateTask(ctx context.Context, task service.Task) (service.Task, error) {
	if err := task.Validate(); err != nil {
		return service.Task{}, err
	}
	task.Title = strings.TrimSpace(task.Title)

	var updated service.Task
	if err := c.do(ctx, http.MethodPut, taskPath(task.ID), task, &updated); err != nil {
		return service.Task{}, err
	}
	return updated, nil
}

// DeleteTask deletes a task. The acknowledgment body is ignored.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// ToggleTask sets the completed flag only.
func (c *Client) ToggleTask(ctx context.Context, id int64, completed bool) (service.Task, error) {
	var updated service.Task
	err := c.do(ctx, http.MethodPatch, taskPath(id)+"/toggle", toggleRequest{Completed: completed}, &updated)
	if err != nil {
		return service.Task{}, err
	}
	return updated, nil
}

type createRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

type toggleRequest struct {
	Completed bool `json:"completed"`
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

// do performs one request. A non-2xx status becomes an *APIError; a 2xx body
// that does not decode into out is an error too.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	url := c.baseURL + APIPrefix + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Printf("%s %s failed: %v", method, url, err)
		return wrapError(err)
	}
	defer resp.Body.Close()
	c.logger.Printf("%s %s -> %d (%s)", method, url, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(method, APIPrefix+path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, APIPrefix+path, err)
	}
	return nil
}

// wrapError wraps transport errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "context deadline exceeded") {
		return fmt.Errorf("request timed out")
	}
	return err
}
