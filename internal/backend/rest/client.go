// Package rest implements the service.Service interface over the task
// REST API. Every request carries the session's bearer token; non-2xx
// responses are decoded from the error envelope into *service.Error.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"todo/internal/service"
)

const (
	// TasksPath is the collection endpoint, relative to the API base URL.
	TasksPath = "/api/v1/tasks"

	// DefaultTimeout is the per-request timeout when none is configured.
	DefaultTimeout = 5 * time.Second

	maxErrorBody = 64 << 10
)

// Client implements service.Service against the REST API.
type Client struct {
	baseURL string
	hc      *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient sets the base HTTP client whose transport the bearer
// transport wraps.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// New creates a client for baseURL that authenticates with tokens from ts.
func New(ctx context.Context, baseURL string, ts oauth2.TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		timeout: DefaultTimeout,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hc != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.hc)
	}
	c.hc = oauth2.NewClient(ctx, ts)
	return c
}

// envelope is the success response body.
type envelope[T any] struct {
	Data T `json:"data"`
}

// errorEnvelope is the failure response body.
type errorEnvelope struct {
	Message string              `json:"message"`
	Code    string              `json:"code"`
	Details map[string][]string `json:"details,omitempty"`
}

type createRequest struct {
	Title string `json:"title"`
}

type deleteResponse struct {
	ID string `json:"id"`
}

// ListTasks implements service.Service.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var env envelope[[]service.Task]
	if err := c.do(ctx, http.MethodGet, TasksPath, nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []service.Task{}, nil
	}
	return env.Data, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, title string) (service.Task, error) {
	var env envelope[service.Task]
	if err := c.do(ctx, http.MethodPost, TasksPath, createRequest{Title: title}, &env); err != nil {
		return service.Task{}, err
	}
	return env.Data, nil
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	var env envelope[service.Task]
	if err := c.do(ctx, http.MethodPatch, taskPath(id), patch, &env); err != nil {
		return service.Task{}, err
	}
	return env.Data, nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	var env envelope[deleteResponse]
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, &env)
}

func taskPath(id string) string {
	return TasksPath + "/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return wrapTransportError(err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return service.NewServerError("invalid response body", err)
	}
	return nil
}

// wrapTransportError classifies errors from http.Client.Do. Token source
// failures surface here wrapped in *url.Error.
func wrapTransportError(err error) error {
	var se *service.Error
	if errors.As(err, &se) {
		return se
	}
	var re *oauth2.RetrieveError
	if errors.As(err, &re) {
		return service.NewAuthError("session expired (run: todo login)", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return service.NewNetworkError(errors.New("request timed out"))
	}
	return service.NewNetworkError(err)
}

// decodeError maps a non-2xx response to a typed error.
func decodeError(resp *http.Response) error {
	var env errorEnvelope
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(data, &env)

	msg := env.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	e := &service.Error{
		Code:    env.Code,
		Message: msg,
		Details: env.Details,
		Status:  resp.StatusCode,
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		e.Kind = service.KindAuth
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusNotFound:
		e.Kind = service.KindNotFound
	case resp.StatusCode == http.StatusBadRequest, resp.StatusCode == http.StatusUnprocessableEntity:
		e.Kind = service.KindValidation
	default:
		e.Kind = service.KindServer
	}
	if e.Code == "" {
		e.Code = defaultCode(e.Kind)
	}
	return e
}

func defaultCode(k service.Kind) string {
	switch k {
	case service.KindAuth:
		return service.CodeUnauthorized
	case service.KindNotFound:
		return service.CodeNotFound
	case service.KindValidation:
		return service.CodeValidation
	default:
		return service.CodeInternal
	}
}

var _ service.Service = (*Client)(nil)
