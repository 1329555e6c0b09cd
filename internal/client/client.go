// Package client is the typed HTTP client for the taskflow API. It
// implements the persistence surface the optimistic store reconciles
// against; timeouts and transport failures surface as errors so the
// store can roll back.
package client

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

	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetToken installs the bearer token used on every subsequent request.
func (c *Client) SetToken(token string) {
	c.token = token
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Login authenticates and remembers the access token.
func (c *Client) Login(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, body, &resp); err != nil {
		return err
	}
	c.token = resp.AccessToken
	return nil
}

func (c *Client) ListTasks(ctx context.Context, filters models.TaskFilters) ([]models.Task, error) {
	query := url.Values{}
	if filters.Status != "" {
		query.Set("status", filters.Status)
	}
	if filters.Priority != "" {
		query.Set("priority", string(filters.Priority))
	}
	if filters.Date != nil {
		query.Set("date", filters.Date.Format("2006-01-02"))
	}
	if filters.StartDate != nil {
		query.Set("startDate", filters.StartDate.Format("2006-01-02"))
	}
	if filters.EndDate != nil {
		query.Set("endDate", filters.EndDate.Format("2006-01-02"))
	}
	if filters.Sort != "" {
		query.Set("sort", filters.Sort)
	}

	var tasks []models.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", query, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, taskID uuid.UUID) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodGet, "/api/tasks/"+taskID.String(), nil, nil, &task)
	return task, err
}

func (c *Client) CreateTask(ctx context.Context, input models.NewTask) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", nil, input, &task)
	return task, err
}

func (c *Client) UpdateTask(ctx context.Context, taskID uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPut, "/api/tasks/"+taskID.String(), nil, patch, &task)
	return task, err
}

func (c *Client) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+taskID.String(), nil, nil, nil)
}

func (c *Client) ToggleComplete(ctx context.Context, taskID uuid.UUID) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, http.MethodPatch, "/api/tasks/"+taskID.String()+"/toggle", nil, nil, &task)
	return task, err
}

type bulkRequest struct {
	TaskIDs []uuid.UUID      `json:"task_ids"`
	Patch   models.TaskPatch `json:"patch"`
}

type bulkResponse struct {
	Updated int64 `json:"updated"`
}

func (c *Client) BulkUpdateTasks(ctx context.Context, taskIDs []uuid.UUID, patch models.TaskPatch) (int64, error) {
	var resp bulkResponse
	err := c.do(ctx, http.MethodPatch, "/api/tasks/bulk", nil, bulkRequest{TaskIDs: taskIDs, Patch: patch}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Updated, nil
}

type errorPayload struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures have no definite outcome;
		// callers must treat them as failures, never partial success.
		return fmt.Errorf("%w: %v", models.ErrConflict, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if dest == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError maps HTTP statuses back onto the shared failure taxonomy.
func decodeError(resp *http.Response) error {
	var payload errorPayload
	json.NewDecoder(resp.Body).Decode(&payload)
	msg := payload.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", models.ErrNotFound, msg)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", models.ErrForbidden, msg)
	case http.StatusBadRequest:
		return models.NewValidationError("request", msg)
	case http.StatusUnauthorized:
		return fmt.Errorf("unauthorized: %s", msg)
	default:
		return fmt.Errorf("%w: %s", models.ErrConflict, msg)
	}
}
