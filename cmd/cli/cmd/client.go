package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskplane/pkg/api"
)

// TaskClient handles API calls to the taskplane coordinator.
type TaskClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewTaskClient creates a new client with the given base URL and token.
func NewTaskClient(baseURL, token string) *TaskClient {
	return &TaskClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

func (c *TaskClient) do(method, endpoint string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	httpReq, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Add("Authorization", fmt.Sprintf("Bearer %s", c.Token))
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return respBody, nil
}

// SubmitTask sends POST /tasks to submit a new task.
func (c *TaskClient) SubmitTask(req api.SubmitTaskRequest) (*api.SubmitTaskResponse, error) {
	respBody, err := c.do(http.MethodPost, fmt.Sprintf("%s/tasks", c.BaseURL), req)
	if err != nil {
		return nil, err
	}

	var result api.SubmitTaskResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

// KillTask sends POST /tasks/{id}/kill to request a kill.
func (c *TaskClient) KillTask(taskID int64) (*api.KillTaskResponse, error) {
	respBody, err := c.do(http.MethodPost, fmt.Sprintf("%s/tasks/%d/kill", c.BaseURL, taskID), nil)
	if err != nil {
		return nil, err
	}

	var result api.KillTaskResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

// QueryTasks sends GET /tasks?id=... to retrieve task details.
func (c *TaskClient) QueryTasks(taskIDs []int64) (*api.QueryTasksResponse, error) {
	params := make([]string, 0, len(taskIDs))
	for _, id := range taskIDs {
		params = append(params, "id="+strconv.FormatInt(id, 10))
	}

	endpoint := fmt.Sprintf("%s/tasks?%s", c.BaseURL, strings.Join(params, "&"))
	respBody, err := c.do(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var result api.QueryTasksResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

// ReconcileTasks sends POST /tasks/reconcile for a batch of task ids.
func (c *TaskClient) ReconcileTasks(taskIDs []int64) (*api.ReconcileSummary, error) {
	respBody, err := c.do(http.MethodPost, fmt.Sprintf("%s/tasks/reconcile", c.BaseURL), api.ReconcileRequest{TaskIDs: taskIDs})
	if err != nil {
		return nil, err
	}

	var result api.ReconcileSummary
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

// CreateTenant sends POST /tenants to register a new tenant.
func (c *TaskClient) CreateTenant(req api.CreateTenantRequest) (*api.CreateTenantResponse, error) {
	respBody, err := c.do(http.MethodPost, fmt.Sprintf("%s/tenants", c.BaseURL), req)
	if err != nil {
		return nil, err
	}

	var result api.CreateTenantResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}
