// Package client is the HTTP client used by the runner, the trigger and the
// CLI to talk to the ponto backend.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vleiria/ponto/internal/models"
)

// DefaultTimeout is the default timeout for API requests.
const DefaultTimeout = 10 * time.Second

// Client talks to the ponto backend API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a Client for the given base URL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) get(path string) ([]byte, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func (c *Client) post(path string, data interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Post(c.BaseURL+path, "application/json", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("API error (%d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Consultar fetches the current task. It returns nil when the backend has no
// records; the backend answers with an empty object in that case.
func (c *Client) Consultar() (*models.TaskRecord, error) {
	body, err := c.get("/api/consultar")
	if err != nil {
		return nil, err
	}

	var task models.TaskRecord
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("failed to parse task: %w", err)
	}
	if task.ID == "" {
		return nil, nil
	}
	return &task, nil
}

type scheduleRequest struct {
	Hour          string  `json:"hora"`
	Minute        string  `json:"minuto"`
	ExecutionDate string  `json:"data_execucao"`
	Status        *string `json:"status,omitempty"`
	Message       *string `json:"msgsucesso,omitempty"`
}

// Agendar creates or resets the schedule for the given date and time. Hour
// and minute are zero-padded strings as the backend stores them. Status and
// message are optional; the backend defaults a new schedule to "criado".
func (c *Client) Agendar(hour, minute, executionDate string, status *models.TaskStatus, message *string) (*models.TaskRecord, error) {
	req := scheduleRequest{
		Hour:          hour,
		Minute:        minute,
		ExecutionDate: executionDate,
		Message:       message,
	}
	if status != nil {
		s := string(*status)
		req.Status = &s
	}

	body, err := c.post("/api/agendar", req)
	if err != nil {
		return nil, err
	}

	var task models.TaskRecord
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("failed to parse task: %w", err)
	}
	return &task, nil
}

type confirmRequest struct {
	Status  *string `json:"status,omitempty"`
	Message *string `json:"msgsucesso,omitempty"`
	Success *bool   `json:"sucesso,omitempty"`
}

// ConfirmResponse matches the server's execution confirmation response.
type ConfirmResponse struct {
	Status string             `json:"status"`
	Task   *models.TaskRecord `json:"tarefa,omitempty"`
}

// ConfirmarExecucao reports an execution outcome for the current task. All
// fields are optional; omitted fields are left untouched on the record.
func (c *Client) ConfirmarExecucao(status *models.TaskStatus, message *string, success *bool) (*ConfirmResponse, error) {
	req := confirmRequest{
		Message: message,
		Success: success,
	}
	if status != nil {
		s := string(*status)
		req.Status = &s
	}

	body, err := c.post("/api/confirmar-execucao", req)
	if err != nil {
		return nil, err
	}

	var out ConfirmResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to parse confirmation: %w", err)
	}
	return &out, nil
}

// ListarUltimas fetches the most recent tasks, newest first. A limit of zero
// uses the backend default.
func (c *Client) ListarUltimas(limit int) ([]models.TaskRecord, error) {
	path := "/api/listar-ultimas"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}

	body, err := c.get(path)
	if err != nil {
		return nil, err
	}

	var tasks []models.TaskRecord
	if err := json.Unmarshal(body, &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse task list: %w", err)
	}
	return tasks, nil
}

// HealthResponse matches the server's health response structure.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CheckHealth checks if the backend is healthy. Unlike other calls it returns
// the parsed payload even on non-200 responses, so callers can inspect it
// alongside the error.
func (c *Client) CheckHealth() (*HealthResponse, error) {
	resp, err := c.HTTPClient.Get(c.BaseURL + "/health-check")
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("health check failed (status %d): %s", resp.StatusCode, string(body))
	}

	return &health, nil
}
