package tui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fentz26/cleanops/internal/models"
	"github.com/fentz26/cleanops/internal/stats"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the cleanops API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client with timeout.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// Stats fetches the dashboard aggregate.
func (c *Client) Stats() (*stats.Stats, error) {
	var out stats.Stats
	if err := c.get("/stats", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListTasks fetches tasks, optionally filtered by status.
func (c *Client) ListTasks(status string) ([]models.CleaningTask, error) {
	path := "/tasks"
	if status != "" {
		path += "?status=" + url.QueryEscape(status)
	}
	var tasks []models.CleaningTask
	if err := c.get(path, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListDepartments fetches every department.
func (c *Client) ListDepartments() ([]models.Department, error) {
	var depts []models.Department
	if err := c.get("/departments", &depts); err != nil {
		return nil, err
	}
	return depts, nil
}

// AdvanceTask moves a task to status.
func (c *Client) AdvanceTask(taskID string, status models.TaskStatus) error {
	body, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Post(c.baseURL+"/tasks/"+url.PathEscape(taskID)+"/status", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkResponse(resp)
}

// Ping reports whether the daemon answers /health.
func (c *Client) Ping() bool {
	resp, err := c.httpClient.Get(c.baseURL + "/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *Client) get(path string, v interface{}) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}
	var apiErr struct {
		Error string `json:"error"`
	}
	body, _ := io.ReadAll(resp.Body)
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("API error: %s", apiErr.Error)
	}
	return fmt.Errorf("API error: %s", string(body))
}
