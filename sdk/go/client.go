package techcosdk

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
)

// Client is a minimal Techco HTTP API client.
type Client struct {
	BaseURL     string
	GameID      string
	APIKey      string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL, gameID string) *Client {
	return &Client{
		BaseURL: baseURL,
		GameID:  gameID,
		Timeout: 10 * time.Second,
	}
}

// Game is the API game model.
type Game struct {
	ID                     string  `json:"id"`
	Name                   string  `json:"name"`
	Money                  float64 `json:"money"`
	Status                 string  `json:"status"`
	OfflineDurationSeconds int64   `json:"offline_duration_seconds"`
	CreatedAt              string  `json:"created_at"`
}

// Developer is the API developer model (partial).
type Developer struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Seniority     int     `json:"seniority"`
	MonthlySalary float64 `json:"monthly_salary"`
	IsBusy        bool    `json:"is_busy"`
}

// SalesPerson is the API salesperson model (partial).
type SalesPerson struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Experience    int     `json:"experience"`
	MonthlySalary float64 `json:"monthly_salary"`
	IsBusy        bool    `json:"is_busy"`
}

// Project is the API project model, including live completion state.
type Project struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Complexity            int     `json:"complexity"`
	Value                 float64 `json:"value"`
	Status                string  `json:"status"`
	DeveloperID           *string `json:"developer_id,omitempty"`
	EstimatedCompletionAt *string `json:"estimated_completion_at,omitempty"`
	Progress              float64 `json:"progress"`
	SecondsRemaining      int64   `json:"seconds_remaining"`
	Ready                 bool    `json:"ready"`
}

// Generation is the API project generation model.
type Generation struct {
	ID                    string  `json:"id"`
	SalesPersonID         string  `json:"sales_person_id"`
	Status                string  `json:"status"`
	TargetComplexity      int     `json:"target_complexity"`
	TargetValue           float64 `json:"target_value"`
	TargetName            string  `json:"target_name"`
	EstimatedCompletionAt string  `json:"estimated_completion_at"`
	GeneratedProjectID    *string `json:"generated_project_id,omitempty"`
	Progress              float64 `json:"progress"`
	SecondsRemaining      int64   `json:"seconds_remaining"`
	Ready                 bool    `json:"ready"`
}

// Event is a log entry.
type Event struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Type       string         `json:"type"`
	GameID     string         `json:"game_id"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id"`
	Payload    map[string]any `json:"payload"`
}

// GameStatus is the dashboard summary.
type GameStatus struct {
	Game         Game           `json:"game"`
	Developers   int            `json:"developers"`
	SalesPeople  int            `json:"sales_people"`
	Projects     map[string]int `json:"projects"`
	MonthlyCosts float64        `json:"monthly_costs"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// PaginatedEvents wraps event listings with cursors.
type PaginatedEvents struct {
	Items      []Event `json:"items"`
	NextCursor string  `json:"next_cursor"`
}

// CreateGame creates a new game and remembers its id on the client.
func (c *Client) CreateGame(ctx context.Context, name string) (Game, error) {
	var resp Game
	err := c.do(ctx, http.MethodPost, "v1/games", map[string]any{"name": name}, &resp)
	if err == nil {
		c.GameID = resp.ID
	}
	return resp, err
}

// Status returns the dashboard summary.
func (c *Client) Status(ctx context.Context) (GameStatus, error) {
	var resp GameStatus
	err := c.do(ctx, http.MethodGet, c.gamePath("status"), nil, &resp)
	return resp, err
}

// HireDeveloper hires a developer at the given seniority.
func (c *Client) HireDeveloper(ctx context.Context, name string, seniority int) (Developer, error) {
	var resp Developer
	err := c.do(ctx, http.MethodPost, c.gamePath("developers"), map[string]any{
		"name":      name,
		"seniority": seniority,
	}, &resp)
	return resp, err
}

// HireSalesPerson hires a salesperson at the given experience.
func (c *Client) HireSalesPerson(ctx context.Context, name string, experience int) (SalesPerson, error) {
	var resp SalesPerson
	err := c.do(ctx, http.MethodPost, c.gamePath("sales-people"), map[string]any{
		"name":       name,
		"experience": experience,
	}, &resp)
	return resp, err
}

// CreateProject creates a pending project.
func (c *Client) CreateProject(ctx context.Context, name string, complexity int) (Project, error) {
	var resp Project
	err := c.do(ctx, http.MethodPost, c.gamePath("projects"), map[string]any{
		"name":       name,
		"complexity": complexity,
	}, &resp)
	return resp, err
}

// AssignProject puts a project in a developer's hands.
func (c *Client) AssignProject(ctx context.Context, projectID, developerID string) (Project, error) {
	var resp Project
	endpoint := c.gamePath(fmt.Sprintf("projects/%s/assign", url.PathEscape(projectID)))
	err := c.do(ctx, http.MethodPost, endpoint, map[string]any{"developer_id": developerID}, &resp)
	return resp, err
}

// GetProject fetches a project with live completion state.
func (c *Client) GetProject(ctx context.Context, projectID string) (Project, error) {
	var resp Project
	endpoint := c.gamePath(fmt.Sprintf("projects/%s", url.PathEscape(projectID)))
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// CompleteProject settles a finished project.
func (c *Client) CompleteProject(ctx context.Context, projectID string) (Project, error) {
	var resp Project
	endpoint := c.gamePath(fmt.Sprintf("projects/%s/complete", url.PathEscape(projectID)))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// StartGeneration sends a salesperson prospecting.
func (c *Client) StartGeneration(ctx context.Context, salesPersonID string) (Generation, error) {
	var resp Generation
	err := c.do(ctx, http.MethodPost, c.gamePath("generations"), map[string]any{
		"sales_person_id": salesPersonID,
	}, &resp)
	return resp, err
}

// CompleteGeneration materializes the prospect into a pending project.
func (c *Client) CompleteGeneration(ctx context.Context, generationID string) (Generation, Project, error) {
	var resp struct {
		Generation Generation `json:"generation"`
		Project    Project    `json:"project"`
	}
	endpoint := c.gamePath(fmt.Sprintf("generations/%s/complete", url.PathEscape(generationID)))
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp.Generation, resp.Project, err
}

// Pause freezes the game clock.
func (c *Client) Pause(ctx context.Context) (Game, error) {
	var resp Game
	err := c.do(ctx, http.MethodPost, c.gamePath("pause"), nil, &resp)
	return resp, err
}

// Resume reactivates the game and shifts in-flight deadlines.
func (c *Client) Resume(ctx context.Context) (Game, error) {
	var resp Game
	err := c.do(ctx, http.MethodPost, c.gamePath("resume"), nil, &resp)
	return resp, err
}

// CheckGameOver evaluates the bankruptcy condition.
func (c *Client) CheckGameOver(ctx context.Context) (Game, bool, error) {
	var resp struct {
		Game    Game `json:"game"`
		Changed bool `json:"changed"`
	}
	err := c.do(ctx, http.MethodPost, c.gamePath("check-game-over"), nil, &resp)
	return resp.Game, resp.Changed, err
}

// Events returns recent events.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	page, err := c.EventsPage(ctx, limit, "")
	return page.Items, err
}

// EventsPage returns a paginated event listing.
func (c *Client) EventsPage(ctx context.Context, limit int, cursor string) (PaginatedEvents, error) {
	endpoint := c.gamePath("events")
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	if cursor != "" {
		sep := "?"
		if strings.Contains(endpoint, "?") {
			sep = "&"
		}
		endpoint = fmt.Sprintf("%s%scursor=%s", endpoint, sep, url.QueryEscape(cursor))
	}
	var resp PaginatedEvents
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	switch {
	case c.BearerToken != "":
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	case c.APIKey != "":
		req.Header.Set("X-Api-Key", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) gamePath(p string) string {
	game := url.PathEscape(c.GameID)
	return fmt.Sprintf("v1/games/%s/%s", game, strings.TrimLeft(p, "/"))
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
