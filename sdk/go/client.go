package leadgpssdk

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

// Client is a minimal Leadership GPS HTTP API client.
type Client struct {
	BaseURL     string
	BearerToken string
	HTTPClient  *http.Client
	Timeout     time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Identity is the authenticated user.
type Identity struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// LoginResult bundles the token with the identity and its routes.
type LoginResult struct {
	Token    string   `json:"token"`
	Identity Identity `json:"identity"`
	Routes   []string `json:"routes"`
	Landing  string   `json:"landing"`
}

// ActionItem is the API action item model.
type ActionItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Priority  string `json:"priority"`
	DueDate   string `json:"due_date"`
	Type      string `json:"type"`
	Completed bool   `json:"completed"`
}

// Nudge is a coaching prompt shown to managers.
type Nudge struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Priority  string `json:"priority"`
	Dismissed bool   `json:"dismissed"`
}

// TrendPoint is one monthly sentiment sample.
type TrendPoint struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// ScheduledSession is a booked 1:1.
type ScheduledSession struct {
	ID          int64  `json:"id"`
	TeamMember  string `json:"team_member"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	SessionType string `json:"session_type"`
	Status      string `json:"status"`
}

// Resolution is the outcome of resolving a path against role routes.
type Resolution struct {
	Path  string `json:"path"`
	Route string `json:"route"`
	State string `json:"state"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// Login authenticates and stores the bearer token on the client.
func (c *Client) Login(ctx context.Context, email, password, role string) (LoginResult, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"role":     role,
	}
	var resp LoginResult
	if err := c.do(ctx, http.MethodPost, "v0/auth/login", body, &resp); err != nil {
		return resp, err
	}
	c.BearerToken = resp.Token
	return resp, nil
}

// Logout invalidates the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "v0/auth/logout", nil, nil)
}

// Me returns the current identity and its routes.
func (c *Client) Me(ctx context.Context) (Identity, []string, error) {
	var resp struct {
		Identity Identity `json:"identity"`
		Routes   []string `json:"routes"`
	}
	err := c.do(ctx, http.MethodGet, "v0/me", nil, &resp)
	return resp.Identity, resp.Routes, err
}

// Resolve maps a requested path onto the caller's route table.
func (c *Client) Resolve(ctx context.Context, path string) (Resolution, error) {
	var resp Resolution
	endpoint := "v0/view/resolve?path=" + url.QueryEscape(path)
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp, err
}

// ActionItems lists the manager's action items.
func (c *Client) ActionItems(ctx context.Context) ([]ActionItem, error) {
	var resp struct {
		Items []ActionItem `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "v0/action-items", nil, &resp)
	return resp.Items, err
}

// AddActionItem appends a new open item.
func (c *Client) AddActionItem(ctx context.Context, title, priority, dueDate string) (ActionItem, error) {
	body := map[string]any{
		"title":    title,
		"priority": priority,
		"due_date": dueDate,
	}
	var resp ActionItem
	err := c.do(ctx, http.MethodPost, "v0/action-items", body, &resp)
	return resp, err
}

// ToggleActionItem flips an item's completion state.
func (c *Client) ToggleActionItem(ctx context.Context, id int64) (ActionItem, error) {
	var resp ActionItem
	endpoint := fmt.Sprintf("v0/action-items/%d/toggle", id)
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// Nudges lists active nudges.
func (c *Client) Nudges(ctx context.Context) ([]Nudge, error) {
	var resp struct {
		Items []Nudge `json:"items"`
	}
	err := c.do(ctx, http.MethodGet, "v0/nudges", nil, &resp)
	return resp.Items, err
}

// DismissNudge retires a nudge.
func (c *Client) DismissNudge(ctx context.Context, id int64) (Nudge, error) {
	var resp Nudge
	endpoint := fmt.Sprintf("v0/nudges/%d/dismiss", id)
	err := c.do(ctx, http.MethodPost, endpoint, nil, &resp)
	return resp, err
}

// Trends returns the raw sentiment series.
func (c *Client) Trends(ctx context.Context) ([]TrendPoint, error) {
	var resp []TrendPoint
	err := c.do(ctx, http.MethodGet, "v0/trends", nil, &resp)
	return resp, err
}

// ScheduleSession books a 1:1.
func (c *Client) ScheduleSession(ctx context.Context, teamMember, date, timeOfDay, sessionType string) (ScheduledSession, error) {
	body := map[string]any{
		"team_member":  teamMember,
		"date":         date,
		"time":         timeOfDay,
		"session_type": sessionType,
	}
	var resp struct {
		Session ScheduledSession `json:"session"`
	}
	err := c.do(ctx, http.MethodPost, "v0/sessions", body, &resp)
	return resp.Session, err
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
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
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

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
