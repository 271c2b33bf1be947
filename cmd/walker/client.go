package main

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

	"github.com/wricardo/growgrid/grid/service"
)

// APIError is a non-2xx response from the grid server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Rejected reports whether the server refused a write because of bounds or size limits
func (e *APIError) Rejected() bool {
	return e.Status == http.StatusConflict || e.Status == http.StatusRequestEntityTooLarge
}

// Client talks to the grid REST API for one session
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) SessionID() string { return c.sessionID }

func (c *Client) CreateSession(ctx context.Context, configID string) (*service.SessionInfo, error) {
	var reqBody any
	if configID != "" {
		reqBody = map[string]string{"config_id": configID}
	}

	var session service.SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", reqBody, &session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	c.sessionID = session.ID
	return &session, nil
}

// UseSession points the client at an existing session and fetches it
func (c *Client) UseSession(ctx context.Context, id string) (*service.SessionInfo, error) {
	c.sessionID = id
	return c.GetSession(ctx)
}

func (c *Client) GetSession(ctx context.Context) (*service.SessionInfo, error) {
	var session service.SessionInfo
	if err := c.do(ctx, http.MethodGet, c.sessionPath(""), nil, &session); err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session, nil
}

func (c *Client) SetCell(ctx context.Context, x, y int, value string) (*service.CellResult, error) {
	var result service.CellResult
	path := c.sessionPath(fmt.Sprintf("/cells/%d/%d", x, y))
	if err := c.do(ctx, http.MethodPut, path, map[string]string{"value": value}, &result); err != nil {
		return nil, fmt.Errorf("set cell: %w", err)
	}
	return &result, nil
}

func (c *Client) BulkSet(ctx context.Context, writes []service.CellWrite) (*service.BulkSetResult, error) {
	var result service.BulkSetResult
	body := map[string][]service.CellWrite{"writes": writes}
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/bulk-set"), body, &result); err != nil {
		return nil, fmt.Errorf("bulk set: %w", err)
	}
	return &result, nil
}

func (c *Client) Reset(ctx context.Context) (*service.GridView, error) {
	var view service.GridView
	if err := c.do(ctx, http.MethodPost, c.sessionPath("/reset"), nil, &view); err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	return &view, nil
}

func (c *Client) sessionPath(suffix string) string {
	return "/api/sessions/" + url.PathEscape(c.sessionID) + suffix
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
