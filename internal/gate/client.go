package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// Client talks to the clinic API with ambient cookie credentials, the way
// the browser app does.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds an API client with its own cookie jar so the session
// cookie rides along automatically.
func NewClient(baseURL string) *Client {
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Jar: jar},
	}
}

// NewClientWithHTTP allows injecting a preconfigured http.Client.
func NewClientWithHTTP(baseURL string, hc *http.Client) *Client {
	if hc.Jar == nil {
		hc.Jar, _ = cookiejar.New(nil)
	}
	return &Client{baseURL: baseURL, http: hc}
}

func (c *Client) session(resp *http.Response, err error) (*Session, error) {
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{Status: resp.StatusCode, Detail: detailFrom(body)}
	}
	var s Session
	if err := json.NewDecoder(resp.Body).Decode(&s); err != nil {
		return nil, fmt.Errorf("gate: decode session: %w", err)
	}
	return &s, nil
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gate: api status %d: %s", e.Status, e.Detail)
}

func detailFrom(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return string(body)
}

// Login performs a password login and returns the resulting session.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.session(c.http.Do(req))
}

// Exchange trades a provider token for a session.
func (c *Client) Exchange(ctx context.Context, token string) (*Session, error) {
	u := c.baseURL + "/api/auth/session?session_id=" + url.QueryEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.session(c.http.Do(req))
}

// Me asks the backend who the ambient credential belongs to.
func (c *Client) Me(ctx context.Context) (*Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/auth/me", nil)
	if err != nil {
		return nil, err
	}
	return c.session(c.http.Do(req))
}

// Logout tells the backend to drop the session. Best effort: callers clear
// local state regardless of the returned error.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/logout", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
