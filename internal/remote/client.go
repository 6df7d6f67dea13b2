// Package remote talks to the hemma sync and auth API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/keyring"
	"github.com/julianstephens/hemma/internal/models"
	"github.com/julianstephens/hemma/internal/syncer"
)

// APIError represents a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" && e.Message != "" {
		return fmt.Sprintf("api error: %s (%d): %s", e.Code, e.Status, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error: %s (%d)", e.Code, e.Status)
	}
	if e.Message != "" {
		return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (%d)", e.Status)
}

// Unauthorized reports whether the server rejected the credential.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

type apiErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// TokenSource returns the current bearer token. An empty token or
// keyring.ErrNotFound means there is no credential.
type TokenSource func() (string, error)

// Client talks to the remote API.
type Client struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient constructs a client. token may be nil for unauthenticated use.
func NewClient(baseURL string, token TokenSource, opts ...Option) (*Client, error) {
	normalized, err := NormalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL: normalized,
		token:   token,
		httpClient: &http.Client{
			Timeout: constants.RemoteTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeBaseURL trims the URL and ensures it has a scheme.
func NormalizeBaseURL(raw string) (string, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return "", fmt.Errorf("api url cannot be empty")
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid api url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("api url must include scheme (https://)")
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("api url must include a host")
	}
	return strings.TrimRight(value, "/"), nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Download fetches the full remote snapshot.
func (c *Client) Download(ctx context.Context) (models.SyncPayload, error) {
	var resp models.SyncPayload
	if err := c.doAuthed(ctx, http.MethodGet, "/sync/download", nil, &resp); err != nil {
		return models.SyncPayload{}, err
	}
	return resp.Normalize(), nil
}

// Upload sends the local snapshot and returns the merged superset.
func (c *Client) Upload(ctx context.Context, payload models.SyncPayload) (models.SyncPayload, error) {
	var resp models.SyncPayload
	if err := c.doAuthed(ctx, http.MethodPost, "/sync/upload", payload.Normalize(), &resp); err != nil {
		return models.SyncPayload{}, err
	}
	return resp.Normalize(), nil
}

// Reset deletes all of the user's data on the server.
func (c *Client) Reset(ctx context.Context) error {
	return c.doAuthed(ctx, http.MethodDelete, "/sync/reset", nil, nil)
}

// Profile returns the user the credential belongs to.
func (c *Client) Profile(ctx context.Context) (models.AuthUser, error) {
	var resp models.AuthUser
	if err := c.doAuthed(ctx, http.MethodGet, "/auth/profile", nil, &resp); err != nil {
		return models.AuthUser{}, err
	}
	return resp, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges an email and password for a token.
func (c *Client) Login(ctx context.Context, email, password string) (models.AuthResponse, error) {
	var resp models.AuthResponse
	req := loginRequest{Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", req, &resp); err != nil {
		return models.AuthResponse{}, err
	}
	return resp, nil
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, name, email, password string) (models.AuthResponse, error) {
	var resp models.AuthResponse
	req := registerRequest{Name: name, Email: email, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", req, &resp); err != nil {
		return models.AuthResponse{}, err
	}
	return resp, nil
}

func (c *Client) doAuthed(ctx context.Context, method, path string, reqBody any, respBody any) error {
	token, err := c.bearer()
	if err != nil {
		return err
	}
	return c.doJSON(ctx, method, path, token, reqBody, respBody)
}

func (c *Client) bearer() (string, error) {
	if c.token == nil {
		return "", syncer.ErrNoCredential
	}
	token, err := c.token()
	if errors.Is(err, keyring.ErrNotFound) || (err == nil && token == "") {
		return "", syncer.ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	return token, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, reqBody any, respBody any) error {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		var payload apiErrorPayload
		if err := json.Unmarshal(respData, &payload); err == nil {
			apiErr.Code = payload.Error
			apiErr.Message = payload.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(respData))
		}
		return apiErr
	}

	if respBody == nil || len(respData) == 0 {
		return nil
	}
	if err := json.Unmarshal(respData, respBody); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}
