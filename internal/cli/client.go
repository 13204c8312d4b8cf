package cli

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

	"github.com/mcoot/partygame/internal/api/apierr"
	"github.com/mcoot/partygame/internal/model"
)

// Client is an HTTP client for the API
type Client struct {
	baseURL    string
	token      string
	headers    http.Header
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		headers: http.Header{},
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken updates the client's token
func (c *Client) SetToken(token string) {
	c.token = token
}

// SetHeader adds a header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers.Set(key, value)
}

// StatusError is a non-2xx API response
type StatusError struct {
	Status int
	apierr.APIError
}

func (e *StatusError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap maps the response onto the model error taxonomy so callers can
// test it with errors.Is
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case apierr.CodePartyNotFound:
		return model.ErrPartyNotFound
	case apierr.CodeUserNotFound:
		return model.ErrUserNotFound
	case apierr.CodeNotHost:
		return model.ErrNotHost
	case apierr.CodeInvalidTransition:
		return model.ErrInvalidTransition
	case apierr.CodePartyNotWaiting:
		return model.ErrPartyNotWaiting
	}

	switch e.Status {
	case http.StatusNotFound:
		return model.ErrNotFound
	case http.StatusBadRequest:
		return model.ErrInvalidInput
	case http.StatusUnauthorized:
		return model.ErrUnauthorized
	case http.StatusForbidden:
		return model.ErrForbidden
	case http.StatusConflict:
		return model.ErrConflict
	}
	return nil
}

// Do performs an HTTP request and decodes a JSON response into result
func (c *Client) Do(ctx context.Context, method, path string, body, result any) error {
	respBody, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}

	// Parse successful response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		statusErr := &StatusError{Status: resp.StatusCode}
		var errResp apierr.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			statusErr.APIError = errResp.Error
		} else {
			statusErr.Message = strings.TrimSpace(string(respBody))
		}
		return nil, statusErr
	}

	return respBody, nil
}

// Get performs a GET request
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.Do(ctx, http.MethodGet, path, nil, result)
}

// GetRaw performs a GET request and returns the undecoded body
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request
func (c *Client) Post(ctx context.Context, path string, body, result any) error {
	return c.Do(ctx, http.MethodPost, path, body, result)
}

// Delete performs a DELETE request
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// FetchParty reads a party by id. It satisfies partysync.Fetcher.
func (c *Client) FetchParty(ctx context.Context, id model.PartyID) (*model.Party, error) {
	var p model.Party
	if err := c.Get(ctx, "/api/v1/parties/"+url.PathEscape(string(id)), &p); err != nil {
		return nil, err
	}
	return &p, nil
}
