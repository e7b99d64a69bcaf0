package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotConfigured is returned when the client has no base URL or
	// service key. Operator misconfiguration, not a request failure.
	ErrNotConfigured = errors.New("data_api_not_configured")
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("data_api_not_found")
)

// Client is the single outbound capability for the remote data APIs
// (catalog reads, blob storage). It applies the service-role credential to
// every request so auth header construction exists in exactly one place.
type Client struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

func New(baseURL, serviceKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		serviceKey: strings.TrimSpace(serviceKey),
		client:     &http.Client{Timeout: 12 * time.Second},
	}
}

// Do issues an authenticated request. The path must start with "/".
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, header http.Header) (*http.Response, error) {
	if c.baseURL == "" || c.serviceKey == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		req.Header.Del(key)
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	return c.client.Do(req)
}

// GetJSON decodes a JSON response body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetBytes returns the raw response body.
func (c *Client) GetBytes(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

// Post sends a request body with optional extra headers and discards the
// response body on success.
func (c *Client) Post(ctx context.Context, path string, payload []byte, header http.Header) error {
	resp, err := c.Do(ctx, http.MethodPost, path, bytes.NewReader(payload), header)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("data_api_status_%d", resp.StatusCode)
	}
	return nil
}
