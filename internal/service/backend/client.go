package backend

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

	"smartgarage/internal/calibration"
	"smartgarage/internal/config"
	"smartgarage/internal/dto"
)

// ErrRejected is returned when the detection backend answers with a non-2xx status.
var ErrRejected = errors.New("detection backend rejected request")

// Client talks to the detection backend's REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(config *config.Config) *Client {
	timeout := config.BackendTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(config.BackendURL, "/"),
		apiKey:  config.BackendAPIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// Start begins processing, optionally with a calibration.
func (c *Client) Start(ctx context.Context, payload *calibration.Payload) error {
	return c.post(ctx, "/start", dto.NewProcessingRequest(payload))
}

// Stop halts processing.
func (c *Client) Stop(ctx context.Context) error {
	return c.post(ctx, "/stop", nil)
}

// Configure pushes a calibration to the backend's configuration endpoint
// as {regionPoints, countingLines}.
func (c *Client) Configure(ctx context.Context, payload calibration.Payload) error {
	return c.post(ctx, "/config", payload)
}

func (c *Client) post(ctx context.Context, path string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", ErrRejected, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}
