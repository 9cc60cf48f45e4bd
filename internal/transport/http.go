package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const httpTimeout = 30 * time.Second

// HTTPAPI executes SQL through a remote query endpoint that accepts JSON
// requests, for databases only reachable through a hosted query API.
type HTTPAPI struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTP returns an HTTPAPI transport for the given endpoint. The token, if
// non-empty, is sent as a bearer Authorization header.
func NewHTTP(endpoint, token string) *HTTPAPI {
	return &HTTPAPI{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: httpTimeout},
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type queryResponse struct {
	Rows [][]string `json:"rows"`
}

// Exec posts sql to the endpoint and decodes the returned rows.
func (h *HTTPAPI) Exec(ctx context.Context, sql string) (Rows, error) {
	body, err := json.Marshal(queryRequest{Query: sql})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	req.Header.Set("Content-Type", "application/json")

	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrExec, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s: %s", ErrExec, resp.Status, strings.TrimSpace(string(data)))
	}

	var decoded queryResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrExec, err)
	}

	return Rows(decoded.Rows), nil
}

// ExecFile reads the script at path and executes its content in one request.
func (h *HTTPAPI) ExecFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading script %s: %w", path, err)
	}

	_, err = h.Exec(ctx, string(data))

	return err
}

// Close releases idle connections.
func (h *HTTPAPI) Close() {
	h.client.CloseIdleConnections()
}
