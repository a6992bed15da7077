// Package client talks to the HTTP API of a DocLedger validator and
// prepares signed documents batches.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"DocLedger/internal/api"
	"DocLedger/internal/document"
)

// Client connects to a validator via HTTP.
type Client struct {
	baseURL string       // baseURL is the API root (e.g. "http://127.0.0.1:8080")
	http    *http.Client // http performs the requests
}

// NewClient creates a client for the validator listening on addr (host:port).
func NewClient(addr string) *Client {
	return &Client{
		baseURL: "http://" + addr,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Health checks that the validator is up.
func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}

	if err := c.getJSON(ctx, "/health", &resp); err != nil {
		return err
	}

	if resp.Status != "ok" {
		return fmt.Errorf("validator status %q", resp.Status)
	}

	return nil
}

// ValidateBatch submits raw for validation and returns the verdict.
// An invalid batch is a verdict, not an error.
func (c *Client) ValidateBatch(ctx context.Context, raw document.RawBatch, checkFee bool) (*api.Verdict, error) {
	body, err := document.EncodeBatchJSON(raw)
	if err != nil {
		return nil, err
	}

	path := "/validate"
	if checkFee {
		path += "?fee=1"
	}

	var verdict api.Verdict
	if err := c.postJSON(ctx, path, body, &verdict, http.StatusOK, http.StatusUnprocessableEntity); err != nil {
		return nil, err
	}

	return &verdict, nil
}
