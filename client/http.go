package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
)

// getJSON performs a GET request and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request:\n%w", err)
	}

	return c.do(req, result, http.StatusOK)
}

// postJSON posts a JSON body and decodes the JSON response.
// Any status outside accepted is an error.
func (c *Client) postJSON(ctx context.Context, path string, body []byte, result any, accepted ...int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request:\n%w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, result, accepted...)
}

func (c *Client) do(req *http.Request, result any, accepted ...int) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s:\n%w", req.Method, req.URL.Path, err)
	}
	defer func() { io.Copy(io.Discard, resp.Body); resp.Body.Close() }()

	if !slices.Contains(accepted, resp.StatusCode) {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)

		return fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, apiErr.Error)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s response:\n%w", req.URL.Path, err)
	}

	return nil
}
