package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/izavyalov-dev/e2e-runner/protocol"
)

// HTTPClient talks to a running e2e-runner server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient returns a client without a request timeout; runs can take as
// long as the server's run timeout, so callers bound them through ctx.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
	}
}

// Run submits testIDs and blocks until the server returns the run result.
func (c *HTTPClient) Run(ctx context.Context, testIDs []string) (protocol.RunResult, error) {
	var result protocol.RunResult
	err := c.post(ctx, "/api/run", protocol.RunRequest{TestIDs: testIDs}, &result)
	return result, err
}

func (c *HTTPClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr protocol.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("unexpected status %s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
