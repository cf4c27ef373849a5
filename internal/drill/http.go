package drill

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/sideout/internal/domain/model"
	"github.com/okian/sideout/internal/domain/types"
)

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readJSON reads, closes, and decodes a JSON response body.
func readJSON(resp *http.Response, v any) error {
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// createSet starts a new set on the service and returns its view.
func createSet(ctx context.Context, client *HTTPClient, baseURL string, setup model.SetSetup) (types.SetView, error) {
	resp, err := client.Post(ctx, baseURL+"/sets", setup)
	if err != nil {
		return types.SetView{}, fmt.Errorf("failed to create set: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		_ = resp.Body.Close()
		return types.SetView{}, fmt.Errorf("create set returned status %d", resp.StatusCode)
	}
	var view types.SetView
	if err := readJSON(resp, &view); err != nil {
		return types.SetView{}, err
	}
	return view, nil
}

// ackEnvelope mirrors the wire shape of event acknowledgements.
type ackEnvelope struct {
	Status    string        `json:"status"`
	Duplicate bool          `json:"duplicate"`
	Set       types.SetView `json:"set"`
}

// submitScript plays a script's events against the service in order and
// returns the final served view. Events within a set must stay sequential;
// only whole sets run concurrently.
func submitScript(ctx context.Context, client *HTTPClient, baseURL, setID string, script Script, stats *statsCollector) (types.SetView, error) {
	url := baseURL + "/sets/" + setID + "/events"
	var last types.SetView
	for i, sub := range script.Events {
		resp, err := client.Post(ctx, url, sub)
		if err != nil {
			stats.failed.Add(1)
			return types.SetView{}, fmt.Errorf("failed to submit event %d: %w", i, err)
		}
		stats.submitted.Add(1)
		if resp.StatusCode != http.StatusOK {
			stats.failed.Add(1)
			_ = resp.Body.Close()
			return types.SetView{}, fmt.Errorf("event %d returned status %d", i, resp.StatusCode)
		}
		var ack ackEnvelope
		if err := readJSON(resp, &ack); err != nil {
			stats.failed.Add(1)
			return types.SetView{}, fmt.Errorf("event %d: %w", i, err)
		}
		if ack.Duplicate {
			stats.duplicate.Add(1)
		} else {
			stats.applied.Add(1)
		}
		last = ack.Set
	}
	return last, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, baseURL string) error {
	resp, err := client.Get(ctx, baseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}
