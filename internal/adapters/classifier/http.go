// Package classifier provides the HTTP client for the external relevance
// and presence judges. Any transport error, non-200 status, or malformed
// body surfaces as an error, which the monitor treats as an inconclusive
// verdict rather than a distraction signal.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"driftwatch/internal/domain"
	"driftwatch/internal/ports"
)

const defaultTimeout = 10 * time.Second

// Client calls a classifier service over HTTP
type Client struct {
	baseURL string
	http    *http.Client
}

// Verify interface compliance at compile time
var (
	_ ports.Classifier     = (*Client)(nil)
	_ ports.PresenceSensor = (*Client)(nil)
)

// NewClient creates a classifier client for the given base URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type evaluateRequest struct {
	CapturedAt time.Time `json:"captured_at"`
	Data       []byte    `json:"data"`
	Source     string    `json:"source,omitempty"`
}

type evaluateResponse struct {
	Confidence float64 `json:"confidence"`
	Relevant   bool    `json:"relevant"`
}

type presenceResponse struct {
	Confidence float64 `json:"confidence"`
	Present    bool    `json:"present"`
}

// Evaluate implements ports.Classifier
func (c *Client) Evaluate(ctx context.Context, snapshot domain.Snapshot) (domain.Verdict, error) {
	var resp evaluateResponse
	if err := c.post(ctx, "/v1/evaluate", snapshot, &resp); err != nil {
		return domain.Verdict{}, err
	}
	return domain.Verdict{Confidence: resp.Confidence, Relevant: resp.Relevant}, nil
}

// Sense implements ports.PresenceSensor
func (c *Client) Sense(ctx context.Context, snapshot domain.Snapshot) (domain.Presence, error) {
	var resp presenceResponse
	if err := c.post(ctx, "/v1/presence", snapshot, &resp); err != nil {
		return domain.Presence{}, err
	}
	return domain.Presence{Confidence: resp.Confidence, Present: resp.Present}, nil
}

func (c *Client) post(ctx context.Context, path string, snapshot domain.Snapshot, out any) error {
	body, err := json.Marshal(evaluateRequest{
		CapturedAt: snapshot.CapturedAt,
		Data:       snapshot.Data,
		Source:     snapshot.Source,
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("classifier request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classifier returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode classifier response: %w", err)
	}
	return nil
}
