package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/guardline/incident-ai/internal/domain/analysis"
)

// ClassifierClient calls the incident-classification service. Unlike the
// image text client, a failure here is terminal: there is no meaningful
// local fallback, so errors propagate with the service's own message.
type ClassifierClient struct {
	baseURL string
	client  *http.Client
}

func NewClassifierClient(baseURL string, timeout time.Duration) *ClassifierClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClassifierClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *ClassifierClient) Analyze(ctx context.Context, creq analysis.ClassifyRequest) (*analysis.Result, error) {
	jsonBody, err := json.Marshal(creq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze-incident", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("incident analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("incident analysis response read failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &analysis.ServiceError{
			StatusCode: resp.StatusCode,
			Detail:     extractDetail(respBytes),
		}
	}

	var out analysis.Result
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, fmt.Errorf("incident analysis response decode failed: %w", err)
	}
	return &out, nil
}

// extractDetail pulls the human-readable message from an error body.
// Empty string means "no detail"; ServiceError falls back to a generic
// status-based message.
func extractDetail(body []byte) string {
	var out struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return ""
	}
	return strings.TrimSpace(out.Detail)
}
