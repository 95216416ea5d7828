package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ImageTextClient calls the image OCR/vision service. The contract is
// best effort: any transport or non-2xx failure degrades to empty text
// so OCR enrichment can never abort an analysis.
type ImageTextClient struct {
	baseURL string
	client  *http.Client
}

func NewImageTextClient(baseURL string, timeout time.Duration) *ImageTextClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ImageTextClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ExtractText posts the image URL to /analyze-image and returns the
// extracted text. Returns ("", nil) on any failure.
func (c *ImageTextClient) ExtractText(ctx context.Context, imageURL, incidentID string) (string, error) {
	body := map[string]string{
		"image_url":   imageURL,
		"incident_id": incidentID,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze-image", bytes.NewReader(jsonBody))
	if err != nil {
		return "", nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Printf("image text service unreachable for incident=%s: %v", incidentID, err)
		return "", nil
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("image text service read error for incident=%s: %v", incidentID, err)
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("image text service returned status %d for incident=%s", resp.StatusCode, incidentID)
		return "", nil
	}

	var out struct {
		ExtractedText string `json:"extracted_text"`
	}
	if err := json.Unmarshal(respBytes, &out); err != nil {
		log.Printf("image text service bad response for incident=%s: %v", incidentID, err)
		return "", nil
	}
	return strings.TrimSpace(out.ExtractedText), nil
}
