package uploader

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// maxLoggedBody caps how much of an error response body ends up in the
// logs.
const maxLoggedBody = 1000

// Envelope is the JSON request body sent to the image-embed endpoint.
type Envelope struct {
	ContentType string         `json:"content_type"`
	ImageBase64 string         `json:"image_base64"`
	Metadata    map[string]any `json:"metadata"`
}

// Client sends optimized images to the remote API. One synchronous
// POST per image, no retries, no backoff.
type Client struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates an upload client with the default HTTP timeout.
func NewClient(logger *logrus.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// EncodeBase64 returns the standard base64 encoding of the payload.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Upload base64-encodes the payload, wraps it in the JSON envelope
// together with the metadata map, and POSTs it with the api-key header.
// The response body is returned as raw JSON on HTTP 200. Authentication
// failures (401/403) and all other non-200 statuses are logged and
// returned as errors; network failures are treated the same way. Every
// failure is terminal for this image only.
func (c *Client) Upload(ctx context.Context, apiURL, apiKey string, payload []byte, contentType string, metadata map[string]any) (json.RawMessage, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}

	body, err := json.Marshal(Envelope{
		ContentType: contentType,
		ImageBase64: EncodeBase64(payload),
		Metadata:    metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", apiKey)

	c.logger.Infof("sending API request: %s", apiURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Errorf("API request failed: %v", err)
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Errorf("reading API response failed: %v", err)
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		var parsed any
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			c.logger.Errorf("API returned 200 with invalid JSON: %v", err)
			return nil, fmt.Errorf("parse response: %w", err)
		}
		c.logger.Info("API call succeeded")
		return json.RawMessage(respBody), nil

	case http.StatusUnauthorized:
		c.logger.Error("authentication error: API key required")
		return nil, fmt.Errorf("authentication failed: API key required")

	case http.StatusForbidden:
		c.logger.Error("authentication error: invalid API key")
		return nil, fmt.Errorf("authentication failed: invalid API key")

	default:
		c.logger.Errorf("API error: status code %d", resp.StatusCode)
		c.logger.Errorf("response: %s", truncate(respBody, maxLoggedBody))
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}
}

func truncate(body []byte, limit int) string {
	if len(body) > limit {
		return string(body[:limit])
	}
	return string(body)
}
