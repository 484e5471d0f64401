package hardware

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultReaderURL = "http://localhost:9100"

// ReaderClient talks to the RFID bridge daemon over HTTP. The daemon
// owns the physical reader and blocks a /read request until a tag is
// presented or its wait budget runs out.
type ReaderClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

var _ TagReader = (*ReaderClient)(nil)

// NewReaderClient creates a client for the RFID bridge.
func NewReaderClient(baseURL string, timeout time.Duration) *ReaderClient {
	if baseURL == "" {
		baseURL = defaultReaderURL
	}
	return &ReaderClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		timeout: timeout,
		// Client timeout slightly above the bridge budget so the
		// bridge answers first with its own timeout result.
		client: &http.Client{Timeout: timeout + 2*time.Second},
	}
}

// readResponse is the bridge's read result. A missing tag means the
// wait budget ran out without a presentation.
type readResponse struct {
	Tag     string `json:"tag"`
	Payload string `json:"payload,omitempty"`
}

// Read blocks until the bridge reports a tag or times out.
func (r *ReaderClient) Read(ctx context.Context) (string, error) {
	// The bridge takes whole seconds; never send a zero budget for
	// sub-second timeouts.
	waitSecs := int(r.timeout.Seconds())
	if waitSecs < 1 {
		waitSecs = 1
	}
	url := fmt.Sprintf("%s/read?wait=%d", r.baseURL, waitSecs)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("read request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusNoContent {
		return "", ErrReadTimeout
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reader error (status %d): %s", resp.StatusCode, string(body))
	}

	var rr readResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if rr.Tag == "" {
		return "", ErrReadTimeout
	}
	return rr.Tag, nil
}

// Write stores a payload on the presented tag.
func (r *ReaderClient) Write(ctx context.Context, tagID, payload string) error {
	reqBody, err := json.Marshal(map[string]string{"tag": tagID, "payload": payload})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/write", strings.NewReader(string(reqBody)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("write request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("writer error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
