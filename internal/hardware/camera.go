package hardware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/shelfgate/shelfgate/internal/biometric"
)

const defaultCameraURL = "http://localhost:9200"

// CameraClient talks to the capture/biometric sidecar over HTTP. The
// sidecar owns the camera device and the face detection/encoding
// models; this client only moves frames and results.
type CameraClient struct {
	baseURL string
	client  *http.Client
}

var _ Camera = (*CameraClient)(nil)

// NewCameraClient creates a client for the capture sidecar.
func NewCameraClient(baseURL string, timeout time.Duration) *CameraClient {
	if baseURL == "" {
		baseURL = defaultCameraURL
	}
	return &CameraClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// CaptureFrame grabs the current frame as JPEG bytes.
func (c *CameraClient) CaptureFrame(ctx context.Context) (Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/capture", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("capture request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("capture error (status %d): %s", resp.StatusCode, string(body))
	}
	if len(body) == 0 {
		return nil, errors.New("empty frame returned")
	}
	return Frame(body), nil
}

// postFrame posts a frame as a multipart form to the given endpoint.
func (c *CameraClient) postFrame(ctx context.Context, endpoint string, frame Frame, extra map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "frame.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(frame); err != nil {
		return nil, fmt.Errorf("failed to write frame data: %w", err)
	}
	for key, value := range extra {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sidecar error (status %d): %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// detectResponse is the sidecar's face detection payload.
type detectResponse struct {
	FacesCount int          `json:"faces_count"`
	Faces      []FaceRegion `json:"faces"`
}

// DetectFaces returns the face regions found in the frame. An empty
// slice is a valid result.
func (c *CameraClient) DetectFaces(ctx context.Context, frame Frame) ([]FaceRegion, error) {
	body, err := c.postFrame(ctx, "/faces/detect", frame, nil)
	if err != nil {
		return nil, err
	}

	var detResp detectResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return detResp.Faces, nil
}

// encodeResponse is the sidecar's face encoding payload.
type encodeResponse struct {
	Dim       int       `json:"dim"`
	Embedding []float64 `json:"embedding"`
}

// EncodeFace computes the embedding for one detected region.
func (c *CameraClient) EncodeFace(ctx context.Context, frame Frame, region FaceRegion) (biometric.Embedding, error) {
	bbox, err := json.Marshal(region.BBox)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal bbox: %w", err)
	}
	body, err := c.postFrame(ctx, "/faces/encode", frame, map[string]string{"bbox": string(bbox)})
	if err != nil {
		return nil, err
	}

	var encResp encodeResponse
	if err := json.Unmarshal(body, &encResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(encResp.Embedding) == 0 {
		return nil, errors.New("empty embedding returned")
	}
	return biometric.Embedding(encResp.Embedding), nil
}
