// Package hardware defines the station's capability ports: the RFID
// tag reader and the camera/biometric capture sidecar. The core
// consumes these interfaces; the physical drivers live outside the
// process and are reached over local HTTP bridges.
package hardware

import (
	"context"
	"errors"

	"github.com/shelfgate/shelfgate/internal/biometric"
)

// ErrReadTimeout means the tag reader saw no tag within its wait budget.
var ErrReadTimeout = errors.New("tag read timed out")

// TagReader reads and writes the short-range tag bound to an asset.
type TagReader interface {
	// Read blocks until a tag is presented or the wait budget runs
	// out, returning ErrReadTimeout on silence.
	Read(ctx context.Context) (string, error)

	// Write stores a payload on the currently presented tag.
	Write(ctx context.Context, tagID, payload string) error
}

// Frame is a single captured camera frame as encoded JPEG bytes.
type Frame []byte

// FaceRegion is a detected face's bounding box in frame pixels.
// Zero or more than one region per frame is a defined outcome the
// caller must branch on, not an error.
type FaceRegion struct {
	Index int       `json:"face_index"`
	BBox  []float64 `json:"bbox"` // [x1, y1, x2, y2]
	Score float64   `json:"det_score"`
}

// Camera captures frames and exposes the face detection/encoding
// capability of the biometric sidecar.
type Camera interface {
	CaptureFrame(ctx context.Context) (Frame, error)
	DetectFaces(ctx context.Context, frame Frame) ([]FaceRegion, error)
	EncodeFace(ctx context.Context, frame Frame, region FaceRegion) (biometric.Embedding, error)
}
