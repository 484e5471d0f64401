package hardware

import (
	"context"
	"sync"

	"github.com/shelfgate/shelfgate/internal/biometric"
)

// SimReader is an in-process TagReader for development mode and tests.
// Queued tags are consumed in order; when the queue is empty the
// DefaultTag is served, or ErrReadTimeout if none is set.
type SimReader struct {
	mu         sync.Mutex
	tags       []string
	writes     []SimWrite
	DefaultTag string
	ReadErr    error
	WriteErr   error
}

// SimWrite records one Write call for assertions.
type SimWrite struct {
	TagID   string
	Payload string
}

var _ TagReader = (*SimReader)(nil)

// QueueTag appends a tag to be served by the next Read.
func (r *SimReader) QueueTag(tagID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, tagID)
}

// Writes returns the recorded Write calls.
func (r *SimReader) Writes() []SimWrite {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SimWrite(nil), r.writes...)
}

func (r *SimReader) Read(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ReadErr != nil {
		return "", r.ReadErr
	}
	if len(r.tags) > 0 {
		tag := r.tags[0]
		r.tags = r.tags[1:]
		return tag, nil
	}
	if r.DefaultTag != "" {
		return r.DefaultTag, nil
	}
	return "", ErrReadTimeout
}

func (r *SimReader) Write(ctx context.Context, tagID, payload string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.WriteErr != nil {
		return r.WriteErr
	}
	r.writes = append(r.writes, SimWrite{TagID: tagID, Payload: payload})
	return nil
}

// SimScene scripts what the camera sees for one capture.
type SimScene struct {
	Regions   []FaceRegion
	Embedding biometric.Embedding
	EncodeErr error
}

// OneFaceScene builds a scene with a single detected face carrying
// the given embedding.
func OneFaceScene(e biometric.Embedding) SimScene {
	return SimScene{
		Regions:   []FaceRegion{{Index: 0, BBox: []float64{120, 80, 360, 320}, Score: 0.99}},
		Embedding: e,
	}
}

// simFrame is a minimal JPEG so consumers treating frames as image
// bytes see a plausible payload.
var simFrame = Frame{0xFF, 0xD8, 0xFF, 0xDB, 0x00, 0x43, 0x00, 0xFF, 0xD9}

// SimCamera is an in-process Camera. Queued scenes are consumed one
// per CaptureFrame; when the queue is empty the Default scene is
// reused, so development mode always sees the same face.
type SimCamera struct {
	mu         sync.Mutex
	scenes     []SimScene
	current    SimScene
	Default    *SimScene
	CaptureErr error
	DetectErr  error
}

var _ Camera = (*SimCamera)(nil)

// QueueScene appends a scene for the next capture.
func (c *SimCamera) QueueScene(scene SimScene) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenes = append(c.scenes, scene)
}

func (c *SimCamera) CaptureFrame(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CaptureErr != nil {
		return nil, c.CaptureErr
	}
	switch {
	case len(c.scenes) > 0:
		c.current = c.scenes[0]
		c.scenes = c.scenes[1:]
	case c.Default != nil:
		c.current = *c.Default
	default:
		c.current = SimScene{} // empty frame, no faces
	}
	return simFrame, nil
}

func (c *SimCamera) DetectFaces(ctx context.Context, _ Frame) ([]FaceRegion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.DetectErr != nil {
		return nil, c.DetectErr
	}
	return c.current.Regions, nil
}

func (c *SimCamera) EncodeFace(ctx context.Context, _ Frame, _ FaceRegion) (biometric.Embedding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current.EncodeErr != nil {
		return nil, c.current.EncodeErr
	}
	return c.current.Embedding, nil
}
