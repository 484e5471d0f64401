package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/shelfgate/shelfgate/internal/hardware"
)

// videoFrameInterval paces the preview stream. The console preview
// does not need full frame rate and the camera is shared with the
// running session.
const videoFrameInterval = 200 * time.Millisecond

// VideoHandler streams the camera preview as MJPEG.
type VideoHandler struct {
	camera hardware.Camera
}

// NewVideoHandler creates a new video handler.
func NewVideoHandler(camera hardware.Camera) *VideoHandler {
	return &VideoHandler{camera: camera}
}

// Stream handles GET /video. It writes a multipart/x-mixed-replace
// stream of JPEG frames until the client disconnects.
func (h *VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")

	ctx := r.Context()
	ticker := time.NewTicker(videoFrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		frame, err := h.camera.CaptureFrame(ctx)
		if err != nil {
			// Skip the frame; the camera may be busy with a capture.
			continue
		}
		if _, err := fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", len(frame)); err != nil {
			return
		}
		if _, err := w.Write(frame); err != nil {
			return
		}
		if _, err := fmt.Fprint(w, "\r\n"); err != nil {
			log.Printf("Video stream write failed: %v", err)
			return
		}
		flusher.Flush()
	}
}
