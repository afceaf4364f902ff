package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
)

// previewInterval paces the MJPEG stream at roughly 15 frames per second.
const previewInterval = 66 * time.Millisecond

// PreviewHandler serves the camera as an MJPEG stream.
type PreviewHandler struct {
	camera capture.Camera
	logger *slog.Logger
}

// NewPreviewHandler creates a PreviewHandler over camera.
func NewPreviewHandler(camera capture.Camera, logger *slog.Logger) *PreviewHandler {
	return &PreviewHandler{camera: camera, logger: logger}
}

// ServeHTTP streams JPEG frames until the client goes away.
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !h.camera.IsOpen() {
		http.Error(w, "camera is not running", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, _ := w.(http.Flusher)

	ticker := time.NewTicker(previewInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		frame, err := h.camera.ReadFrame()
		if err != nil {
			continue
		}
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
		frame.Close()
		if err != nil {
			h.logger.Debug("preview encode failed", "error", err)
			continue
		}

		_, err = fmt.Fprintf(w, "--frame\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\n\r\n", buf.Len())
		if err == nil {
			_, err = w.Write(buf.GetBytes())
		}
		if err == nil {
			_, err = fmt.Fprint(w, "\r\n")
		}
		buf.Close()
		if err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
