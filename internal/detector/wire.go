package detector

import (
	"encoding/json"
	"fmt"
	"time"
)

// Frame is the JSON message carrying one frame of tracked hands. The tracker
// subprocess writes one per line and WebSocket clients send one per message:
//
//	{"hands":[{"handedness":"Right","confidence":0.9,"landmarks":[{"x":..,"y":..,"z":..}]}],"timestamp":1700000000000}
type Frame struct {
	Hands []HandLandmarks `json:"hands"`

	// Timestamp is the capture time in Unix milliseconds. Zero means unset.
	Timestamp int64 `json:"timestamp,omitempty"`
}

// DecodeFrame parses a frame message. Hands with the wrong number of points
// are kept so recognition can treat them as malformed.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}
	return f, nil
}

// Time returns the frame timestamp, or fallback when the frame carries none.
func (f Frame) Time(fallback time.Time) time.Time {
	if f.Timestamp <= 0 {
		return fallback
	}
	return time.UnixMilli(f.Timestamp)
}
