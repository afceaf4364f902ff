// Package detector provides the hand landmark model and the detectors that produce it.
package detector

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D is a landmark in normalized image space. X and Y are in [0,1]
// relative to the frame, Z is depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Finite reports whether all coordinates are finite numbers.
func (p Point3D) Finite() bool {
	return !isBad(p.X) && !isBad(p.Y) && !isBad(p.Z)
}

func isBad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// HandLandmarks is one detected hand. A well-formed hand carries exactly
// NumLandmarks points; anything else is kept as-is so callers can reject it.
type HandLandmarks struct {
	Points     []Point3D `json:"landmarks"`
	Handedness string    `json:"handedness"` // "Left" or "Right"
	Score      float64   `json:"confidence"`
}

// Valid reports whether the hand has exactly 21 finite points.
func (h *HandLandmarks) Valid() bool {
	if h == nil || len(h.Points) != NumLandmarks {
		return false
	}
	for _, p := range h.Points {
		if !p.Finite() {
			return false
		}
	}
	return true
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
