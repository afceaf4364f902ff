package detector

import (
	"math"
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Digit is the shape of one finger in a synthetic Pose.
type Digit int

const (
	Folded Digit = iota
	Straight
	Hooked
)

// ThumbAim is where an extended thumb points in a synthetic Pose.
type ThumbAim int

const (
	AimSide ThumbAim = iota
	AimUp
	AimDown
)

// Pose describes a synthetic hand. Digits are ordered thumb, index,
// middle, ring, pinky. Pinch puts the index tip on the thumb tip.
type Pose struct {
	Digits [5]Digit
	Thumb  ThumbAim
	Pinch  bool
}

var (
	poseWrist = Point3D{X: 0.5, Y: 0.8}

	// finger rays in the image plane, index to pinky, pointing up
	fingerRays = [4][2]float64{{0.15, -1}, {0, -1}, {-0.15, -1}, {-0.3, -1}}
)

// PoseLandmarks builds a right hand matching p. Every joint lies on a ray
// from the wrist, so radial distances are exact: straight fingers grow
// monotonically, hooked tips end between MCP and PIP, folded tips end
// inside the MCP radius.
func PoseLandmarks(p Pose) HandLandmarks {
	hand := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}
	hand.Points[Wrist] = poseWrist

	thumbRay := [2]float64{1, -0.3}
	switch p.Thumb {
	case AimUp:
		thumbRay = [2]float64{0, -1}
	case AimDown:
		thumbRay = [2]float64{0, 1}
	}
	thumb := placeDigit(thumbRay, p.Digits[0], 0.03)
	hand.Points[ThumbCMC] = along(thumbRay, 0.05, 0)
	hand.Points[ThumbMCP] = thumb[0]
	hand.Points[ThumbIP] = thumb[1]
	hand.Points[ThumbTip] = thumb[3]

	for i, ray := range fingerRays {
		joints := placeDigit(ray, p.Digits[i+1], -0.03)
		copy(hand.Points[IndexMCP+i*4:], joints[:])
	}

	if p.Pinch {
		tip := hand.Points[ThumbTip]
		hand.Points[IndexTip] = Point3D{X: tip.X + 0.01, Y: tip.Y + 0.01, Z: tip.Z}
	}
	return hand
}

// placeDigit returns MCP, PIP, DIP and tip along ray. The thumb uses the
// same radii for MCP, IP and tip. depth is the z offset applied to bent
// joints so thumb and index tips stay apart when folded.
func placeDigit(ray [2]float64, d Digit, depth float64) [4]Point3D {
	var joints [4]Point3D
	switch d {
	case Straight:
		joints[0] = along(ray, 0.10, 0)
		joints[1] = along(ray, 0.17, 0)
		joints[2] = along(ray, 0.23, 0)
		joints[3] = along(ray, 0.29, 0)
	case Hooked:
		joints[0] = along(ray, 0.10, 0)
		joints[1] = along(ray, 0.16, 0)
		joints[2] = along(ray, 0.17, depth)
		joints[3] = along(ray, 0.12, 5*depth/3)
	default:
		joints[0] = along(ray, 0.10, 0)
		joints[1] = along(ray, 0.14, depth/2)
		joints[2] = along(ray, 0.10, 5*depth/3)
		joints[3] = along(ray, 0.06, depth)
	}
	return joints
}

func along(ray [2]float64, r, z float64) Point3D {
	n := math.Hypot(ray[0], ray[1])
	return Point3D{
		X: poseWrist.X + ray[0]/n*r,
		Y: poseWrist.Y + ray[1]/n*r,
		Z: z,
	}
}

// FistLandmarks returns a closed fist.
func FistLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{})
}

// PointingLandmarks returns a hand with only the index finger extended.
func PointingLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{Digits: [5]Digit{Folded, Straight, Folded, Folded, Folded}})
}

// PeaceLandmarks returns a hand with index and middle fingers extended.
func PeaceLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{Digits: [5]Digit{Folded, Straight, Straight, Folded, Folded}})
}

// OKLandmarks returns a thumb-index circle with the other three fingers extended.
func OKLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{
		Digits: [5]Digit{Folded, Folded, Straight, Straight, Straight},
		Pinch:  true,
	})
}

// ThumbsDownLandmarks returns a fist with the thumb extended downward.
func ThumbsDownLandmarks() HandLandmarks {
	return PoseLandmarks(Pose{Digits: [5]Digit{Straight}, Thumb: AimDown})
}

// ThumbsUpLandmarks returns a preset HandLandmarks representing a thumbs up gesture.
// The thumb is extended upward while other fingers are curled.
func ThumbsUpLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended upward (pointing up, Y decreases going up)
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.65, Z: 0.0}
	landmarks.Points[ThumbIP] = Point3D{X: 0.58, Y: 0.50, Z: 0.0}
	landmarks.Points[ThumbTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	// Index finger curled (tip back inside the knuckle radius)
	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.70, Z: -0.02}
	landmarks.Points[IndexPIP] = Point3D{X: 0.55, Y: 0.68, Z: -0.05}
	landmarks.Points[IndexDIP] = Point3D{X: 0.52, Y: 0.70, Z: -0.04}
	landmarks.Points[IndexTip] = Point3D{X: 0.50, Y: 0.72, Z: -0.02}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.68, Z: -0.02}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.66, Z: -0.05}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.47, Y: 0.68, Z: -0.04}
	landmarks.Points[MiddleTip] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.70, Z: -0.02}
	landmarks.Points[RingPIP] = Point3D{X: 0.45, Y: 0.68, Z: -0.05}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.70, Z: -0.04}
	landmarks.Points[RingTip] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.72, Z: -0.02}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.40, Y: 0.70, Z: -0.05}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.40, Y: 0.74, Z: -0.04}
	landmarks.Points[PinkyTip] = Point3D{X: 0.42, Y: 0.76, Z: -0.02}

	return landmarks
}

// OpenPalmLandmarks returns a preset HandLandmarks representing an open palm gesture.
// All fingers are extended outward.
func OpenPalmLandmarks() HandLandmarks {
	landmarks := HandLandmarks{
		Points:     make([]Point3D, NumLandmarks),
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	// Thumb extended to the side
	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.02}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.62, Y: 0.70, Z: 0.03}
	landmarks.Points[ThumbIP] = Point3D{X: 0.68, Y: 0.65, Z: 0.03}
	landmarks.Points[ThumbTip] = Point3D{X: 0.73, Y: 0.60, Z: 0.03}

	landmarks.Points[IndexMCP] = Point3D{X: 0.55, Y: 0.68, Z: 0.0}
	landmarks.Points[IndexPIP] = Point3D{X: 0.57, Y: 0.55, Z: 0.0}
	landmarks.Points[IndexDIP] = Point3D{X: 0.58, Y: 0.45, Z: 0.0}
	landmarks.Points[IndexTip] = Point3D{X: 0.58, Y: 0.35, Z: 0.0}

	landmarks.Points[MiddleMCP] = Point3D{X: 0.50, Y: 0.66, Z: 0.0}
	landmarks.Points[MiddlePIP] = Point3D{X: 0.50, Y: 0.52, Z: 0.0}
	landmarks.Points[MiddleDIP] = Point3D{X: 0.50, Y: 0.40, Z: 0.0}
	landmarks.Points[MiddleTip] = Point3D{X: 0.50, Y: 0.28, Z: 0.0}

	landmarks.Points[RingMCP] = Point3D{X: 0.45, Y: 0.68, Z: 0.0}
	landmarks.Points[RingPIP] = Point3D{X: 0.43, Y: 0.55, Z: 0.0}
	landmarks.Points[RingDIP] = Point3D{X: 0.42, Y: 0.45, Z: 0.0}
	landmarks.Points[RingTip] = Point3D{X: 0.42, Y: 0.35, Z: 0.0}

	landmarks.Points[PinkyMCP] = Point3D{X: 0.40, Y: 0.70, Z: 0.0}
	landmarks.Points[PinkyPIP] = Point3D{X: 0.37, Y: 0.60, Z: 0.0}
	landmarks.Points[PinkyDIP] = Point3D{X: 0.35, Y: 0.50, Z: 0.0}
	landmarks.Points[PinkyTip] = Point3D{X: 0.34, Y: 0.42, Z: 0.0}

	return landmarks
}
