package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Movement is the coarse direction a hand moved between two frames. It is
// diagnostic only and never feeds recognition.
type Movement string

const (
	MovementNone       Movement = ""
	MovementStationary Movement = "stationary"
	MovementLeft       Movement = "left"
	MovementRight      Movement = "right"
	MovementUp         Movement = "up"
	MovementDown       Movement = "down"
)

// DefaultMovementThreshold is the palm displacement, in normalized units,
// below which a hand counts as stationary.
const DefaultMovementThreshold = 0.02

var palmLandmarks = [...]int{detector.Wrist, detector.IndexMCP, detector.MiddleMCP, detector.RingMCP, detector.PinkyMCP}

// PalmCenter averages the wrist and the four finger MCP joints.
func PalmCenter(hand *detector.HandLandmarks) (detector.Point3D, bool) {
	if !hand.Valid() {
		return detector.Point3D{}, false
	}
	var c detector.Point3D
	for _, i := range palmLandmarks {
		c.X += hand.Points[i].X
		c.Y += hand.Points[i].Y
		c.Z += hand.Points[i].Z
	}
	n := float64(len(palmLandmarks))
	return detector.Point3D{X: c.X / n, Y: c.Y / n, Z: c.Z / n}, true
}

// PalmNormal returns the unit normal of the plane through the wrist, index
// MCP and pinky MCP. A degenerate palm returns false.
func PalmNormal(hand *detector.HandLandmarks) (detector.Point3D, bool) {
	if !hand.Valid() {
		return detector.Point3D{}, false
	}
	w := hand.Points[detector.Wrist]
	a := sub(hand.Points[detector.IndexMCP], w)
	b := sub(hand.Points[detector.PinkyMCP], w)

	n := detector.Point3D{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
	length := math.Sqrt(n.X*n.X + n.Y*n.Y + n.Z*n.Z)
	if length < 1e-12 {
		return detector.Point3D{}, false
	}
	return detector.Point3D{X: n.X / length, Y: n.Y / length, Z: n.Z / length}, true
}

// Angle returns the signed angle in degrees at b between the image-plane
// vectors b->a and b->c.
func Angle(a, b, c detector.Point3D) float64 {
	v1x, v1y := a.X-b.X, a.Y-b.Y
	v2x, v2y := c.X-b.X, c.Y-b.Y
	dot := v1x*v2x + v1y*v2y
	cross := v1x*v2y - v1y*v2x
	return math.Atan2(cross, dot) * 180 / math.Pi
}

// JointAngles returns, per finger, the angle in degrees at the middle joint
// between the base and the tip. A straight finger is close to 180.
func JointAngles(hand *detector.HandLandmarks) ([NumFingers]float64, bool) {
	var out [NumFingers]float64
	if !hand.Valid() {
		return out, false
	}
	for f, j := range fingerJoints {
		out[f] = math.Abs(Angle(hand.Points[j[0]], hand.Points[j[1]], hand.Points[j[2]]))
	}
	return out, true
}

// IsHandOpen reports whether at least four fingers are extended.
func IsHandOpen(fv FeatureVector) bool {
	return fv.ExtendedCount() >= 4
}

// DetectMovement compares palm centers across two frames. It returns
// MovementNone when either hand is missing or malformed.
func DetectMovement(prev, cur *detector.HandLandmarks, threshold float64) Movement {
	p, ok := PalmCenter(prev)
	if !ok {
		return MovementNone
	}
	c, ok := PalmCenter(cur)
	if !ok {
		return MovementNone
	}

	dx, dy := c.X-p.X, c.Y-p.Y
	switch {
	case math.Abs(dx) < threshold && math.Abs(dy) < threshold:
		return MovementStationary
	case math.Abs(dx) > math.Abs(dy):
		if dx > 0 {
			return MovementRight
		}
		return MovementLeft
	case dy > 0:
		return MovementDown
	default:
		return MovementUp
	}
}

func sub(a, b detector.Point3D) detector.Point3D {
	return detector.Point3D{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}
