// Package gesture turns hand landmarks into debounced sign events.
//
// The pipeline runs once per frame: Extract builds a FeatureVector from the
// first hand, a Matcher scores it against a Dictionary of static signs, a
// Stabilizer debounces the best match over time and a SequenceBuffer keeps
// the recent confirmations. Recognizer wires the four together.
package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/detector"
)

const (
	// TouchThreshold is the thumb tip to index tip distance, in normalized
	// units, below which the two fingers are considered touching.
	TouchThreshold = 0.05

	// ThumbDirectionThreshold is the vertical offset between thumb MCP and
	// tip beyond which the thumb points up or down.
	ThumbDirectionThreshold = 0.1
)

// Finger identifies one of the five fingers.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	NumFingers
)

var fingerNames = [NumFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || f >= NumFingers {
		return fmt.Sprintf("finger(%d)", int(f))
	}
	return fingerNames[f]
}

// fingerJoints lists the base, middle and tip landmark for each finger.
// The thumb uses MCP, IP and tip.
var fingerJoints = [NumFingers][3]int{
	{detector.ThumbMCP, detector.ThumbIP, detector.ThumbTip},
	{detector.IndexMCP, detector.IndexPIP, detector.IndexTip},
	{detector.MiddleMCP, detector.MiddlePIP, detector.MiddleTip},
	{detector.RingMCP, detector.RingPIP, detector.RingTip},
	{detector.PinkyMCP, detector.PinkyPIP, detector.PinkyTip},
}

// FingerState is the observed or expected shape of one finger.
type FingerState int

const (
	Flexed FingerState = iota
	Extended
	Curved
	// Touching is only used in rules. It marks the thumb or index finger
	// as closing a thumb-index circle.
	Touching
)

var fingerStateNames = map[FingerState]string{
	Flexed:   "flexed",
	Extended: "extended",
	Curved:   "curved",
	Touching: "touching",
}

func (s FingerState) String() string {
	if name, ok := fingerStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("finger_state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s FingerState) MarshalText() ([]byte, error) {
	name, ok := fingerStateNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown finger state %d", int(s))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *FingerState) UnmarshalText(text []byte) error {
	for state, name := range fingerStateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown finger state %q", text)
}

// ThumbDirection is the coarse vertical direction of the thumb.
type ThumbDirection string

const (
	ThumbUp   ThumbDirection = "up"
	ThumbDown ThumbDirection = "down"
	ThumbSide ThumbDirection = "side"
)

// FeatureVector is the per-frame descriptor of one hand. It is a pure
// function of the landmarks and is never cached across frames.
type FeatureVector struct {
	Fingers            [NumFingers]FingerState `json:"fingers"`
	Thumb              ThumbDirection          `json:"thumb_direction"`
	ThumbIndexTouching bool                    `json:"thumb_index_touching"`

	// Reliable is false for the neutral vector produced from malformed input.
	Reliable bool `json:"reliable"`
}

// Extended reports whether finger f is extended.
func (fv FeatureVector) Extended(f Finger) bool {
	return f >= 0 && f < NumFingers && fv.Fingers[f] == Extended
}

// ExtendedCount returns how many fingers are extended.
func (fv FeatureVector) ExtendedCount() int {
	n := 0
	for _, s := range fv.Fingers {
		if s == Extended {
			n++
		}
	}
	return n
}

// Neutral returns the vector used for malformed input: every finger flexed,
// thumb to the side, nothing touching, not reliable.
func Neutral() FeatureVector {
	return FeatureVector{Thumb: ThumbSide}
}

// Extract computes the feature vector of a hand. A nil hand, a hand with
// other than 21 points or with non-finite coordinates yields Neutral().
//
// A finger is extended when the wrist to tip distance exceeds the wrist to
// PIP distance, which in turn exceeds the wrist to MCP distance. The test is
// radial, so it does not depend on hand rotation.
func Extract(hand *detector.HandLandmarks) FeatureVector {
	if !hand.Valid() {
		return Neutral()
	}

	pts := hand.Points
	wrist := pts[detector.Wrist]

	fv := FeatureVector{Reliable: true}
	for f, joints := range fingerJoints {
		base := detector.Distance(wrist, pts[joints[0]])
		mid := detector.Distance(wrist, pts[joints[1]])
		tip := detector.Distance(wrist, pts[joints[2]])

		switch {
		case tip > mid && mid > base:
			fv.Fingers[f] = Extended
		case tip > base:
			fv.Fingers[f] = Curved
		default:
			fv.Fingers[f] = Flexed
		}
	}

	fv.ThumbIndexTouching = detector.Distance(pts[detector.ThumbTip], pts[detector.IndexTip]) < TouchThreshold

	dy := pts[detector.ThumbMCP].Y - pts[detector.ThumbTip].Y
	switch {
	case dy > ThumbDirectionThreshold:
		fv.Thumb = ThumbUp
	case dy < -ThumbDirectionThreshold:
		fv.Thumb = ThumbDown
	default:
		fv.Thumb = ThumbSide
	}

	return fv
}
