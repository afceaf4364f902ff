package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// blurKernel is the Gaussian kernel applied before differencing.
	blurKernel = 21
	// pixelDelta is the per-pixel intensity change counted as motion.
	pixelDelta = 25
	// DefaultLinger keeps the gate open after the last detected motion so a
	// sign held perfectly still is still tracked long enough to confirm.
	DefaultLinger = 2 * time.Second
)

// MotionDetector compares consecutive frames and reports the share of
// pixels that changed.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewMotionDetector returns a detector that fires when more than threshold
// percent of the pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Detect reports whether frame differs from the previous one, and by what
// percentage. The first frame only primes the detector.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !m.primed || m.prev.Rows() != blurred.Rows() || m.prev.Cols() != blurred.Cols() {
		blurred.CopyTo(&m.prev)
		m.primed = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prev, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, pixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(mask)) / float64(mask.Rows()*mask.Cols()) * 100
	blurred.CopyTo(&m.prev)

	return changed > m.threshold, changed
}

// Reset makes the next frame the new baseline.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.primed = false
}

// Close releases the retained frame. The detector can be used again
// afterwards and re-primes on the next frame.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prev.Empty() {
		m.prev.Close()
		m.prev = gocv.NewMat()
	}
	m.primed = false
}

// MotionGate admits frames while the scene is moving and for a linger
// period afterwards. A gate with a non-positive threshold admits everything.
type MotionGate struct {
	detector  *MotionDetector
	linger    time.Duration
	openUntil time.Time
}

// NewMotionGate returns a gate over a MotionDetector with the given
// threshold.
func NewMotionGate(threshold float64, linger time.Duration) *MotionGate {
	g := &MotionGate{linger: linger}
	if threshold > 0 {
		g.detector = NewMotionDetector(threshold)
	}
	return g
}

// Admit reports whether frame, captured at now, should be processed.
func (g *MotionGate) Admit(frame *gocv.Mat, now time.Time) bool {
	if g.detector == nil {
		return true
	}
	if moved, _ := g.detector.Detect(frame); moved {
		g.openUntil = now.Add(g.linger)
		return true
	}
	return now.Before(g.openUntil)
}

// Close releases the underlying detector.
func (g *MotionGate) Close() {
	if g.detector != nil {
		g.detector.Close()
	}
}
