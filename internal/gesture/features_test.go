package gesture

import (
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

// rotate turns every landmark around the wrist in the image plane.
func rotate(h detector.HandLandmarks, degrees float64) detector.HandLandmarks {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	w := h.Points[detector.Wrist]

	out := h
	out.Points = make([]detector.Point3D, len(h.Points))
	for i, p := range h.Points {
		dx, dy := p.X-w.X, p.Y-w.Y
		out.Points[i] = detector.Point3D{
			X: w.X + dx*cos - dy*sin,
			Y: w.Y + dx*sin + dy*cos,
			Z: p.Z,
		}
	}
	return out
}

func TestExtract(t *testing.T) {
	t.Run("open palm extends every finger", func(t *testing.T) {
		hand := detector.OpenPalmLandmarks()
		fv := Extract(&hand)

		if !fv.Reliable {
			t.Fatal("expected reliable vector")
		}
		for f := Thumb; f < NumFingers; f++ {
			if !fv.Extended(f) {
				t.Errorf("expected %s extended, got %s", f, fv.Fingers[f])
			}
		}
		if fv.ExtendedCount() != 5 {
			t.Errorf("expected 5 extended, got %d", fv.ExtendedCount())
		}
		if fv.Thumb != ThumbSide {
			t.Errorf("expected thumb side, got %s", fv.Thumb)
		}
		if fv.ThumbIndexTouching {
			t.Error("expected thumb and index apart")
		}
	})

	t.Run("all flexed yields all false", func(t *testing.T) {
		hand := detector.FistLandmarks()
		fv := Extract(&hand)

		for f := Thumb; f < NumFingers; f++ {
			if fv.Extended(f) {
				t.Errorf("expected %s not extended", f)
			}
		}
		if fv.ExtendedCount() != 0 {
			t.Errorf("expected 0 extended, got %d", fv.ExtendedCount())
		}
		if fv.ThumbIndexTouching {
			t.Error("expected thumb and index apart")
		}
	})

	t.Run("thumbs up", func(t *testing.T) {
		hand := detector.ThumbsUpLandmarks()
		fv := Extract(&hand)

		if !fv.Extended(Thumb) {
			t.Error("expected thumb extended")
		}
		if fv.Thumb != ThumbUp {
			t.Errorf("expected thumb up, got %s", fv.Thumb)
		}
		if fv.ExtendedCount() != 1 {
			t.Errorf("expected only the thumb extended, got %v", fv.Fingers)
		}
	})

	t.Run("thumb direction", func(t *testing.T) {
		tests := []struct {
			aim  detector.ThumbAim
			want ThumbDirection
		}{
			{detector.AimUp, ThumbUp},
			{detector.AimDown, ThumbDown},
			{detector.AimSide, ThumbSide},
		}
		for _, tt := range tests {
			hand := detector.PoseLandmarks(detector.Pose{Digits: [5]detector.Digit{detector.Straight}, Thumb: tt.aim})
			if got := Extract(&hand).Thumb; got != tt.want {
				t.Errorf("aim %d: expected %s, got %s", tt.aim, tt.want, got)
			}
		}
	})

	t.Run("thumb index touching", func(t *testing.T) {
		hand := detector.OKLandmarks()
		fv := Extract(&hand)
		if !fv.ThumbIndexTouching {
			t.Error("expected thumb and index touching")
		}
	})

	t.Run("hooked fingers are curved", func(t *testing.T) {
		d := detector.Hooked
		hand := detector.PoseLandmarks(detector.Pose{Digits: [5]detector.Digit{d, d, d, d, d}})
		fv := Extract(&hand)
		for f := Thumb; f < NumFingers; f++ {
			if fv.Fingers[f] != Curved {
				t.Errorf("expected %s curved, got %s", f, fv.Fingers[f])
			}
		}
		if fv.ExtendedCount() != 0 {
			t.Errorf("curved fingers must not count as extended, got %d", fv.ExtendedCount())
		}
	})

	t.Run("rotation invariant finger states", func(t *testing.T) {
		poses := map[string]detector.HandLandmarks{
			"open palm": detector.OpenPalmLandmarks(),
			"peace":     detector.PeaceLandmarks(),
			"fist":      detector.FistLandmarks(),
		}
		for name, hand := range poses {
			want := Extract(&hand).Fingers
			for _, deg := range []float64{45, 90, 180, 270} {
				rotated := rotate(hand, deg)
				if got := Extract(&rotated).Fingers; got != want {
					t.Errorf("%s rotated %v°: expected %v, got %v", name, deg, want, got)
				}
			}
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		hand := detector.PeaceLandmarks()
		if Extract(&hand) != Extract(&hand) {
			t.Error("expected identical vectors for identical input")
		}
	})
}

func TestExtract_Malformed(t *testing.T) {
	nanHand := detector.OpenPalmLandmarks()
	nanHand.Points[detector.MiddleTip].X = math.NaN()

	infHand := detector.OpenPalmLandmarks()
	infHand.Points[detector.ThumbTip].Y = math.Inf(1)

	short := detector.OpenPalmLandmarks()
	short.Points = short.Points[:20]

	tests := []struct {
		name string
		hand *detector.HandLandmarks
	}{
		{"nil", nil},
		{"empty", &detector.HandLandmarks{}},
		{"twenty points", &short},
		{"NaN coordinate", &nanHand},
		{"infinite coordinate", &infHand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := Extract(tt.hand)
			if fv != Neutral() {
				t.Errorf("expected neutral vector, got %+v", fv)
			}
			if fv.Reliable {
				t.Error("expected unreliable vector")
			}
			if _, ok := NewMatcher(DefaultDictionary()).Match(fv); ok {
				t.Error("expected no match for malformed input")
			}
		})
	}
}

func TestFingerState_Text(t *testing.T) {
	for _, s := range []FingerState{Flexed, Extended, Curved, Touching} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("marshal %d: %v", s, err)
		}
		var got FingerState
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("unmarshal %q: %v", text, err)
		}
		if got != s {
			t.Errorf("expected %s, got %s", s, got)
		}
	}

	var s FingerState
	if err := s.UnmarshalText([]byte("circle")); err == nil {
		t.Error("expected error for unknown state")
	}
}
