package gesture

import (
	"math"
	"testing"

	"github.com/ayusman/mudra/internal/detector"
)

func vector(thumb ThumbDirection, touching bool, states ...FingerState) FeatureVector {
	return FeatureVector{Fingers: fingers(states...), Thumb: thumb, ThumbIndexTouching: touching, Reliable: true}
}

// exemplar builds landmarks that satisfy rule exactly.
func exemplar(rule SignRule) detector.HandLandmarks {
	var pose detector.Pose
	for f, s := range rule.Fingers {
		switch s {
		case Extended:
			pose.Digits[f] = detector.Straight
		case Curved:
			pose.Digits[f] = detector.Hooked
		case Touching:
			pose.Pinch = true
		}
	}
	for _, p := range rule.Predicates {
		if p == PredicateThumbIndexTouching {
			pose.Pinch = true
		}
	}
	switch rule.ThumbDirection {
	case ThumbUp:
		pose.Thumb = detector.AimUp
	case ThumbDown:
		pose.Thumb = detector.AimDown
	}
	return detector.PoseLandmarks(pose)
}

func TestMatcher_Exemplars(t *testing.T) {
	dict := DefaultDictionary()
	m := NewMatcher(dict)

	for _, rule := range dict {
		t.Run(rule.Key, func(t *testing.T) {
			hand := exemplar(rule)
			fv := Extract(&hand)

			if got := Score(rule, fv); got != 1.0 {
				t.Errorf("expected exemplar score 1.0, got %f (fingers %v, thumb %s, touching %v)",
					got, fv.Fingers, fv.Thumb, fv.ThumbIndexTouching)
			}

			match, ok := m.Match(fv)
			if !ok {
				t.Fatal("expected a match")
			}
			if match.Key != rule.Key {
				t.Errorf("expected %s to win, got %s", rule.Key, match.Key)
			}
			if match.Text != rule.Text {
				t.Errorf("expected text %q, got %q", rule.Text, match.Text)
			}
		})
	}
}

func TestMatcher_Fixtures(t *testing.T) {
	m := NewMatcher(DefaultDictionary())

	tests := []struct {
		name string
		hand detector.HandLandmarks
		want string
	}{
		{"open palm", detector.OpenPalmLandmarks(), "open_hand"},
		{"thumbs up", detector.ThumbsUpLandmarks(), "thumbs_up"},
		{"thumbs down", detector.ThumbsDownLandmarks(), "thumbs_down"},
		{"fist", detector.FistLandmarks(), "fist"},
		{"pointing", detector.PointingLandmarks(), "pointing"},
		{"peace", detector.PeaceLandmarks(), "peace"},
		{"ok", detector.OKLandmarks(), "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := Extract(&tt.hand)
			match, ok := m.Match(fv)
			if !ok {
				t.Fatalf("expected %s, got no match (fingers %v)", tt.want, fv.Fingers)
			}
			if match.Key != tt.want {
				t.Errorf("expected %s, got %s", tt.want, match.Key)
			}
		})
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		rule SignRule
		fv   FeatureVector
		want float64
	}{
		{
			name: "one finger off",
			rule: SignRule{Fingers: fingers(Extended, Extended, Extended, Extended, Extended)},
			fv:   vector(ThumbSide, false, Flexed, Extended, Extended, Extended, Extended),
			want: 0.8,
		},
		{
			name: "flexed expectation accepts curved",
			rule: SignRule{Fingers: fingers(Flexed, Flexed, Flexed, Flexed, Flexed)},
			fv:   vector(ThumbSide, false, Curved, Flexed, Curved, Flexed, Flexed),
			want: 1.0,
		},
		{
			name: "curved expectation rejects flexed",
			rule: SignRule{Fingers: fingers(Curved, Curved, Curved, Curved, Curved)},
			fv:   vector(ThumbSide, false, Curved, Flexed, Curved, Curved, Curved),
			want: 0.8,
		},
		{
			name: "wrong thumb direction halves",
			rule: SignRule{Fingers: fingers(Extended), ThumbDirection: ThumbUp},
			fv:   vector(ThumbDown, false, Extended),
			want: 0.5,
		},
		{
			name: "touching expectation follows the flag",
			rule: SignRule{Fingers: fingers(Touching, Touching, Extended, Extended, Extended)},
			fv:   vector(ThumbSide, false, Flexed, Flexed, Extended, Extended, Extended),
			want: 0.6,
		},
		{
			name: "unsatisfied predicate",
			rule: SignRule{
				Fingers:    fingers(Extended, Extended, Extended, Extended, Extended),
				Predicates: []Predicate{PredicateThumbIndexTouching},
			},
			fv:   vector(ThumbSide, false, Extended, Extended, Extended, Extended, Extended),
			want: 0.3,
		},
		{
			name: "satisfied predicate",
			rule: SignRule{
				Fingers:    fingers(Touching, Touching, Extended, Extended, Extended),
				Predicates: []Predicate{PredicateThumbIndexTouching},
			},
			fv:   vector(ThumbSide, true, Flexed, Flexed, Extended, Extended, Extended),
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.rule, tt.fv); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}

func TestMatcher_Threshold(t *testing.T) {
	rule := SignRule{Key: "open_hand", Fingers: fingers(Extended, Extended, Extended, Extended, Extended), MinConfidence: 0.8}
	m := NewMatcher(Dictionary{rule})

	t.Run("equal to threshold does not qualify", func(t *testing.T) {
		fv := vector(ThumbSide, false, Flexed, Extended, Extended, Extended, Extended)
		if _, ok := m.Match(fv); ok {
			t.Error("expected no match at exactly the threshold")
		}
	})

	t.Run("above threshold qualifies", func(t *testing.T) {
		fv := vector(ThumbSide, false, Extended, Extended, Extended, Extended, Extended)
		match, ok := m.Match(fv)
		if !ok || match.Confidence != 1.0 {
			t.Errorf("expected match with confidence 1.0, got %+v %v", match, ok)
		}
	})

	t.Run("lower threshold accepts partial", func(t *testing.T) {
		loose := rule
		loose.MinConfidence = 0.7
		fv := vector(ThumbSide, false, Flexed, Extended, Extended, Extended, Extended)
		match, ok := NewMatcher(Dictionary{loose}).Match(fv)
		if !ok || math.Abs(match.Confidence-0.8) > 1e-9 {
			t.Errorf("expected match with confidence 0.8, got %+v %v", match, ok)
		}
	})

	t.Run("unreliable never matches", func(t *testing.T) {
		fv := vector(ThumbSide, false, Extended, Extended, Extended, Extended, Extended)
		fv.Reliable = false
		if _, ok := m.Match(fv); ok {
			t.Error("expected no match for unreliable vector")
		}
	})
}

func TestMatcher_TieBreak(t *testing.T) {
	all := fingers(Extended, Extended, Extended, Extended, Extended)
	dict := Dictionary{
		{Key: "open_hand", Text: "Hola", Fingers: all, MinConfidence: 0.5},
		{Key: "five", Text: "5", Fingers: all, MinConfidence: 0.5},
	}
	fv := vector(ThumbSide, false, Extended, Extended, Extended, Extended, Extended)

	match, ok := NewMatcher(dict).Match(fv)
	if !ok || match.Key != "open_hand" {
		t.Errorf("expected first rule to win the tie, got %+v", match)
	}

	dict[0], dict[1] = dict[1], dict[0]
	match, _ = NewMatcher(dict).Match(fv)
	if match.Key != "five" {
		t.Errorf("expected order to decide the tie, got %s", match.Key)
	}
}

func TestMatcher_Scores(t *testing.T) {
	dict := DefaultDictionary()
	m := NewMatcher(dict)

	hand := detector.PeaceLandmarks()
	scores := m.Scores(Extract(&hand))
	if len(scores) != len(dict) {
		t.Fatalf("expected %d scores, got %d", len(dict), len(scores))
	}
	for i, s := range scores {
		if s.Key != dict[i].Key {
			t.Errorf("expected dictionary order at %d: %s, got %s", i, dict[i].Key, s.Key)
		}
	}

	if m.Scores(Neutral()) != nil {
		t.Error("expected nil scores for unreliable vector")
	}
}
