package gesture

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidDictionary is returned when a dictionary fails validation.
var ErrInvalidDictionary = errors.New("invalid dictionary")

// DefaultMinConfidence is the threshold used by the built-in signs. With
// five fingers and a strict comparison only exact matches clear it.
const DefaultMinConfidence = 0.8

// Predicate is a named cross-finger condition a rule can require.
type Predicate string

// PredicateThumbIndexTouching requires the thumb and index tips to touch.
const PredicateThumbIndexTouching Predicate = "thumb_index_touching"

func (p Predicate) holds(fv FeatureVector) bool {
	switch p {
	case PredicateThumbIndexTouching:
		return fv.ThumbIndexTouching
	}
	return false
}

// SignRule describes one static sign.
type SignRule struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Text string `json:"text"`

	Fingers [NumFingers]FingerState `json:"fingers"`

	// ThumbDirection is optional. Empty means any direction.
	ThumbDirection ThumbDirection `json:"thumb_direction,omitempty"`
	Predicates     []Predicate    `json:"predicates,omitempty"`
	MinConfidence  float64        `json:"min_confidence"`
}

// UnmarshalJSON decodes a rule. A fingers array must list every finger;
// when it is absent the current states are kept.
func (r *SignRule) UnmarshalJSON(data []byte) error {
	type plain SignRule
	aux := struct {
		*plain
		Fingers *[]FingerState `json:"fingers"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Fingers == nil {
		return nil
	}
	if n := len(*aux.Fingers); n != NumFingers {
		return fmt.Errorf("%w: %s: want %d finger states, got %d", ErrInvalidDictionary, r.Key, NumFingers, n)
	}
	copy(r.Fingers[:], *aux.Fingers)
	return nil
}

// Validate checks a single rule.
func (r SignRule) Validate() error {
	if r.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidDictionary)
	}
	if r.MinConfidence < 0 || r.MinConfidence > 1 {
		return fmt.Errorf("%w: %s: min confidence %v outside [0,1]", ErrInvalidDictionary, r.Key, r.MinConfidence)
	}
	for f, s := range r.Fingers {
		if _, ok := fingerStateNames[s]; !ok {
			return fmt.Errorf("%w: %s: %s has unknown state %d", ErrInvalidDictionary, r.Key, Finger(f), int(s))
		}
		if s == Touching && Finger(f) != Thumb && Finger(f) != Index {
			return fmt.Errorf("%w: %s: %s cannot be touching", ErrInvalidDictionary, r.Key, Finger(f))
		}
	}
	switch r.ThumbDirection {
	case "", ThumbUp, ThumbDown, ThumbSide:
	default:
		return fmt.Errorf("%w: %s: unknown thumb direction %q", ErrInvalidDictionary, r.Key, r.ThumbDirection)
	}
	for _, p := range r.Predicates {
		if p != PredicateThumbIndexTouching {
			return fmt.Errorf("%w: %s: unknown predicate %q", ErrInvalidDictionary, r.Key, p)
		}
	}
	return nil
}

// Dictionary is an ordered list of rules. Order breaks ties between rules
// with equal confidence: the earlier rule wins.
type Dictionary []SignRule

// Validate checks every rule and rejects empty or duplicate keys.
func (d Dictionary) Validate() error {
	seen := make(map[string]bool, len(d))
	for _, r := range d {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.Key] {
			return fmt.Errorf("%w: duplicate key %q", ErrInvalidDictionary, r.Key)
		}
		seen[r.Key] = true
	}
	return nil
}

// Lookup returns the rule with the given key.
func (d Dictionary) Lookup(key string) (SignRule, bool) {
	for _, r := range d {
		if r.Key == key {
			return r, true
		}
	}
	return SignRule{}, false
}

func fingers(states ...FingerState) [NumFingers]FingerState {
	var out [NumFingers]FingerState
	copy(out[:], states)
	return out
}

// DefaultDictionary returns the built-in signs. letter_c precedes fist
// because a curved hand also satisfies every flexed expectation.
func DefaultDictionary() Dictionary {
	return Dictionary{
		{Key: "open_hand", Name: "Mano abierta", Text: "Hola", Fingers: fingers(Extended, Extended, Extended, Extended, Extended)},
		{Key: "letter_c", Name: "C", Text: "C", Fingers: fingers(Curved, Curved, Curved, Curved, Curved)},
		{Key: "fist", Name: "Puño", Text: "", Fingers: fingers(Flexed, Flexed, Flexed, Flexed, Flexed)},
		{Key: "thumbs_up", Name: "Pulgar arriba", Text: "Bien / De acuerdo", Fingers: fingers(Extended, Flexed, Flexed, Flexed, Flexed), ThumbDirection: ThumbUp},
		{Key: "thumbs_down", Name: "Pulgar abajo", Text: "Mal / No", Fingers: fingers(Extended, Flexed, Flexed, Flexed, Flexed), ThumbDirection: ThumbDown},
		{Key: "pointing", Name: "Señalar", Text: "Esto", Fingers: fingers(Flexed, Extended, Flexed, Flexed, Flexed)},
		{Key: "peace", Name: "Paz", Text: "2", Fingers: fingers(Flexed, Extended, Extended, Flexed, Flexed)},
		{Key: "three", Name: "Tres", Text: "3", Fingers: fingers(Extended, Extended, Extended, Flexed, Flexed)},
		{Key: "four", Name: "Cuatro", Text: "4", Fingers: fingers(Flexed, Extended, Extended, Extended, Extended)},
		{Key: "ok", Name: "OK", Text: "OK / Perfecto", Fingers: fingers(Touching, Touching, Extended, Extended, Extended), Predicates: []Predicate{PredicateThumbIndexTouching}},
		{Key: "phone", Name: "Teléfono", Text: "Llámame", Fingers: fingers(Extended, Flexed, Flexed, Flexed, Extended)},
		{Key: "i_love_you", Name: "Te amo", Text: "Te amo", Fingers: fingers(Extended, Extended, Flexed, Flexed, Extended)},
		{Key: "letter_i", Name: "I", Text: "I", Fingers: fingers(Flexed, Flexed, Flexed, Flexed, Extended)},
		{Key: "letter_l", Name: "L", Text: "L", Fingers: fingers(Extended, Extended, Flexed, Flexed, Flexed)},
		{Key: "letter_w", Name: "W", Text: "W", Fingers: fingers(Flexed, Extended, Extended, Extended, Flexed)},
	}.withMinConfidence(DefaultMinConfidence)
}

func (d Dictionary) withMinConfidence(c float64) Dictionary {
	for i := range d {
		d[i].MinConfidence = c
	}
	return d
}
