package gesture

const (
	thumbDirectionPenalty = 0.5
	predicatePenalty      = 0.3
)

// Match is the best rule for one frame.
type Match struct {
	Key        string  `json:"key"`
	Name       string  `json:"name"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Matcher scores feature vectors against a dictionary. It holds no
// per-frame state.
type Matcher struct {
	dict Dictionary
}

// NewMatcher creates a matcher over dict. The dictionary is not copied and
// must not be modified afterwards.
func NewMatcher(dict Dictionary) *Matcher {
	return &Matcher{dict: dict}
}

// Match returns the rule with the highest confidence that strictly exceeds
// its own MinConfidence. Equal confidences resolve to the earliest rule.
// Unreliable vectors never match.
func (m *Matcher) Match(fv FeatureVector) (Match, bool) {
	if !fv.Reliable {
		return Match{}, false
	}

	var best Match
	found := false
	for _, rule := range m.dict {
		conf := Score(rule, fv)
		if conf <= rule.MinConfidence {
			continue
		}
		if !found || conf > best.Confidence {
			best = Match{Key: rule.Key, Name: rule.Name, Text: rule.Text, Confidence: conf}
			found = true
		}
	}
	return best, found
}

// Scores returns every rule's confidence in dictionary order, whether or
// not it clears its threshold. Unreliable vectors return nil.
func (m *Matcher) Scores(fv FeatureVector) []Match {
	if !fv.Reliable {
		return nil
	}
	out := make([]Match, len(m.dict))
	for i, rule := range m.dict {
		out[i] = Match{Key: rule.Key, Name: rule.Name, Text: rule.Text, Confidence: Score(rule, fv)}
	}
	return out
}

// Score computes the confidence of rule for fv: the fraction of fingers
// whose expectation holds, halved when the thumb direction is wrong and
// multiplied by 0.3 for each unsatisfied predicate.
func Score(rule SignRule, fv FeatureVector) float64 {
	matches := 0
	for f, expected := range rule.Fingers {
		if fingerMatches(expected, fv.Fingers[f], fv.ThumbIndexTouching) {
			matches++
		}
	}
	conf := float64(matches) / float64(NumFingers)

	if rule.ThumbDirection != "" && rule.ThumbDirection != fv.Thumb {
		conf *= thumbDirectionPenalty
	}
	for _, p := range rule.Predicates {
		if !p.holds(fv) {
			conf *= predicatePenalty
		}
	}
	return conf
}

func fingerMatches(expected, observed FingerState, touching bool) bool {
	switch expected {
	case Extended:
		return observed == Extended
	case Flexed:
		return observed != Extended
	case Curved:
		return observed == Curved
	case Touching:
		return touching
	}
	return false
}
