package gesture

import (
	"fmt"
	"time"
)

// State is the stabilizer state.
type State int

const (
	StateIdle State = iota
	StateCandidate
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCandidate:
		return "candidate"
	case StateConfirmed:
		return "confirmed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Candidate is the sign currently being held.
type Candidate struct {
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Since      time.Time `json:"since"`
}

// Stabilizer debounces per-frame matches for one hand stream. A match must
// persist for the hold time before it is confirmed, and the same key is not
// confirmed again until its cooldown has elapsed. It is not safe for
// concurrent use.
type Stabilizer struct {
	hold     time.Duration
	cooldown time.Duration

	state     State
	candidate *Candidate
	confirmed map[string]time.Time
}

// NewStabilizer creates an idle stabilizer.
func NewStabilizer(hold, cooldown time.Duration) *Stabilizer {
	return &Stabilizer{
		hold:      hold,
		cooldown:  cooldown,
		confirmed: make(map[string]time.Time),
	}
}

// State returns the current state.
func (s *Stabilizer) State() State {
	return s.state
}

// Candidate returns the active candidate, if any.
func (s *Stabilizer) Candidate() (Candidate, bool) {
	if s.candidate == nil {
		return Candidate{}, false
	}
	return *s.candidate, true
}

// Step advances the state machine by one frame. A nil match covers every
// no-signal case: no hand, no rule matched, malformed input or capture
// stopped. Events are returned in emission order.
func (s *Stabilizer) Step(m *Match, now time.Time) []Event {
	if m == nil {
		if s.candidate == nil {
			return nil
		}
		ended := s.endEvent(now)
		s.candidate = nil
		s.state = StateIdle
		return []Event{ended}
	}

	if s.candidate == nil {
		return []Event{s.start(m, now)}
	}

	if s.candidate.Key != m.Key {
		ended := s.endEvent(now)
		return []Event{ended, s.start(m, now)}
	}

	s.candidate.Confidence = m.Confidence
	s.state = StateCandidate
	if now.Sub(s.candidate.Since) < s.hold || !s.gate(m.Key, now) {
		return nil
	}

	s.confirmed[m.Key] = now
	s.state = StateConfirmed
	return []Event{{
		Type:       EventConfirmed,
		Key:        m.Key,
		Name:       m.Name,
		Text:       m.Text,
		Confidence: m.Confidence,
		At:         now,
	}}
}

// gate reports whether key may be confirmed at now: it has never been
// confirmed or its own cooldown has elapsed.
func (s *Stabilizer) gate(key string, now time.Time) bool {
	last, ok := s.confirmed[key]
	return !ok || now.Sub(last) >= s.cooldown
}

func (s *Stabilizer) start(m *Match, now time.Time) Event {
	s.candidate = &Candidate{
		Key:        m.Key,
		Name:       m.Name,
		Text:       m.Text,
		Confidence: m.Confidence,
		Since:      now,
	}
	s.state = StateCandidate
	return Event{
		Type:       EventStarted,
		Key:        m.Key,
		Name:       m.Name,
		Confidence: m.Confidence,
		At:         now,
	}
}

func (s *Stabilizer) endEvent(now time.Time) Event {
	return Event{
		Type: EventEnded,
		Key:  s.candidate.Key,
		Name: s.candidate.Name,
		At:   now,
	}
}

// Reset returns to idle and forgets every previous confirmation.
func (s *Stabilizer) Reset() {
	s.state = StateIdle
	s.candidate = nil
	clear(s.confirmed)
}
