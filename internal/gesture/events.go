package gesture

import "time"

// EventType identifies a recognizer event.
type EventType string

const (
	EventStarted   EventType = "gesture_started"
	EventEnded     EventType = "gesture_ended"
	EventConfirmed EventType = "gesture_confirmed"
)

// Event is emitted by the stabilizer and forwarded to listeners. Text and
// Sequence are only set on confirmations.
type Event struct {
	Type       EventType `json:"type"`
	Key        string    `json:"key"`
	Name       string    `json:"name,omitempty"`
	Text       string    `json:"text,omitempty"`
	Confidence float64   `json:"confidence,omitempty"`
	Handedness string    `json:"handedness,omitempty"`
	Sequence   string    `json:"sequence,omitempty"`

	// Movement is the palm motion since the previous frame. Diagnostic only.
	Movement Movement  `json:"movement,omitempty"`
	At       time.Time `json:"at"`
}

// GestureConfirmed is a sign that was held long enough and passed the
// cooldown gate.
type GestureConfirmed struct {
	Key        string    `json:"key"`
	Name       string    `json:"name"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Handedness string    `json:"handedness,omitempty"`
	At         time.Time `json:"at"`
}

// Confirmation converts a confirmed event.
func (e Event) Confirmation() GestureConfirmed {
	return GestureConfirmed{
		Key:        e.Key,
		Name:       e.Name,
		Text:       e.Text,
		Confidence: e.Confidence,
		Handedness: e.Handedness,
		At:         e.At,
	}
}

// Listener receives recognizer events.
type Listener func(Event)
