package gesture

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrInvalidConfig is returned when recognizer tunables are out of range.
var ErrInvalidConfig = errors.New("invalid recognizer config")

// Config holds the dictionary-wide recognizer tunables.
type Config struct {
	HoldTime        time.Duration
	Cooldown        time.Duration
	MaxSequence     int
	SequenceTimeout time.Duration
	EnableSequence  bool
	HistoryLimit    int
}

// DefaultConfig returns the default tunables.
func DefaultConfig() Config {
	return Config{
		HoldTime:        500 * time.Millisecond,
		Cooldown:        1500 * time.Millisecond,
		MaxSequence:     10,
		SequenceTimeout: 3 * time.Second,
		EnableSequence:  true,
		HistoryLimit:    100,
	}
}

// Validate rejects negative windows and non-positive sizes.
func (c Config) Validate() error {
	switch {
	case c.HoldTime < 0:
		return fmt.Errorf("%w: negative hold time %v", ErrInvalidConfig, c.HoldTime)
	case c.Cooldown < 0:
		return fmt.Errorf("%w: negative cooldown %v", ErrInvalidConfig, c.Cooldown)
	case c.SequenceTimeout < 0:
		return fmt.Errorf("%w: negative sequence timeout %v", ErrInvalidConfig, c.SequenceTimeout)
	case c.MaxSequence <= 0:
		return fmt.Errorf("%w: max sequence must be positive, got %d", ErrInvalidConfig, c.MaxSequence)
	case c.HistoryLimit <= 0:
		return fmt.Errorf("%w: history limit must be positive, got %d", ErrInvalidConfig, c.HistoryLimit)
	}
	return nil
}

// HistoryEntry records one confirmation in the statistics.
type HistoryEntry struct {
	Key        string    `json:"key"`
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	At         time.Time `json:"at"`
}

// Stats is a snapshot of recognizer statistics.
type Stats struct {
	TotalRecognitions int            `json:"total_recognitions"`
	History           []HistoryEntry `json:"history"`
	Current           string         `json:"current,omitempty"`
	State             State          `json:"state"`
	SequenceLength    int            `json:"sequence_length"`
	Movement          Movement       `json:"movement,omitempty"`
}

type subscription struct {
	id int
	fn Listener
}

// Recognizer runs the per-frame pipeline for a single hand stream and fans
// events out to listeners. Process must be called from one goroutine; the
// read-only accessors may be called concurrently with it.
type Recognizer struct {
	cfg    Config
	dict   Dictionary
	logger *slog.Logger

	mu         sync.Mutex
	matcher    *Matcher
	stabilizer *Stabilizer
	sequence   *SequenceBuffer
	total      int
	history    []HistoryEntry
	listeners  []subscription
	nextID     int

	// prev is the previous frame's first hand, for movement.
	prev     *detector.HandLandmarks
	movement Movement
}

// NewRecognizer validates cfg and dict and builds a recognizer.
func NewRecognizer(cfg Config, dict Dictionary, logger *slog.Logger) (*Recognizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := dict.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Recognizer{
		cfg:        cfg,
		dict:       dict,
		logger:     logger.With("component", "recognizer"),
		matcher:    NewMatcher(dict),
		stabilizer: NewStabilizer(cfg.HoldTime, cfg.Cooldown),
		sequence:   NewSequenceBuffer(cfg.MaxSequence, cfg.SequenceTimeout),
	}, nil
}

// Subscribe registers a listener and returns a function that removes it.
// Listeners run synchronously in registration order after the frame's
// state update and must not call Process.
func (r *Recognizer) Subscribe(l Listener) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.listeners = append(r.listeners, subscription{id: id, fn: l})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, s := range r.listeners {
			if s.id == id {
				r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// OnConfirmed registers a listener for confirmations only.
func (r *Recognizer) OnConfirmed(fn func(GestureConfirmed)) (unsubscribe func()) {
	return r.Subscribe(func(e Event) {
		if e.Type == EventConfirmed {
			fn(e.Confirmation())
		}
	})
}

// Process runs one frame. Only the first hand is recognized; an empty slice
// is the no-signal path. It returns the confirmation emitted this frame, if
// any.
func (r *Recognizer) Process(hands []detector.HandLandmarks, now time.Time) (GestureConfirmed, bool) {
	r.mu.Lock()
	events := r.step(hands, now)
	listeners := r.snapshot(events)
	r.mu.Unlock()

	r.dispatch(listeners, events)

	for _, e := range events {
		if e.Type == EventConfirmed {
			return e.Confirmation(), true
		}
	}
	return GestureConfirmed{}, false
}

// Stop handles the end of capture. It behaves exactly like a frame without hands.
func (r *Recognizer) Stop(now time.Time) {
	r.Process(nil, now)
}

func (r *Recognizer) step(hands []detector.HandLandmarks, now time.Time) []Event {
	if len(hands) == 0 {
		r.prev, r.movement = nil, MovementNone
		return r.stabilizer.Step(nil, now)
	}

	hand := &hands[0]
	r.movement = DetectMovement(r.prev, hand, DefaultMovementThreshold)
	r.prev = &detector.HandLandmarks{Points: slices.Clone(hand.Points)}

	fv := Extract(hand)
	if !fv.Reliable {
		r.logger.Debug("malformed hand", "points", len(hand.Points))
	}

	var events []Event
	if m, ok := r.matcher.Match(fv); ok {
		events = r.stabilizer.Step(&m, now)
	} else {
		events = r.stabilizer.Step(nil, now)
	}

	for i := range events {
		events[i].Handedness = hand.Handedness
		events[i].Movement = r.movement
		if events[i].Type == EventConfirmed {
			r.record(&events[i])
		}
	}
	return events
}

// record updates statistics and the sequence for a confirmation.
func (r *Recognizer) record(e *Event) {
	r.total++
	r.history = append(r.history, HistoryEntry{Key: e.Key, Text: e.Text, Confidence: e.Confidence, At: e.At})
	if over := len(r.history) - r.cfg.HistoryLimit; over > 0 {
		r.history = append(r.history[:0], r.history[over:]...)
	}

	if r.cfg.EnableSequence {
		r.sequence.Append(e.Confirmation())
		e.Sequence = r.sequence.Text()
	}

	r.logger.Info("gesture confirmed",
		"key", e.Key,
		"text", e.Text,
		"confidence", e.Confidence,
		"sequence", e.Sequence,
	)
}

func (r *Recognizer) snapshot(events []Event) []Listener {
	if len(events) == 0 || len(r.listeners) == 0 {
		return nil
	}
	out := make([]Listener, len(r.listeners))
	for i, s := range r.listeners {
		out[i] = s.fn
	}
	return out
}

func (r *Recognizer) dispatch(listeners []Listener, events []Event) {
	for _, e := range events {
		for _, l := range listeners {
			l(e)
		}
	}
}

// Stats returns a snapshot of the statistics.
func (r *Recognizer) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := Stats{
		TotalRecognitions: r.total,
		History:           make([]HistoryEntry, len(r.history)),
		State:             r.stabilizer.State(),
		SequenceLength:    r.sequence.Len(),
		Movement:          r.movement,
	}
	copy(st.History, r.history)
	if c, ok := r.stabilizer.Candidate(); ok {
		st.Current = c.Name
	}
	return st
}

// SequenceText returns the concatenated text of the current sequence.
func (r *Recognizer) SequenceText() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sequence.Text()
}

// Sequence returns the current sequence entries, oldest first.
func (r *Recognizer) Sequence() []SequenceEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sequence.Entries()
}

// ClearSequence empties the sequence buffer.
func (r *Recognizer) ClearSequence() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sequence.Clear()
}

// Reset clears the candidate, cooldown memory and sequence. Statistics are kept.
func (r *Recognizer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stabilizer.Reset()
	r.sequence.Clear()
	r.prev, r.movement = nil, MovementNone
}

// Dictionary returns the rules the recognizer matches against.
func (r *Recognizer) Dictionary() Dictionary {
	return r.dict
}

// Config returns the tunables the recognizer was built with.
func (r *Recognizer) Config() Config {
	return r.cfg
}
