// Package app runs the live recognition loop: camera frames are gated on
// motion, passed to the hand tracker and fed to a Recognizer whose events go
// to the Dispatcher and any other subscribers.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Config wires an App to its collaborators.
type Config struct {
	Camera      capture.Camera
	Detector    detector.Detector
	Dictionary  gesture.Dictionary
	Recognition gesture.Config
	// MotionThreshold is the percentage of changed pixels that opens the
	// motion gate. Zero or less processes every frame.
	MotionThreshold float64
	// MotionLinger keeps the gate open after motion stops.
	MotionLinger time.Duration
	Dispatcher   *Dispatcher
	Logger       *slog.Logger
}

// App owns one Recognizer and drives it from the camera.
type App struct {
	camera     capture.Camera
	detector   detector.Detector
	gate       *capture.MotionGate
	recognizer *gesture.Recognizer
	dispatcher *Dispatcher
	logger     *slog.Logger
	session    string

	mu      sync.Mutex
	enabled bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New validates the configuration and builds the recognizer.
func New(config Config) (*App, error) {
	if config.Camera == nil || config.Detector == nil {
		return nil, errors.New("app: camera and detector are required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MotionLinger <= 0 {
		config.MotionLinger = capture.DefaultLinger
	}

	session := uuid.NewString()
	logger := config.Logger.With("session", session)

	rec, err := gesture.NewRecognizer(config.Recognition, config.Dictionary, logger)
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}

	a := &App{
		camera:     config.Camera,
		detector:   config.Detector,
		gate:       capture.NewMotionGate(config.MotionThreshold, config.MotionLinger),
		recognizer: rec,
		dispatcher: config.Dispatcher,
		logger:     logger,
		session:    session,
		enabled:    true,
	}
	if a.dispatcher != nil {
		rec.Subscribe(func(ev gesture.Event) {
			a.dispatcher.Handle(session, ev)
		})
	}
	return a, nil
}

// Session returns the id stamped on this app's recognition log entries.
func (a *App) Session() string {
	return a.session
}

// Recognizer returns the live recognizer.
func (a *App) Recognizer() *gesture.Recognizer {
	return a.recognizer
}

// Subscribe registers a listener for live recognizer events.
func (a *App) Subscribe(l gesture.Listener) (unsubscribe func()) {
	return a.recognizer.Subscribe(l)
}

// SetEnabled pauses or resumes recognition. Pausing ends any sign in
// progress.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	changed := a.enabled != enabled
	a.enabled = enabled
	a.mu.Unlock()

	if changed && !enabled {
		a.recognizer.Stop(time.Now())
	}
	if changed {
		a.logger.Info("recognition toggled", "enabled", enabled)
	}
}

// IsEnabled reports whether frames are being recognized.
func (a *App) IsEnabled() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.enabled
}

// Start opens the camera and launches the frame loop. Starting a running
// app is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}
	if err := a.camera.Open(); err != nil {
		return err
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.run(a.stopCh, a.done)

	a.logger.Info("recognition loop started", "fps", a.camera.FPS())
	return nil
}

// Stop ends the frame loop, closes any open sign, and releases the camera
// and hand tracker.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh, a.done = nil, nil
	a.mu.Unlock()

	if stopCh == nil {
		return
	}
	close(stopCh)
	<-done

	a.recognizer.Stop(time.Now())

	if err := a.camera.Close(); err != nil {
		a.logger.Warn("failed to close camera", "error", err)
	}
	a.gate.Close()
	if err := a.detector.Close(); err != nil {
		a.logger.Warn("failed to close hand tracker", "error", err)
	}

	a.logger.Info("recognition loop stopped")
}
