package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/capture"
)

// errGated marks a frame the motion gate rejected.
var errGated = errors.New("frame gated")

// run reads one frame per tick until stopCh closes.
func (a *App) run(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}
			err := a.processFrame(time.Now())
			switch {
			case err == nil, errors.Is(err, errGated):
			case errors.Is(err, capture.ErrEndOfFrames):
				a.logger.Info("camera source exhausted")
				return
			default:
				a.logger.Warn("frame skipped", "error", err)
			}
		}
	}
}

// processFrame runs one frame through gate, tracker and recognizer. A gated
// frame, an unreadable frame and a tracker failure all count as no hand,
// which ends a sign in progress.
func (a *App) processFrame(now time.Time) error {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.recognizer.Process(nil, now)
		return fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	if !a.gate.Admit(frame, now) {
		a.recognizer.Process(nil, now)
		return errGated
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		a.recognizer.Process(nil, now)
		return fmt.Errorf("detect hands: %w", err)
	}

	a.recognizer.Process(hands, now)
	return nil
}
