package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

var (
	errMixedClock     = errors.New("frame timestamps must be sent on every frame of a session or on none")
	errNonMonotonicTS = errors.New("frame timestamp went backwards")
)

// sessionClock pins a stream session to a single time source. The first
// frame decides: with a timestamp the client clock drives the whole
// session, without one the server clock does.
type sessionClock struct {
	decided bool
	client  bool
	last    time.Time
}

// next returns the time of frame f, received at now.
func (c *sessionClock) next(f detector.Frame, now time.Time) (time.Time, error) {
	hasTS := f.Timestamp > 0
	if !c.decided {
		c.decided = true
		c.client = hasTS
	}
	if hasTS != c.client {
		return time.Time{}, errMixedClock
	}

	t := now
	if c.client {
		t = f.Time(now)
	}
	if t.Before(c.last) {
		return time.Time{}, fmt.Errorf("%w: %d ms before the previous frame", errNonMonotonicTS, c.last.Sub(t).Milliseconds())
	}
	c.last = t
	return t, nil
}

// stopTime is the time to end the session at. Client sessions end at their
// last frame so hold and cooldown arithmetic stays on one clock.
func (c *sessionClock) stopTime(now time.Time) time.Time {
	if c.client {
		return c.last
	}
	return now
}
