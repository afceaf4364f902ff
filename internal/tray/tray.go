// Package tray shows recognition status in the system tray.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/gesture"
)

// Tray mirrors the live recognizer: the last confirmed sign, the running
// sequence and an enable toggle.
type Tray struct {
	mu         sync.RWMutex
	enabled    bool
	last       string
	sequence   string
	onToggle   func(enabled bool)
	onSettings func()
	onClear    func()
	onQuit     func()

	menuToggle   *systray.MenuItem
	menuLast     *systray.MenuItem
	menuSequence *systray.MenuItem
}

// New returns an enabled tray.
func New() *Tray {
	return &Tray{enabled: true}
}

// OnToggle is called with the new state when recognition is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings is called when the settings item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnClearSequence is called when the clear item is clicked.
func (t *Tray) OnClearSequence(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnQuit is called before the tray exits.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit closes the tray, making Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra sign recognition")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle sign recognition")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem(lastTitle(t.last), "Last confirmed sign")
	t.menuLast.Disable()
	t.menuSequence = systray.AddMenuItem(sequenceTitle(t.sequence), "Signs confirmed so far")
	t.menuSequence.Disable()
	t.mu.Unlock()

	menuClear := systray.AddMenuItem("Clear sequence", "Start a new sequence")
	systray.AddSeparator()
	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.Toggle()
			case <-menuClear.ClickedCh:
				t.call(func() func() { return t.onClear })
				t.setSequence("")
			case <-menuSettings.ClickedCh:
				t.call(func() func() { return t.onSettings })
			case <-menuQuit.ClickedCh:
				t.call(func() func() { return t.onQuit })
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) call(get func() func()) {
	t.mu.RLock()
	fn := get()
	t.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Toggle flips the enabled state and notifies the toggle callback.
func (t *Tray) Toggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		callback(enabled)
	}
}

// HandleEvent updates the menu from a recognizer event. It is safe to pass
// as a gesture.Listener.
func (t *Tray) HandleEvent(ev gesture.Event) {
	if ev.Type != gesture.EventConfirmed {
		return
	}

	label := ev.Name
	if ev.Text != "" {
		label = fmt.Sprintf("%s (%s)", ev.Name, ev.Text)
	}

	t.mu.Lock()
	t.last = label
	if t.menuLast != nil {
		t.menuLast.SetTitle(lastTitle(label))
	}
	t.mu.Unlock()

	t.setSequence(ev.Sequence)
}

func (t *Tray) setSequence(seq string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sequence = seq
	if t.menuSequence != nil {
		t.menuSequence.SetTitle(sequenceTitle(seq))
	}
}

// IsEnabled reports the toggle state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Last returns the label of the last confirmed sign.
func (t *Tray) Last() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

// Sequence returns the displayed sequence text.
func (t *Tray) Sequence() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sequence
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastTitle(label string) string {
	if label == "" {
		return "Last: none"
	}
	return "Last: " + label
}

func sequenceTitle(seq string) string {
	if seq == "" {
		return "Sequence: empty"
	}
	return "Sequence: " + seq
}
