// Package overlay holds the control overlay's auto-hide state machine.
package overlay

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/corbinu/playhead/events"
)

type cancelFunc func()

type afterFunc func(d time.Duration, fn func()) cancelFunc

func realAfterFunc(d time.Duration, fn func()) cancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// AutoHide is the two-state visibility machine for the control overlay.
// Activity shows the overlay and arms a debounce timer; the timer hides it
// again unless playback is paused or ended, in which case the timer is
// inert until the next activity rearms it. At most one debounce timer is
// pending at any moment.
type AutoHide struct {
	logger hclog.Logger
	bus    *events.Bus

	mouseDelay time.Duration
	touchDelay time.Duration

	// holdFn reports whether hiding is suspended (paused or ended)
	holdFn func() bool

	after afterFunc

	mu        sync.Mutex
	visible   bool
	touchMode bool
	cancel    cancelFunc
}

// NewAutoHide creates the machine in the VISIBLE state
func NewAutoHide(bus *events.Bus, mouseDelay, touchDelay time.Duration, holdFn func() bool, logger hclog.Logger) *AutoHide {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &AutoHide{
		logger:     logger.Named("overlay-autohide"),
		bus:        bus,
		mouseDelay: mouseDelay,
		touchDelay: touchDelay,
		holdFn:     holdFn,
		after:      realAfterFunc,
		visible:    true,
	}
}

// Visible returns the current overlay visibility
func (a *AutoHide) Visible() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.visible
}

// SetTouchMode switches the debounce duration between the shorter mouse
// delay and the longer touch delay. The mode is a property of the control,
// not of individual input events.
func (a *AutoHide) SetTouchMode(touch bool) {
	a.mu.Lock()
	a.touchMode = touch
	a.mu.Unlock()
}

// Activity handles a qualifying activity signal: show the overlay if
// hidden and restart the debounce timer.
func (a *AutoHide) Activity() {
	a.mu.Lock()
	shown := !a.visible
	a.visible = true
	a.restartTimerLocked()
	a.mu.Unlock()

	if shown {
		a.publish(true)
	}
}

// Toggle flips visibility directly, bypassing the debounce, for a touch
// tap classified as toggle-overlay. When the result is visible the
// debounce timer restarts as for any activity.
func (a *AutoHide) Toggle() {
	a.mu.Lock()
	a.visible = !a.visible
	visible := a.visible
	if visible {
		a.restartTimerLocked()
	} else if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()

	a.publish(visible)
}

// Stop cancels any pending debounce timer
func (a *AutoHide) Stop() {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.mu.Unlock()
}

// restartTimerLocked arms the debounce, cancelling any pending timer first
// so only one is ever outstanding. Caller holds a.mu.
func (a *AutoHide) restartTimerLocked() {
	if a.cancel != nil {
		a.cancel()
	}
	delay := a.mouseDelay
	if a.touchMode {
		delay = a.touchDelay
	}
	a.cancel = a.after(delay, a.expire)
}

// expire fires when the debounce elapses with no further activity
func (a *AutoHide) expire() {
	if a.holdFn != nil && a.holdFn() {
		// Paused or ended: stay visible. The timer is spent; the next
		// activity signal rearms it.
		a.mu.Lock()
		a.cancel = nil
		a.mu.Unlock()
		return
	}

	a.mu.Lock()
	hid := a.visible
	a.visible = false
	a.cancel = nil
	a.mu.Unlock()

	if hid {
		a.publish(false)
	}
}

func (a *AutoHide) publish(visible bool) {
	if a.bus == nil {
		return
	}
	if visible {
		a.bus.Publish(events.Event{Type: events.EventOverlayShown, Source: "overlay-autohide"})
	} else {
		a.bus.Publish(events.Event{Type: events.EventOverlayHidden, Source: "overlay-autohide"})
	}
}
