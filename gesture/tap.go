package gesture

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Zone classifies a touch contact's horizontal position on the control
type Zone int

const (
	ZoneLeft Zone = iota
	ZoneCenter
	ZoneRight
)

// TapActions are the side effects a classified tap triggers
type TapActions struct {
	TogglePlay       func()
	ToggleFullscreen func()
	ToggleOverlay    func()
	SeekBy           func(seconds float64)
}

// cancelFunc stops a pending deferred action
type cancelFunc func()

// afterFunc schedules fn after d and returns a cancel. Injectable so tests
// can fire timers deterministically.
type afterFunc func(d time.Duration, fn func()) cancelFunc

func realAfterFunc(d time.Duration, fn func()) cancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// pendingTap is the single outstanding deferred action for a gesture
// class. It exists from the first contact until either the window elapses
// (the deferred action fires) or a second qualifying contact cancels it.
type pendingTap struct {
	zone   Zone
	cancel cancelFunc
}

// TapClassifier disambiguates single taps, double taps in a screen zone,
// and double clicks from the raw contact-down sequence. Mouse input decides
// between toggle-fullscreen (double click) and toggle-play (single click,
// deferred for the double-click window). Touch input decides between a seek
// jump (double tap in the same edge zone) and an overlay toggle.
type TapClassifier struct {
	logger  hclog.Logger
	actions TapActions

	window       time.Duration
	jumpSeconds  float64
	edgeFraction float64

	after afterFunc

	mu           sync.Mutex
	pendingMouse *pendingTap
	pendingTouch *pendingTap
	touchHeld    bool
	releaseLatch bool
}

// NewTapClassifier creates a classifier with the given thresholds
func NewTapClassifier(actions TapActions, window time.Duration, jumpSeconds, edgeFraction float64, logger hclog.Logger) *TapClassifier {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &TapClassifier{
		logger:       logger.Named("tap-classifier"),
		actions:      actions,
		window:       window,
		jumpSeconds:  jumpSeconds,
		edgeFraction: edgeFraction,
		after:        realAfterFunc,
	}
}

// MouseDown feeds a mouse contact-down. A second down within the window
// cancels the deferred play toggle and toggles fullscreen instead.
func (c *TapClassifier) MouseDown() {
	c.mu.Lock()
	if c.pendingMouse != nil {
		c.pendingMouse.cancel()
		c.pendingMouse = nil
		c.mu.Unlock()
		c.invoke(c.actions.ToggleFullscreen)
		return
	}

	pending := &pendingTap{}
	pending.cancel = c.after(c.window, func() {
		c.mu.Lock()
		if c.pendingMouse != pending {
			c.mu.Unlock()
			return
		}
		c.pendingMouse = nil
		c.mu.Unlock()
		c.invoke(c.actions.TogglePlay)
	})
	c.pendingMouse = pending
	c.mu.Unlock()
}

// TouchDown feeds a touch contact-down at x over a control of the given
// width. Center-zone taps toggle the overlay immediately. Edge-zone taps
// defer: a second tap in the same zone within the window seeks instead of
// toggling.
func (c *TapClassifier) TouchDown(x, width float64) {
	zone := c.classifyZone(x, width)

	if zone == ZoneCenter {
		c.invoke(c.actions.ToggleOverlay)
		return
	}

	c.mu.Lock()
	if c.pendingTouch != nil && c.pendingTouch.zone == zone {
		c.pendingTouch.cancel()
		c.pendingTouch = nil
		c.mu.Unlock()

		delta := c.jumpSeconds
		if zone == ZoneLeft {
			delta = -delta
		}
		if c.actions.SeekBy != nil {
			c.actions.SeekBy(delta)
		}
		return
	}

	// A contact in a different zone restarts the gesture; only one
	// deferred action may be outstanding.
	if c.pendingTouch != nil {
		c.pendingTouch.cancel()
		c.pendingTouch = nil
	}

	pending := &pendingTap{zone: zone}
	pending.cancel = c.after(c.window, func() {
		c.mu.Lock()
		if c.pendingTouch != pending {
			c.mu.Unlock()
			return
		}
		c.pendingTouch = nil
		c.mu.Unlock()
		c.invoke(c.actions.ToggleOverlay)
	})
	c.pendingTouch = pending
	c.mu.Unlock()
}

// SetTouchHeld records whether a touch contact is physically down. While
// held, click side effects on elements under the pointer are suppressed so
// a tap that reveals the controls does not also activate a button. Hosts
// deliver the synthesized click after the up event, so a release latches
// one further suppression for that click.
func (c *TapClassifier) SetTouchHeld(held bool) {
	c.mu.Lock()
	if c.touchHeld && !held {
		c.releaseLatch = true
	}
	c.touchHeld = held
	c.mu.Unlock()
}

// SuppressClick reports whether the next click side effect should be
// swallowed. True while a touch contact is held, and exactly once more
// after a release, consuming the latch.
func (c *TapClassifier) SuppressClick() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.touchHeld {
		return true
	}
	if c.releaseLatch {
		c.releaseLatch = false
		return true
	}
	return false
}

// Stop cancels any pending deferred tap so no action fires against an
// unmounted control.
func (c *TapClassifier) Stop() {
	c.mu.Lock()
	if c.pendingMouse != nil {
		c.pendingMouse.cancel()
		c.pendingMouse = nil
	}
	if c.pendingTouch != nil {
		c.pendingTouch.cancel()
		c.pendingTouch = nil
	}
	c.mu.Unlock()
}

func (c *TapClassifier) classifyZone(x, width float64) Zone {
	if width <= 0 {
		return ZoneCenter
	}
	fraction := x / width
	switch {
	case fraction < c.edgeFraction:
		return ZoneLeft
	case fraction > 1-c.edgeFraction:
		return ZoneRight
	default:
		return ZoneCenter
	}
}

func (c *TapClassifier) invoke(action func()) {
	if action != nil {
		action()
	}
}
