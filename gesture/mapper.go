package gesture

import (
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/samber/lo"

	"github.com/corbinu/playhead/events"
)

// Rect is the timeline element's screen rectangle
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Empty reports whether the rectangle has zero size, which is how a
// timeline hidden by layout presents itself.
func (r Rect) Empty() bool {
	return r.Width == 0 && r.Height == 0
}

// ScrubHooks receive the scrub pipeline's lifecycle. Begin fires once when
// a contact starts on the timeline's click target, Seek on every move with
// the mapped timecode, End on release.
type ScrubHooks struct {
	Begin func()
	Seek  func(timecode float64)
	End   func()
}

// Mapper converts pointer coordinates over the timeline into fractions and
// timecodes, and runs the two independent gesture pipelines: scrubbing
// (changes playback position) and hovering (changes only the preview
// popover).
type Mapper struct {
	logger   hclog.Logger
	bus      *events.Bus
	pointers *PointerBus

	rectFn     func() Rect
	durationFn func() (float64, bool)
	hooks      ScrubHooks

	mu          sync.Mutex
	scrubSub    *PointerSubscription
	hovering    bool
	lastPreview float64
	lastHoverX  float64
}

// NewMapper creates a mapper. rectFn supplies the timeline's current screen
// rectangle; durationFn the media duration, reporting false until metadata
// has loaded.
func NewMapper(bus *events.Bus, pointers *PointerBus, rectFn func() Rect, durationFn func() (float64, bool), hooks ScrubHooks, logger hclog.Logger) *Mapper {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Mapper{
		logger:     logger.Named("gesture-mapper"),
		bus:        bus,
		pointers:   pointers,
		rectFn:     rectFn,
		durationFn: durationFn,
		hooks:      hooks,
	}
}

// Fraction maps clientX to a clamped position fraction along the timeline.
// Returns false when the timeline has zero width.
func (m *Mapper) Fraction(clientX float64) (float64, bool) {
	rect := m.rectFn()
	if rect.Width == 0 {
		return 0, false
	}
	return lo.Clamp(clientX-rect.Left, 0, rect.Width) / rect.Width, true
}

// TimecodeAt maps clientX to a timecode. Returns false when the duration is
// unknown or the timeline has zero width.
func (m *Mapper) TimecodeAt(clientX float64) (float64, bool) {
	duration, known := m.durationFn()
	if !known {
		return 0, false
	}
	fraction, ok := m.Fraction(clientX)
	if !ok {
		return 0, false
	}
	return fraction * duration, true
}

// StartScrub begins the scrub pipeline for a contact that went down on the
// timeline's click target at clientX. The gesture subscribes to the shared
// pointer stream for moves and release, and unsubscribes itself on release.
func (m *Mapper) StartScrub(clientX float64) {
	timecode, ok := m.TimecodeAt(clientX)
	if !ok {
		return
	}

	m.mu.Lock()
	if m.scrubSub != nil {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	if m.hooks.Begin != nil {
		m.hooks.Begin()
	}
	m.bus.Publish(events.NewSeekingChangeEvent("gesture-mapper", true))
	m.applyScrub(timecode)

	sub := m.pointers.Subscribe(func(event PointerEvent) {
		switch event.Kind {
		case PointerMove:
			if tc, ok := m.TimecodeAt(event.X); ok {
				m.applyScrub(tc)
			}
		case PointerUp:
			m.endScrub()
		}
	})

	m.mu.Lock()
	m.scrubSub = sub
	m.mu.Unlock()
}

// CancelScrub ends any active scrub gesture as if the contact had been
// released, dropping its pointer subscription. Called on unmount so the
// gesture does not outlive the control.
func (m *Mapper) CancelScrub() {
	m.endScrub()
}

// Scrubbing reports whether a scrub gesture is active
func (m *Mapper) Scrubbing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scrubSub != nil
}

// Hover runs the preview pipeline for a pointer at clientX over the
// timeline's bounding box. Suppressed entirely while the timeline has zero
// size. Hovering is independent of scrubbing and never changes playback
// position.
func (m *Mapper) Hover(clientX float64) {
	if m.rectFn().Empty() {
		return
	}
	timecode, ok := m.TimecodeAt(clientX)
	if !ok {
		return
	}

	m.mu.Lock()
	m.hovering = true
	m.lastPreview = timecode
	m.lastHoverX = clientX
	m.mu.Unlock()

	m.bus.Publish(events.NewPreviewChangeEvent("gesture-mapper", timecode))
}

// HoverEnd ends the preview pipeline when the pointer leaves the timeline
func (m *Mapper) HoverEnd() {
	m.mu.Lock()
	m.hovering = false
	m.mu.Unlock()
}

// PreviewQuery returns the last hover timecode and whether the preview
// popover should currently be shown.
func (m *Mapper) PreviewQuery() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPreview, m.hovering
}

// PopoverX positions the preview popover of rendered width thumbWidth so it
// tracks clientX without overflowing past either end of the timeline.
func (m *Mapper) PopoverX(clientX, thumbWidth float64) float64 {
	rect := m.rectFn()
	if thumbWidth >= rect.Width {
		return rect.Left
	}
	return lo.Clamp(clientX-thumbWidth/2, rect.Left, rect.Left+rect.Width-thumbWidth)
}

// PopoverXForLast positions the popover for the most recent hover position
func (m *Mapper) PopoverXForLast(thumbWidth float64) float64 {
	m.mu.Lock()
	x := m.lastHoverX
	m.mu.Unlock()
	return m.PopoverX(x, thumbWidth)
}

func (m *Mapper) applyScrub(timecode float64) {
	if m.hooks.Seek != nil {
		m.hooks.Seek(timecode)
	}
	m.bus.Publish(events.NewTimeChangeEvent("gesture-mapper", timecode))
}

func (m *Mapper) endScrub() {
	m.mu.Lock()
	sub := m.scrubSub
	m.scrubSub = nil
	m.mu.Unlock()

	if sub == nil {
		return
	}
	sub.Unsubscribe()

	if m.hooks.End != nil {
		m.hooks.End()
	}
	m.bus.Publish(events.NewSeekingChangeEvent("gesture-mapper", false))
}
