package player

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/corbinu/playhead/config"
	"github.com/corbinu/playhead/events"
	"github.com/corbinu/playhead/gesture"
	"github.com/corbinu/playhead/overlay"
	"github.com/corbinu/playhead/render"
	"github.com/corbinu/playhead/subtitle"
	"github.com/corbinu/playhead/thumbs"
)

// Options configures a Controller
type Options struct {
	Config *config.Config
	Logger hclog.Logger

	// Engine is the media engine collaborator. Required.
	Engine Engine

	// Decoder extracts single frames for thumbnail previews. Optional;
	// without it the control runs with no thumbnails.
	Decoder thumbs.FrameDecoder

	// SubtitleDecoder parses fetched track bytes. Optional; without it
	// subtitle tracks cannot load.
	SubtitleDecoder subtitle.Decoder

	// Scheduler drives the render loop. Defaults to a ticker at the
	// configured frame interval.
	Scheduler render.FrameScheduler

	// TimelineRect supplies the timeline element's screen rectangle.
	// Required for gestures.
	TimelineRect func() gesture.Rect

	// ControlRect supplies the whole control's screen rectangle, used for
	// tap jump-zone classification. Defaults to TimelineRect.
	ControlRect func() gesture.Rect

	// ViewSink receives the per-frame view. Optional.
	ViewSink func(render.View)

	// TouchMode selects the longer auto-hide delay for touch contexts
	TouchMode bool
}

// Controller is the control surface aggregate: it owns the session, the
// gesture recognizers, the thumbnail pipeline, the subtitle track, the
// overlay state machine and the render loop.
type Controller struct {
	cfg    *config.Config
	logger hclog.Logger

	bus      *events.Bus
	pointers *gesture.PointerBus
	session  *Session
	engine   Engine

	cache   *thumbs.Cache
	sampler *thumbs.Sampler

	mapper  *gesture.Mapper
	taps    *gesture.TapClassifier
	autoHid *overlay.AutoHide

	subStore  *subtitle.Store
	subLoader *subtitle.Loader

	builder     *render.Builder
	loop        *render.Loop
	controlRect func() gesture.Rect

	viewSink func(render.View)

	mu           sync.Mutex
	mounted      bool
	source       string
	subWatcher   *subtitle.Watcher
	renderCancel context.CancelFunc
	resumePaused bool
}

// ErrNoEngine reports a controller constructed without a media engine
var ErrNoEngine = errors.New("player: engine is required")

// NewController wires a control surface over the given collaborators
func NewController(opts Options) (*Controller, error) {
	if opts.Engine == nil {
		return nil, ErrNoEngine
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("playhead")

	if opts.TimelineRect == nil {
		opts.TimelineRect = func() gesture.Rect { return gesture.Rect{} }
	}
	if opts.ControlRect == nil {
		opts.ControlRect = opts.TimelineRect
	}

	c := &Controller{
		cfg:      cfg,
		logger:   logger,
		bus:      events.NewBus(),
		pointers: gesture.NewPointerBus(),
		engine:   opts.Engine,
		cache:    thumbs.NewCache(),
		subStore: subtitle.NewStore(),
		viewSink: opts.ViewSink,
	}

	c.session = NewSession(opts.Engine, c.bus, logger)

	if opts.Decoder != nil {
		c.sampler = thumbs.NewSampler(opts.Decoder, c.cache, thumbs.SamplerOptions{
			Iterations:    cfg.Thumbnail.Iterations,
			MaxEdge:       cfg.Thumbnail.MaxEdge,
			Quality:       cfg.Thumbnail.Quality,
			SampleTimeout: cfg.SampleTimeout(),
		}, logger)
	}

	if opts.SubtitleDecoder != nil {
		c.subLoader = subtitle.NewLoader(c.subStore, opts.SubtitleDecoder, cfg.SubtitleFetchTimeout(), logger)
	}

	c.autoHid = overlay.NewAutoHide(c.bus, cfg.MouseHideDelay(), cfg.TouchHideDelay(), func() bool {
		return c.session.Paused() || c.session.Ended()
	}, logger)
	c.autoHid.SetTouchMode(opts.TouchMode)

	c.mapper = gesture.NewMapper(c.bus, c.pointers, opts.TimelineRect, c.session.Duration, gesture.ScrubHooks{
		Begin: c.beginScrub,
		Seek:  c.session.Seek,
		End:   c.endScrub,
	}, logger)

	c.controlRect = opts.ControlRect
	c.taps = gesture.NewTapClassifier(gesture.TapActions{
		TogglePlay:       c.session.TogglePaused,
		ToggleFullscreen: func() { c.session.SetFullscreen(!c.session.Fullscreen()) },
		ToggleOverlay:    c.autoHid.Toggle,
		SeekBy:           c.session.SeekBy,
	}, cfg.DoubleTapWindow(), cfg.Gesture.JumpSeconds, cfg.Gesture.EdgeZoneFraction, logger)

	sched := opts.Scheduler
	if sched == nil {
		sched = render.TickerScheduler{Interval: cfg.FrameInterval()}
	}

	c.builder = render.NewBuilder(render.Sources{
		Clock: func() (float64, float64, bool) {
			d, known := c.session.Duration()
			return c.session.CurrentTime(), d, known
		},
		PreviewQuery:     c.mapper.PreviewQuery,
		Thumbnail:        c.cache.NearestAtOrAfter,
		PopoverX:         c.mapper.PopoverXForLast,
		Subtitle:         c.subStore.ResolveAt,
		SubtitlesEnabled: c.session.SubtitlesEnabled,
		OverlayVisible:   c.autoHid.Visible,
	})
	c.loop = render.NewLoop(sched, c.frame, logger)

	return c, nil
}

// Mount registers engine callbacks and starts the render loop. The loop
// runs until Unmount.
func (c *Controller) Mount() {
	c.mu.Lock()
	if c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = true
	c.mu.Unlock()

	c.engine.OnTimeUpdate(c.session.syncClock)
	c.engine.OnEnded(c.session.markEnded)
	c.engine.OnMetadataLoaded(c.onMetadataLoaded)

	c.loop.Start()
	c.logger.Debug("controller mounted")
}

// Unmount stops the render loop, cancels pending timers and abandons any
// in-flight thumbnail render.
func (c *Controller) Unmount() {
	c.mu.Lock()
	if !c.mounted {
		c.mu.Unlock()
		return
	}
	c.mounted = false
	cancel := c.renderCancel
	c.renderCancel = nil
	watcher := c.subWatcher
	c.subWatcher = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if watcher != nil {
		watcher.Close()
	}
	c.loop.Stop()
	c.autoHid.Stop()
	c.taps.Stop()
	c.mapper.CancelScrub()
	c.logger.Debug("controller unmounted")
}

// SetSource changes the media asset. Any in-flight thumbnail render is
// abandoned and the cache cleared so previews from the previous asset
// never show against the new one. The subtitle track association persists
// until explicitly changed.
func (c *Controller) SetSource(src string) {
	c.mu.Lock()
	c.source = src
	cancel := c.renderCancel
	c.renderCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		c.bus.Publish(events.Event{Type: events.EventThumbnailsCancelled, Source: "controller"})
	}
	c.cache.Clear()
	c.session.resetForSource()

	if loader, ok := c.engine.(SourceLoader); ok {
		loader.LoadSource(src)
	}
	c.bus.Publish(events.Event{Type: events.EventSourceChange, Source: "controller", Data: map[string]interface{}{"src": src}})
}

// SetSubtitle changes the subtitle track location. The new track replaces
// the previous one atomically on success; on failure the previous track
// stays active, its file watcher included. Local tracks are watched for
// changes when configured.
func (c *Controller) SetSubtitle(ctx context.Context, location string) error {
	if c.subLoader == nil {
		return subtitle.ErrTrackUnavailable
	}

	if location == "" {
		c.closeSubWatcher()
		c.subStore.Clear()
		return nil
	}

	if err := c.subLoader.Load(ctx, location); err != nil {
		c.bus.Publish(events.Event{Type: events.EventTrackLoadFailed, Source: "controller"})
		return err
	}
	// Only now is the previous track gone; its watcher goes with it
	c.closeSubWatcher()
	c.bus.Publish(events.Event{Type: events.EventTrackLoaded, Source: "controller"})

	if c.cfg.Subtitle.WatchFiles && isLocalPath(location) {
		w, err := subtitle.WatchFile(context.Background(), c.subLoader, location)
		if err != nil {
			c.logger.Warn("subtitle watch unavailable", "location", location, "error", err)
		} else {
			c.mu.Lock()
			c.subWatcher = w
			c.mu.Unlock()
		}
	}
	return nil
}

func (c *Controller) closeSubWatcher() {
	c.mu.Lock()
	watcher := c.subWatcher
	c.subWatcher = nil
	c.mu.Unlock()
	if watcher != nil {
		watcher.Close()
	}
}

// DispatchPointer feeds one event from the host's document-level pointer
// stream. Active scrub gestures observe moves and releases here; mouse
// movement counts as overlay activity; touch contacts drive the click
// suppression guard.
func (c *Controller) DispatchPointer(event gesture.PointerEvent) {
	if event.Touch {
		switch event.Kind {
		case gesture.PointerDown:
			c.taps.SetTouchHeld(true)
		case gesture.PointerUp:
			c.taps.SetTouchHeld(false)
		}
	} else if event.Kind == gesture.PointerMove {
		c.autoHid.Activity()
	}

	c.pointers.Dispatch(event)
}

// TimelineDown begins a scrub for a contact that went down on the
// timeline's click target.
func (c *Controller) TimelineDown(clientX float64) {
	c.mapper.StartScrub(clientX)
}

// TimelineHover runs the preview pipeline for a pointer over the timeline
func (c *Controller) TimelineHover(clientX float64) {
	c.mapper.Hover(clientX)
}

// TimelineLeave ends the preview pipeline
func (c *Controller) TimelineLeave() {
	c.mapper.HoverEnd()
}

// ControlDown feeds a contact-down on the control's tap surface
func (c *Controller) ControlDown(clientX float64, touch bool) {
	if !touch {
		c.taps.MouseDown()
		return
	}
	rect := c.controlRect()
	c.taps.TouchDown(clientX-rect.Left, rect.Width)
}

// SuppressClick reports whether click side effects under the pointer
// should be swallowed because a touch contact is held.
func (c *Controller) SuppressClick() bool {
	return c.taps.SuppressClick()
}

// Session exposes the playback session
func (c *Controller) Session() *Session { return c.session }

// Bus exposes the intent bus for host subscriptions
func (c *Controller) Bus() *events.Bus { return c.bus }

// Thumbnails exposes the preview cache
func (c *Controller) Thumbnails() *thumbs.Cache { return c.cache }

// Overlay exposes the auto-hide state machine
func (c *Controller) Overlay() *overlay.AutoHide { return c.autoHid }

func (c *Controller) frame() {
	view := c.builder.Build()
	if c.viewSink != nil {
		c.viewSink(view)
	}
}

func (c *Controller) beginScrub() {
	c.mu.Lock()
	c.resumePaused = c.session.Paused()
	c.mu.Unlock()
	c.session.SetPaused(true)
}

func (c *Controller) endScrub() {
	c.mu.Lock()
	resume := c.resumePaused
	c.mu.Unlock()
	c.session.SetPaused(resume)
}

func (c *Controller) onMetadataLoaded() {
	duration, known := c.engine.Duration()
	if !known {
		return
	}
	c.session.setDuration(duration)

	if c.sampler == nil {
		return
	}

	c.mu.Lock()
	if c.renderCancel != nil {
		c.renderCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.renderCancel = cancel
	source := c.source
	c.mu.Unlock()

	go func() {
		err := c.sampler.Render(ctx, source, duration)
		switch {
		case err == nil:
			c.bus.Publish(events.Event{Type: events.EventThumbnailsReady, Source: "controller"})
		case errors.Is(err, thumbs.ErrRenderCancelled):
			// Source changed mid-render; the cache was already cleared
		default:
			c.logger.Warn("thumbnail render failed", "error", err)
		}
	}()
}

func isLocalPath(location string) bool {
	u, err := url.Parse(location)
	if err != nil {
		return true
	}
	return u.Scheme == ""
}
