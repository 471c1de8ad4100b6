package player

import (
	"context"
	"image"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corbinu/playhead/config"
	"github.com/corbinu/playhead/events"
	"github.com/corbinu/playhead/gesture"
	"github.com/corbinu/playhead/render"
	"github.com/corbinu/playhead/subtitle"
	"github.com/corbinu/playhead/thumbs"
)

func stubFrame(timecode float64) thumbs.Frame {
	return thumbs.Frame{Timecode: timecode, Width: 160, Height: 90}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// idleScheduler never fires frames; tests drive state directly
type idleScheduler struct{}

func (idleScheduler) Schedule(fn func()) (cancel func()) { return func() {} }

type instantDecoder struct{}

func (instantDecoder) DecodeFrame(ctx context.Context, source string, timecode float64) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 32, 18)), nil
}

type stallingDecoder struct{}

func (stallingDecoder) DecodeFrame(ctx context.Context, source string, timecode float64) (image.Image, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type echoSubDecoder struct{}

func (echoSubDecoder) Decode(data []byte) ([]subtitle.Cue, error) {
	return []subtitle.Cue{{Start: 0, End: 2, Text: string(data)}}, nil
}

func timelineRect() gesture.Rect {
	return gesture.Rect{Left: 100, Width: 200, Height: 10}
}

func newTestController(t *testing.T, engine *fakeEngine, opts Options) *Controller {
	t.Helper()
	opts.Engine = engine
	if opts.Scheduler == nil {
		opts.Scheduler = idleScheduler{}
	}
	if opts.TimelineRect == nil {
		opts.TimelineRect = timelineRect
	}
	c, err := NewController(opts)
	require.NoError(t, err)
	return c
}

func TestNewControllerRequiresEngine(t *testing.T) {
	_, err := NewController(Options{})
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestScrubPausesAndRestoresPlayingState(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(t, engine, Options{})
	c.Mount()
	defer c.Unmount()

	engine.duration, engine.known = 100, true
	engine.onMeta()

	// Playing before the gesture
	c.Session().SetPaused(false)
	require.Equal(t, 1, engine.plays)

	c.TimelineDown(200)
	assert.True(t, c.Session().Paused())
	assert.Equal(t, 50.0, c.Session().CurrentTime())

	c.DispatchPointer(gesture.PointerEvent{Kind: gesture.PointerMove, X: 300})
	assert.Equal(t, 100.0, c.Session().CurrentTime())

	c.DispatchPointer(gesture.PointerEvent{Kind: gesture.PointerUp, X: 300})
	// Prior playing state restored, not hardcoded to playing
	assert.False(t, c.Session().Paused())
	assert.Equal(t, 2, engine.plays)
}

func TestScrubRestoresPausedState(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(t, engine, Options{})
	c.Mount()
	defer c.Unmount()

	engine.duration, engine.known = 100, true
	engine.onMeta()

	c.TimelineDown(200)
	c.DispatchPointer(gesture.PointerEvent{Kind: gesture.PointerUp, X: 200})
	assert.True(t, c.Session().Paused())
	assert.Zero(t, engine.plays)
}

func TestMetadataLoadTriggersThumbnailRender(t *testing.T) {
	engine := &fakeEngine{}
	cfg := config.Default()
	cfg.Thumbnail.Iterations = 3
	c := newTestController(t, engine, Options{Config: cfg, Decoder: instantDecoder{}})
	c.Mount()
	defer c.Unmount()

	ready := make(chan struct{}, 1)
	c.Bus().SubscribeTypes(func(e events.Event) { ready <- struct{}{} }, events.EventThumbnailsReady)

	engine.duration, engine.known = 40, true
	engine.onMeta()

	select {
	case <-ready:
	case <-time.After(5 * time.Second):
		t.Fatal("thumbnail render never completed")
	}

	frames := c.Thumbnails().Frames()
	require.Len(t, frames, 8)
	want := []float64{5, 10, 15, 20, 25, 30, 35, 40}
	for i, f := range frames {
		assert.Equal(t, want[i], f.Timecode)
	}
}

func TestSourceChangeCancelsRenderAndClearsCache(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(t, engine, Options{Decoder: stallingDecoder{}})
	c.Mount()
	defer c.Unmount()

	cancelled := make(chan struct{}, 1)
	c.Bus().SubscribeTypes(func(e events.Event) { cancelled <- struct{}{} }, events.EventThumbnailsCancelled)

	engine.duration, engine.known = 40, true
	engine.onMeta()

	c.Thumbnails().Insert(stubFrame(10))
	c.SetSource("other.mp4")

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("render was not cancelled on source change")
	}
	assert.Equal(t, 0, c.Thumbnails().Len())

	_, known := c.Session().Duration()
	assert.False(t, known)
}

func TestSetSubtitleReplacesTrack(t *testing.T) {
	engine := &fakeEngine{}
	dir := t.TempDir()
	path := dir + "/track.srt"
	require.NoError(t, writeFile(path, "hello"))

	cfg := config.Default()
	cfg.Subtitle.WatchFiles = false
	c := newTestController(t, engine, Options{Config: cfg, SubtitleDecoder: echoSubDecoder{}})

	require.NoError(t, c.SetSubtitle(context.Background(), path))
	text, ok := c.subStore.ResolveAt(1)
	require.True(t, ok)
	assert.Equal(t, "hello", text)

	// A failing replacement keeps the previous track
	err := c.SetSubtitle(context.Background(), dir+"/missing.srt")
	assert.Error(t, err)
	text, ok = c.subStore.ResolveAt(1)
	require.True(t, ok)
	assert.Equal(t, "hello", text)
}

func TestFailedReplacementKeepsWatcher(t *testing.T) {
	engine := &fakeEngine{}
	dir := t.TempDir()
	path := dir + "/track.srt"
	require.NoError(t, writeFile(path, "hello"))

	cfg := config.Default()
	cfg.Subtitle.WatchFiles = true
	c := newTestController(t, engine, Options{Config: cfg, SubtitleDecoder: echoSubDecoder{}})
	c.Mount()
	defer c.Unmount()

	require.NoError(t, c.SetSubtitle(context.Background(), path))
	require.Error(t, c.SetSubtitle(context.Background(), dir+"/missing.srt"))

	// The kept track still auto-reloads on file change
	require.NoError(t, writeFile(path, "revised"))
	require.Eventually(t, func() bool {
		text, ok := c.subStore.ResolveAt(1)
		return ok && text == "revised"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestControlDownTouchZones(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(t, engine, Options{})
	c.Mount()
	defer c.Unmount()

	engine.duration, engine.known = 100, true
	engine.onMeta()
	c.Session().Seek(50)

	// Double tap in the right jump zone seeks forward
	c.ControlDown(290, true)
	c.ControlDown(290, true)
	assert.Equal(t, 60.0, c.Session().CurrentTime())

	// Double tap in the left jump zone seeks backward
	c.ControlDown(110, true)
	c.ControlDown(110, true)
	assert.Equal(t, 50.0, c.Session().CurrentTime())
}

func TestTouchContactSuppressesClicks(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(t, engine, Options{})

	c.DispatchPointer(gesture.PointerEvent{Kind: gesture.PointerDown, Touch: true})
	assert.True(t, c.SuppressClick())

	// Hosts deliver the synthesized click after the up event; it is still
	// swallowed, once.
	c.DispatchPointer(gesture.PointerEvent{Kind: gesture.PointerUp, Touch: true})
	assert.True(t, c.SuppressClick())
	assert.False(t, c.SuppressClick())
}

func TestUnmountCancelsActiveScrub(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(t, engine, Options{})
	c.Mount()

	engine.duration, engine.known = 100, true
	engine.onMeta()

	c.TimelineDown(200)
	require.True(t, c.mapper.Scrubbing())
	require.Equal(t, 50.0, c.Session().CurrentTime())

	c.Unmount()
	assert.False(t, c.mapper.Scrubbing())

	// A stray move after unmount must not seek
	c.DispatchPointer(gesture.PointerEvent{Kind: gesture.PointerMove, X: 300})
	assert.Equal(t, 50.0, c.Session().CurrentTime())
}

func TestViewSinkReceivesFrames(t *testing.T) {
	engine := &fakeEngine{}
	views := make(chan render.View, 1)
	c := newTestController(t, engine, Options{
		Scheduler: render.TickerScheduler{Interval: time.Millisecond},
		ViewSink: func(v render.View) {
			select {
			case views <- v:
			default:
			}
		},
	})

	c.Mount()
	defer c.Unmount()

	engine.duration, engine.known = 100, true
	engine.onMeta()
	c.Session().Seek(25)

	require.Eventually(t, func() bool {
		select {
		case v := <-views:
			return v.Fill == 0.25 && v.CurrentText == "0:25"
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestUnmountStopsLoop(t *testing.T) {
	engine := &fakeEngine{}
	c := newTestController(t, engine, Options{})

	c.Mount()
	require.True(t, c.loop.Running())
	c.Unmount()
	assert.False(t, c.loop.Running())
}
