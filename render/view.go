// Package render runs the per-frame reconciliation that keeps the scrub
// bar, time readout, preview popover and subtitle overlay consistent with
// the playback clock.
package render

import (
	"github.com/corbinu/playhead/thumbs"
)

// View is the derived presentational state computed once per frame. The
// host renders it however it likes; computing it never mutates playback
// state.
type View struct {
	// Fill is the timeline fill proportion in [0, 1]
	Fill float64

	// Formatted clock readout
	CurrentText  string
	DurationText string

	// Preview popover
	ShowThumb bool
	Thumb     thumbs.Frame
	ThumbX    float64

	// Active subtitle; SubtitleChanged marks frames where the resolved
	// text differs from the previously built view, so the host can skip
	// re-rendering markup when nothing changed.
	SubtitleText    string
	SubtitleChanged bool

	OverlayVisible bool
}

// Sources supplies the reads a frame reconciliation needs. All funcs must
// be cheap; they run once per display refresh.
type Sources struct {
	// Clock returns current time, duration, and whether duration is known
	Clock func() (current, duration float64, known bool)

	// PreviewQuery returns the last hover timecode and whether the
	// preview popover is active
	PreviewQuery func() (float64, bool)

	// Thumbnail resolves the nearest-at-or-after cached frame
	Thumbnail func(query float64) (thumbs.Frame, bool)

	// PopoverX positions a popover of the given width
	PopoverX func(thumbWidth float64) float64

	// Subtitle resolves the active cue text for a timecode
	Subtitle func(timecode float64) (string, bool)

	// SubtitlesEnabled gates subtitle resolution
	SubtitlesEnabled func() bool

	// OverlayVisible reports the auto-hide machine's state
	OverlayVisible func() bool
}

// Builder computes a View per frame, retaining the previous thumbnail when
// the cache has no frame at or after the query yet, and tracking subtitle
// text across frames to flag redundant re-renders.
type Builder struct {
	sources Sources

	lastThumb    thumbs.Frame
	hasThumb     bool
	lastSubtitle string
}

// NewBuilder creates a view builder over sources
func NewBuilder(sources Sources) *Builder {
	return &Builder{sources: sources}
}

// Build computes the view for the current frame
func (b *Builder) Build() View {
	view := View{}

	current, duration, known := b.sources.Clock()
	if known && duration > 0 {
		view.Fill = current / duration
		if view.Fill > 1 {
			view.Fill = 1
		}
		view.DurationText = FormatTimecode(duration)
	} else {
		view.DurationText = FormatTimecode(0)
	}
	view.CurrentText = FormatTimecode(current)

	if query, hovering := b.sources.PreviewQuery(); hovering {
		if frame, ok := b.sources.Thumbnail(query); ok {
			b.lastThumb = frame
			b.hasThumb = true
		}
		// On a miss the previous frame stays; the query can only outrun
		// the cache transiently before the final-frame sample lands.
		if b.hasThumb {
			view.ShowThumb = true
			view.Thumb = b.lastThumb
			view.ThumbX = b.sources.PopoverX(float64(b.lastThumb.Width))
		}
	}

	if b.sources.SubtitlesEnabled() {
		if text, ok := b.sources.Subtitle(current); ok {
			view.SubtitleText = text
		}
	}
	view.SubtitleChanged = view.SubtitleText != b.lastSubtitle
	b.lastSubtitle = view.SubtitleText

	view.OverlayVisible = b.sources.OverlayVisible()
	return view
}
