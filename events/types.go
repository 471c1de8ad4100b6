// Package events provides the intent bus the player control publishes on.
// Gesture recognizers and the playback session emit intents; the host and
// internal subsystems subscribe to the subset they care about.
package events

import (
	"time"
)

// EventType represents the type of event
type EventType string

// Control-surface event types
const (
	// Playback intents
	EventTimeChange    EventType = "playback.time.change"
	EventPreviewChange EventType = "playback.preview.change"
	EventSeekingChange EventType = "playback.seeking.change"

	// Session flag changes
	EventPausedChange     EventType = "session.paused.change"
	EventMutedChange      EventType = "session.muted.change"
	EventSubtitlesChange  EventType = "session.subtitles.change"
	EventFullscreenChange EventType = "session.fullscreen.change"
	EventEnded            EventType = "session.ended"
	EventSourceChange     EventType = "session.source.change"
	EventMetadataLoaded   EventType = "session.metadata.loaded"

	// Overlay visibility
	EventOverlayShown  EventType = "overlay.shown"
	EventOverlayHidden EventType = "overlay.hidden"

	// Thumbnail pipeline
	EventThumbnailsReady     EventType = "thumbnails.ready"
	EventThumbnailsCancelled EventType = "thumbnails.cancelled"

	// Subtitle track lifecycle
	EventTrackLoaded     EventType = "subtitle.track.loaded"
	EventTrackLoadFailed EventType = "subtitle.track.load_failed"
)

// Event represents a control-surface event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Source    string                 `json:"source"`
	Timecode  float64                `json:"timecode,omitempty"`
	Flag      bool                   `json:"flag,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Handler represents a function that handles events
type Handler func(event Event)

// Filter restricts a subscription to a set of event types.
// An empty type list matches every event.
type Filter struct {
	Types []EventType
}

// Matches reports whether the filter accepts the event
func (f Filter) Matches(event Event) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == event.Type {
			return true
		}
	}
	return false
}

// Stats tracks how many events the bus has dispatched
type Stats struct {
	TotalEvents         int64               `json:"total_events"`
	EventsByType        map[EventType]int64 `json:"events_by_type"`
	ActiveSubscriptions int                 `json:"active_subscriptions"`
}

// Helper constructors for the common intents

// NewTimeChangeEvent creates a time-change intent carrying the scrub timecode
func NewTimeChangeEvent(source string, timecode float64) Event {
	return Event{
		Type:      EventTimeChange,
		Source:    source,
		Timecode:  timecode,
		Timestamp: time.Now(),
	}
}

// NewPreviewChangeEvent creates a preview-time-change intent
func NewPreviewChangeEvent(source string, timecode float64) Event {
	return Event{
		Type:      EventPreviewChange,
		Source:    source,
		Timecode:  timecode,
		Timestamp: time.Now(),
	}
}

// NewSeekingChangeEvent creates a seeking-change intent
func NewSeekingChangeEvent(source string, active bool) Event {
	return Event{
		Type:      EventSeekingChange,
		Source:    source,
		Flag:      active,
		Timestamp: time.Now(),
	}
}

// NewFlagEvent creates an event for a boolean session flag change
func NewFlagEvent(eventType EventType, source string, value bool) Event {
	return Event{
		Type:      eventType,
		Source:    source,
		Flag:      value,
		Timestamp: time.Now(),
	}
}
