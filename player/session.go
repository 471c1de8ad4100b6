package player

import (
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/samber/lo"

	"github.com/corbinu/playhead/events"
)

// Session is the playback state the whole control reads and mutates. It is
// owned exclusively by the controller; external media effect happens only
// through the engine collaborator, so there is a single writer per flag.
type Session struct {
	logger hclog.Logger
	bus    *events.Bus
	engine Engine

	mu            sync.Mutex
	currentTime   float64
	duration      float64
	durationKnown bool

	paused           bool
	muted            bool
	subtitlesEnabled bool
	fullscreen       bool
	ended            bool
}

// NewSession creates a session over engine, initially paused
func NewSession(engine Engine, bus *events.Bus, logger hclog.Logger) *Session {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Session{
		logger: logger.Named("session"),
		bus:    bus,
		engine: engine,
		paused: true,
	}
}

// CurrentTime returns the mirrored media clock position
func (s *Session) CurrentTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentTime
}

// Duration returns the media duration; false while metadata is pending
func (s *Session) Duration() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration, s.durationKnown
}

func (s *Session) Paused() bool           { s.mu.Lock(); defer s.mu.Unlock(); return s.paused }
func (s *Session) Muted() bool            { s.mu.Lock(); defer s.mu.Unlock(); return s.muted }
func (s *Session) SubtitlesEnabled() bool { s.mu.Lock(); defer s.mu.Unlock(); return s.subtitlesEnabled }
func (s *Session) Fullscreen() bool       { s.mu.Lock(); defer s.mu.Unlock(); return s.fullscreen }
func (s *Session) Ended() bool            { s.mu.Lock(); defer s.mu.Unlock(); return s.ended }

// SetPaused updates the paused flag and plays or pauses the engine.
// Unpausing clears the ended latch: resuming playback means the session is
// no longer at the end.
func (s *Session) SetPaused(paused bool) {
	s.mu.Lock()
	changed := s.paused != paused
	s.paused = paused
	if !paused {
		s.ended = false
	}
	s.mu.Unlock()

	if paused {
		s.engine.Pause()
	} else {
		s.engine.Play()
	}
	if changed {
		s.bus.Publish(events.NewFlagEvent(events.EventPausedChange, "session", paused))
	}
}

// TogglePaused flips the paused flag
func (s *Session) TogglePaused() {
	s.SetPaused(!s.Paused())
}

// SetMuted updates the muted flag and the engine's mute state
func (s *Session) SetMuted(muted bool) {
	s.mu.Lock()
	changed := s.muted != muted
	s.muted = muted
	s.mu.Unlock()

	s.engine.SetMuted(muted)
	if changed {
		s.bus.Publish(events.NewFlagEvent(events.EventMutedChange, "session", muted))
	}
}

// SetSubtitlesEnabled updates the subtitle overlay flag
func (s *Session) SetSubtitlesEnabled(enabled bool) {
	s.mu.Lock()
	changed := s.subtitlesEnabled != enabled
	s.subtitlesEnabled = enabled
	s.mu.Unlock()

	if changed {
		s.bus.Publish(events.NewFlagEvent(events.EventSubtitlesChange, "session", enabled))
	}
}

// SetFullscreen updates the fullscreen flag, driving the engine's
// fullscreen API when it has one.
func (s *Session) SetFullscreen(fullscreen bool) {
	s.mu.Lock()
	changed := s.fullscreen != fullscreen
	s.fullscreen = fullscreen
	s.mu.Unlock()

	if toggler, ok := s.engine.(FullscreenToggler); ok {
		toggler.SetFullscreen(fullscreen)
	}
	if changed {
		s.bus.Publish(events.NewFlagEvent(events.EventFullscreenChange, "session", fullscreen))
	}
}

// Seek moves playback to timecode, clamped to [0, duration] when the
// duration is known. Out-of-range seeks clamp, never reject. A seek while
// playing clears the ended latch.
func (s *Session) Seek(timecode float64) {
	s.mu.Lock()
	if s.durationKnown {
		timecode = lo.Clamp(timecode, 0, s.duration)
	} else if timecode < 0 {
		timecode = 0
	}
	s.currentTime = timecode
	if !s.paused {
		s.ended = false
	}
	s.mu.Unlock()

	s.engine.Seek(timecode)
}

// SeekBy moves playback relative to the current position
func (s *Session) SeekBy(delta float64) {
	s.Seek(s.CurrentTime() + delta)
}

// syncClock mirrors an engine time update. Progress while playing clears
// the ended latch.
func (s *Session) syncClock(timecode float64) {
	s.mu.Lock()
	s.currentTime = timecode
	if !s.paused {
		s.ended = false
	}
	s.mu.Unlock()
}

// markEnded latches the end of media. Ended always forces paused; the
// engine stopped on its own, so no pause call is issued.
func (s *Session) markEnded() {
	s.mu.Lock()
	s.ended = true
	wasPlaying := !s.paused
	s.paused = true
	s.mu.Unlock()

	s.bus.Publish(events.NewFlagEvent(events.EventEnded, "session", true))
	if wasPlaying {
		s.bus.Publish(events.NewFlagEvent(events.EventPausedChange, "session", true))
	}
}

// setDuration records loaded metadata
func (s *Session) setDuration(duration float64) {
	s.mu.Lock()
	s.duration = duration
	s.durationKnown = true
	if s.currentTime > duration {
		s.currentTime = duration
	}
	s.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.EventMetadataLoaded, Source: "session", Timecode: duration})
}

// resetForSource clears per-source state when the media source changes
func (s *Session) resetForSource() {
	s.mu.Lock()
	s.currentTime = 0
	s.duration = 0
	s.durationKnown = false
	s.ended = false
	s.mu.Unlock()
}
