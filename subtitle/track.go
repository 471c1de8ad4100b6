// Package subtitle owns the active subtitle track and resolves the cue for
// a playback position. Track decoding is delegated to an external decoder;
// this package only manages fetch, replacement and lookup.
package subtitle

import (
	"sync"
)

// Cue is a single subtitle interval. The interval is half-open: a cue is
// active for timecodes in [Start, End).
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Track is an ordered sequence of cues for one loaded subtitle track
type Track struct {
	Cues []Cue
}

// ResolveAt returns the cue whose interval contains timecode, if any
func (t *Track) ResolveAt(timecode float64) (Cue, bool) {
	if t == nil {
		return Cue{}, false
	}
	for _, cue := range t.Cues {
		if timecode >= cue.Start && timecode < cue.End {
			return cue, true
		}
		if cue.Start > timecode {
			break
		}
	}
	return Cue{}, false
}

// Store holds the session's active track. Replacement is atomic: a new
// track swaps in whole or not at all, and a failed load leaves the
// previous track in place.
type Store struct {
	mu      sync.RWMutex
	current *Track
}

// NewStore creates an empty track store
func NewStore() *Store {
	return &Store{}
}

// Replace installs track as the active track
func (s *Store) Replace(track *Track) {
	s.mu.Lock()
	s.current = track
	s.mu.Unlock()
}

// Clear removes the active track
func (s *Store) Clear() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// Current returns the active track, or nil when none is loaded
func (s *Store) Current() *Track {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// ResolveAt resolves the active cue text for timecode against the current
// track. Returns empty text when no track is loaded or no cue is active.
func (s *Store) ResolveAt(timecode float64) (string, bool) {
	cue, ok := s.Current().ResolveAt(timecode)
	if !ok {
		return "", false
	}
	return cue.Text, true
}
