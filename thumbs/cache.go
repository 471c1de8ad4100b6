package thumbs

import (
	"sort"
	"sync"
)

// Frame is a single cached preview thumbnail. Immutable once inserted.
type Frame struct {
	Timecode float64
	Data     []byte // lossy WebP
	Width    int
	Height   int
}

// Cache holds preview frames ordered ascending by timecode. The sampling
// schedule bounds the cache to roughly 2^(K+1) entries, so lookups are a
// linear forward scan.
type Cache struct {
	mu         sync.RWMutex
	frames     []Frame
	generation uint64
}

// NewCache creates an empty thumbnail cache
func NewCache() *Cache {
	return &Cache{}
}

// Insert adds a frame and re-sorts the cache by timecode. The sort is
// stable; the sampling schedule never produces duplicate timecodes.
func (c *Cache) Insert(frame Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.insertLocked(frame)
}

// Generation returns the cache's clear epoch. A render captures it before
// inserting so frames decoded across a Clear are rejected.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// InsertAt adds a frame only while the cache is still at generation gen.
// Returns false when a Clear intervened since gen was read.
func (c *Cache) InsertAt(gen uint64, frame Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.generation {
		return false
	}
	c.insertLocked(frame)
	return true
}

func (c *Cache) insertLocked(frame Frame) {
	c.frames = append(c.frames, frame)
	sort.SliceStable(c.frames, func(i, j int) bool {
		return c.frames[i].Timecode < c.frames[j].Timecode
	})
}

// NearestAtOrAfter returns the first cached frame whose timecode is >= query.
// The second return is false when no cached frame satisfies the bound, which
// can only happen transiently before the final-frame sample lands; callers
// keep their previous frame in that case.
func (c *Cache) NearestAtOrAfter(query float64) (Frame, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, frame := range c.frames {
		if frame.Timecode >= query {
			return frame, true
		}
	}
	return Frame{}, false
}

// Len returns the number of cached frames
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.frames)
}

// Clear discards every cached frame and advances the generation. Called
// when the media source changes so previews from another asset never
// survive, even when their decode completes after the clear.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.frames = nil
	c.generation++
	c.mu.Unlock()
}

// Frames returns a copy of the cached frames in timecode order
func (c *Cache) Frames() []Frame {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Frame, len(c.frames))
	copy(out, c.frames)
	return out
}
