package thumbs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheNearestAtOrAfter(t *testing.T) {
	cache := NewCache()

	// Insert out of order; cache must keep itself sorted
	for _, tc := range []float64{20, 5, 40, 10, 30} {
		cache.Insert(Frame{Timecode: tc})
	}

	frame, ok := cache.NearestAtOrAfter(12)
	require.True(t, ok)
	assert.Equal(t, 20.0, frame.Timecode)

	frame, ok = cache.NearestAtOrAfter(20)
	require.True(t, ok)
	assert.Equal(t, 20.0, frame.Timecode)

	frame, ok = cache.NearestAtOrAfter(0)
	require.True(t, ok)
	assert.Equal(t, 5.0, frame.Timecode)
}

func TestCacheNearestAtOrAfterBeyondLastFrame(t *testing.T) {
	cache := NewCache()
	cache.Insert(Frame{Timecode: 10})
	cache.Insert(Frame{Timecode: 20})

	// Query past every cached timecode returns nothing; callers keep their
	// previous frame until the final-frame sample lands.
	_, ok := cache.NearestAtOrAfter(20.5)
	assert.False(t, ok)
}

func TestCacheNearestAtOrAfterEmpty(t *testing.T) {
	cache := NewCache()
	_, ok := cache.NearestAtOrAfter(0)
	assert.False(t, ok)
}

func TestCacheClear(t *testing.T) {
	cache := NewCache()
	cache.Insert(Frame{Timecode: 1})
	cache.Insert(Frame{Timecode: 2})
	require.Equal(t, 2, cache.Len())

	cache.Clear()
	assert.Equal(t, 0, cache.Len())
	_, ok := cache.NearestAtOrAfter(0)
	assert.False(t, ok)
}

func TestCacheInsertAtRejectsStaleGeneration(t *testing.T) {
	cache := NewCache()

	gen := cache.Generation()
	require.True(t, cache.InsertAt(gen, Frame{Timecode: 1}))

	cache.Clear()
	assert.False(t, cache.InsertAt(gen, Frame{Timecode: 2}))
	assert.Equal(t, 0, cache.Len())

	// A fresh generation inserts normally
	assert.True(t, cache.InsertAt(cache.Generation(), Frame{Timecode: 3}))
	assert.Equal(t, 1, cache.Len())
}

func TestCacheFramesReturnsSortedCopy(t *testing.T) {
	cache := NewCache()
	cache.Insert(Frame{Timecode: 3})
	cache.Insert(Frame{Timecode: 1})
	cache.Insert(Frame{Timecode: 2})

	frames := cache.Frames()
	require.Len(t, frames, 3)
	assert.Equal(t, []float64{1, 2, 3}, timecodes(frames))

	// Mutating the copy must not affect the cache
	frames[0].Timecode = 99
	first, ok := cache.NearestAtOrAfter(0)
	require.True(t, ok)
	assert.Equal(t, 1.0, first.Timecode)
}

func timecodes(frames []Frame) []float64 {
	out := make([]float64, len(frames))
	for i, f := range frames {
		out[i] = f.Timecode
	}
	return out
}
