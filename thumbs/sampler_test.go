package thumbs

import (
	"context"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleBinarySubdivision(t *testing.T) {
	// duration 40, K=3: final frame first, then halvings
	schedule := Schedule(40, 3)
	assert.Equal(t, []float64{40, 20, 10, 30, 5, 15, 25, 35}, schedule)
}

func TestScheduleDeterminism(t *testing.T) {
	first := Schedule(137.4, 5)
	second := Schedule(137.4, 5)
	assert.Equal(t, first, second)

	// 1 + sum of odd multiples per iteration = 2^K samples
	assert.Len(t, first, 32)
}

func TestScheduleDegenerateInputs(t *testing.T) {
	assert.Nil(t, Schedule(0, 3))
	assert.Nil(t, Schedule(-1, 3))
	assert.Nil(t, Schedule(40, 0))
}

// fakeDecoder returns a solid test image, optionally failing or stalling on
// chosen timecodes.
type fakeDecoder struct {
	mu      sync.Mutex
	decoded []float64
	failAt  map[float64]bool
	stallAt map[float64]bool
}

func (d *fakeDecoder) DecodeFrame(ctx context.Context, source string, timecode float64) (image.Image, error) {
	if d.stallAt[timecode] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d.failAt[timecode] {
		return nil, fmt.Errorf("decode failed at %.1f", timecode)
	}
	d.mu.Lock()
	d.decoded = append(d.decoded, timecode)
	d.mu.Unlock()
	return image.NewRGBA(image.Rect(0, 0, 320, 180)), nil
}

func newTestSampler(decoder FrameDecoder, cache *Cache, iterations int) *Sampler {
	return NewSampler(decoder, cache, SamplerOptions{
		Iterations:    iterations,
		MaxEdge:       160,
		Quality:       75,
		SampleTimeout: 50 * time.Millisecond,
	}, nil)
}

func TestSamplerRenderFillsCacheSorted(t *testing.T) {
	cache := NewCache()
	sampler := newTestSampler(&fakeDecoder{}, cache, 3)

	err := sampler.Render(context.Background(), "test.mp4", 40)
	require.NoError(t, err)

	frames := cache.Frames()
	require.Len(t, frames, 8)
	assert.Equal(t, []float64{5, 10, 15, 20, 25, 30, 35, 40}, timecodes(frames))

	// Downscaled within bounds, aspect preserved from 320x180
	assert.Equal(t, 160, frames[0].Width)
	assert.Equal(t, 90, frames[0].Height)
	assert.NotEmpty(t, frames[0].Data)
}

func TestSamplerSkipsFailedSamples(t *testing.T) {
	cache := NewCache()
	decoder := &fakeDecoder{failAt: map[float64]bool{20: true}}
	sampler := newTestSampler(decoder, cache, 2)

	err := sampler.Render(context.Background(), "test.mp4", 40)
	require.NoError(t, err)

	// 40, 20, 10, 30 scheduled; 20 skipped
	assert.Equal(t, []float64{10, 30, 40}, timecodes(cache.Frames()))
}

func TestSamplerSkipsTimedOutSamples(t *testing.T) {
	cache := NewCache()
	decoder := &fakeDecoder{stallAt: map[float64]bool{10: true}}
	sampler := newTestSampler(decoder, cache, 2)

	err := sampler.Render(context.Background(), "test.mp4", 40)
	require.NoError(t, err)
	assert.Equal(t, []float64{20, 30, 40}, timecodes(cache.Frames()))
}

// handoffDecoder blocks its first decode until released, letting a test
// interleave a source change with an in-flight sample.
type handoffDecoder struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (d *handoffDecoder) DecodeFrame(ctx context.Context, source string, timecode float64) (image.Image, error) {
	d.once.Do(func() { close(d.entered) })
	<-d.release
	return image.NewRGBA(image.Rect(0, 0, 320, 180)), nil
}

func TestSamplerRejectsFrameDecodedAcrossClear(t *testing.T) {
	cache := NewCache()
	decoder := &handoffDecoder{entered: make(chan struct{}), release: make(chan struct{})}
	sampler := newTestSampler(decoder, cache, 2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sampler.Render(ctx, "a.mp4", 40) }()

	// Source change while the first sample is mid-decode: the render is
	// abandoned and the cache emptied before the decode completes.
	<-decoder.entered
	cancel()
	cache.Clear()
	close(decoder.release)

	assert.ErrorIs(t, <-done, ErrRenderCancelled)
	assert.Equal(t, 0, cache.Len())
}

func TestSamplerRenderCancelled(t *testing.T) {
	cache := NewCache()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sampler := newTestSampler(&fakeDecoder{}, cache, 3)
	err := sampler.Render(ctx, "test.mp4", 40)
	assert.ErrorIs(t, err, ErrRenderCancelled)
	assert.Equal(t, 0, cache.Len())
}
