// Package thumbs generates and caches the sparse preview thumbnails shown
// while hovering or scrubbing the timeline. Samples follow a binary
// subdivision of the duration so the bar gets coarse coverage almost
// immediately and finer coverage as iterations proceed.
package thumbs

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/hashicorp/go-hclog"
)

var (
	// ErrDecodeTimeout reports a sample whose frame never became decodable
	// within the per-sample timeout. Recovered locally by skipping.
	ErrDecodeTimeout = errors.New("thumbs: frame decode timed out")

	// ErrRenderCancelled reports a render abandoned because the media
	// source changed before it completed.
	ErrRenderCancelled = errors.New("thumbs: render cancelled")
)

// FrameDecoder is the collaborator that decodes a single frame at a
// timecode from an off-screen decode instance of the media source.
type FrameDecoder interface {
	DecodeFrame(ctx context.Context, source string, timecode float64) (image.Image, error)
}

// SamplerOptions configures a Sampler
type SamplerOptions struct {
	Iterations    int           // subdivision iteration budget K
	MaxEdge       int           // bounding box for the downscaled bitmap, pixels
	Quality       float32       // lossy WebP quality factor
	SampleTimeout time.Duration // per-sample decode deadline
}

// Sampler renders the preview thumbnail set for a media source into a Cache
type Sampler struct {
	logger  hclog.Logger
	decoder FrameDecoder
	cache   *Cache
	opts    SamplerOptions
}

// NewSampler creates a sampler rendering into cache via decoder
func NewSampler(decoder FrameDecoder, cache *Cache, opts SamplerOptions, logger hclog.Logger) *Sampler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.SampleTimeout <= 0 {
		opts.SampleTimeout = 2 * time.Second
	}
	return &Sampler{
		logger:  logger.Named("thumb-sampler"),
		decoder: decoder,
		cache:   cache,
		opts:    opts,
	}
}

// Schedule returns the deterministic sample timecodes for a duration and
// iteration budget, in sampling order: the final frame first, then for each
// iteration i the odd multiples of duration/2^i below the duration. Earlier
// iterations cover the bar coarsely; later ones refine between existing
// samples without repeating any timecode.
func Schedule(duration float64, iterations int) []float64 {
	if duration <= 0 || iterations < 1 {
		return nil
	}

	out := []float64{duration}
	step := duration
	for i := 1; i <= iterations; i++ {
		step /= 2
		for t := step; t < duration; t += 2 * step {
			out = append(out, t)
		}
	}
	return out
}

// Render decodes, downscales and encodes every scheduled sample into the
// cache. Individual decode failures and timeouts are skipped so a partial
// cache still serves previews. Returns ErrRenderCancelled if ctx is
// cancelled before the schedule completes; the caller owns clearing the
// cache on source change.
func (s *Sampler) Render(ctx context.Context, source string, duration float64) error {
	schedule := Schedule(duration, s.opts.Iterations)
	s.logger.Debug("starting thumbnail render", "source", source, "samples", len(schedule))

	generation := s.cache.Generation()
	rendered := 0
	for _, timecode := range schedule {
		if err := ctx.Err(); err != nil {
			s.logger.Debug("thumbnail render cancelled", "source", source, "rendered", rendered)
			return ErrRenderCancelled
		}

		frame, err := s.renderSample(ctx, source, timecode)
		if err != nil {
			if ctx.Err() != nil {
				return ErrRenderCancelled
			}
			s.logger.Warn("skipping thumbnail sample", "timecode", timecode, "error", err)
			continue
		}

		// The source may have changed while this sample decoded; a stale
		// frame must never land in the cleared cache.
		if ctx.Err() != nil {
			return ErrRenderCancelled
		}
		if !s.cache.InsertAt(generation, frame) {
			s.logger.Debug("thumbnail render abandoned after cache clear", "source", source)
			return ErrRenderCancelled
		}
		rendered++
	}

	s.logger.Debug("thumbnail render complete", "source", source, "rendered", rendered)
	return nil
}

func (s *Sampler) renderSample(ctx context.Context, source string, timecode float64) (Frame, error) {
	sampleCtx, cancel := context.WithTimeout(ctx, s.opts.SampleTimeout)
	defer cancel()

	img, err := s.decoder.DecodeFrame(sampleCtx, source, timecode)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(sampleCtx.Err(), context.DeadlineExceeded) {
			return Frame{}, ErrDecodeTimeout
		}
		return Frame{}, err
	}

	data, w, h, err := encodeFrame(img, s.opts.MaxEdge, s.opts.Quality)
	if err != nil {
		return Frame{}, err
	}

	return Frame{Timecode: timecode, Data: data, Width: w, Height: h}, nil
}
