package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os/exec"

	"github.com/hashicorp/go-hclog"
)

// FFmpegDecoder decodes single frames by running an off-process ffmpeg
// instance per sample. The input seek (-ss before -i) lands on the nearest
// preceding keyframe and decodes forward, which is accurate enough for
// preview thumbnails and much cheaper than an output seek.
type FFmpegDecoder struct {
	path   string
	logger hclog.Logger
}

// NewFFmpegDecoder creates a decoder using the ffmpeg binary at path.
// Pass "ffmpeg" to resolve via PATH.
func NewFFmpegDecoder(path string, logger hclog.Logger) *FFmpegDecoder {
	if path == "" {
		path = "ffmpeg"
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FFmpegDecoder{
		path:   path,
		logger: logger.Named("ffmpeg-decoder"),
	}
}

// DecodeFrame extracts the frame at timecode from source. Cancelling ctx
// kills the ffmpeg process, which is how the sampler bounds a decode stall.
func (d *FFmpegDecoder) DecodeFrame(ctx context.Context, source string, timecode float64) (image.Image, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", fmt.Sprintf("%.3f", timecode),
		"-i", source,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, d.path, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg failed at %.3fs: %w (output: %s)", timecode, err, stderr.String())
	}

	img, err := png.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode captured frame at %.3fs: %w", timecode, err)
	}
	return img, nil
}
