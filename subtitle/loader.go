package subtitle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ErrTrackUnavailable reports that a track could not be fetched or decoded.
// The previously active track stays in place; the only user-visible effect
// is an absence of subtitles.
var ErrTrackUnavailable = errors.New("subtitle: track unavailable")

// Decoder is the external collaborator that parses raw track bytes (SRT or
// similar) into cues ordered by start time.
type Decoder interface {
	Decode(data []byte) ([]Cue, error)
}

// Loader fetches subtitle tracks from HTTP URLs or local files and installs
// them into a Store.
type Loader struct {
	logger  hclog.Logger
	store   *Store
	decoder Decoder
	client  *http.Client
}

// NewLoader creates a loader installing decoded tracks into store
func NewLoader(store *Store, decoder Decoder, fetchTimeout time.Duration, logger hclog.Logger) *Loader {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &Loader{
		logger:  logger.Named("subtitle-loader"),
		store:   store,
		decoder: decoder,
		client:  &http.Client{Timeout: fetchTimeout},
	}
}

// Load fetches and decodes the track at location, replacing the active
// track atomically on success. On any failure the previous track remains
// active and ErrTrackUnavailable is returned wrapping the cause.
func (l *Loader) Load(ctx context.Context, location string) error {
	data, err := l.fetch(ctx, location)
	if err != nil {
		l.logger.Warn("subtitle track fetch failed", "location", location, "error", err)
		return fmt.Errorf("%w: %v", ErrTrackUnavailable, err)
	}

	cues, err := l.decoder.Decode(data)
	if err != nil {
		l.logger.Warn("subtitle track decode failed", "location", location, "error", err)
		return fmt.Errorf("%w: %v", ErrTrackUnavailable, err)
	}

	l.store.Replace(&Track{Cues: cues})
	l.logger.Debug("subtitle track loaded", "location", location, "cues", len(cues))
	return nil
}

func (l *Loader) fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}

	// Anything without an http(s) scheme is treated as a local path
	return os.ReadFile(location)
}
