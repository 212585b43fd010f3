package decoder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/bryanchriswhite/VRPlayer/internal/projection"
)

var (
	// ErrNotVideo marks input ffprobe cannot treat as a video stream,
	// including still images it recognizes.
	ErrNotVideo = errors.New("decoder: not a playable video")

	// ErrDecoderUnavailable is returned when ffmpeg or ffprobe is missing.
	ErrDecoderUnavailable = errors.New("decoder: ffmpeg not available")

	// ErrNotPrepared is returned by playback controls on a closed video.
	ErrNotPrepared = errors.New("decoder: video not prepared")

	// ErrNotImage is returned when the still-image fallback cannot decode.
	ErrNotImage = errors.New("decoder: not a supported image")
)

// Unplayable reports whether err means the input should be retried as a
// still image rather than reported.
func Unplayable(err error) bool {
	return errors.Is(err, ErrNotVideo) || errors.Is(err, ErrDecoderUnavailable)
}

// Options configures the external tools.
type Options struct {
	FFmpegPath  string
	FFprobePath string
	// Loop restarts playback from the beginning at end of stream.
	Loop bool
}

// Media is prepared, controllable content. *Video implements it.
type Media interface {
	projection.Content
	Toggle() (bool, error)
	IsPlaying() bool
	SeekBy(d time.Duration) error
	SeekFraction(f float64) error
	Time() time.Duration
	Length() time.Duration
	OnError(fn func(error))
	Close() error
}

// Event is the single result of Prepare.
type Event struct {
	URI string
	// Media is set on success.
	Media Media
	Err   error
}

// Content returns the prepared content, or nil on failure.
func (e Event) Content() projection.Content {
	if e.Media == nil {
		return nil
	}
	return e.Media
}

// Decoder opens media files through ffprobe/ffmpeg subprocesses.
type Decoder struct {
	opts Options
}

// New creates a decoder; empty tool paths default to the binaries on PATH.
func New(opts Options) *Decoder {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}
	return &Decoder{opts: opts}
}

// Prepare probes and starts decoding uri in the background. The returned
// channel delivers exactly one Event and is then closed.
func (d *Decoder) Prepare(ctx context.Context, uri string) <-chan Event {
	ch := make(chan Event, 1)
	go func() {
		defer close(ch)
		ev := Event{URI: uri}
		if v, err := d.open(ctx, uri); err != nil {
			ev.Err = err
		} else {
			ev.Media = v
		}
		ch <- ev
	}()
	return ch
}

func (d *Decoder) open(ctx context.Context, uri string) (*Video, error) {
	log := logger.WithComponent("decoder")
	path := PathFromURI(uri)

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	ffprobe, err := exec.LookPath(d.opts.FFprobePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoderUnavailable, err)
	}
	ffmpeg, err := exec.LookPath(d.opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecoderUnavailable, err)
	}

	probe, err := ProbeFile(ctx, ffprobe, path)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("path", path).
		Int("width", probe.Width).
		Int("height", probe.Height).
		Float64("fps", probe.FrameRate).
		Dur("duration", probe.Duration).
		Str("codec", probe.Codec).
		Msg("Video prepared")

	opts := d.opts
	opts.FFmpegPath = ffmpeg
	v := newVideo(path, probe, opts)
	if err := v.Play(); err != nil {
		return nil, err
	}
	return v, nil
}

// PathFromURI strips a file:// scheme.
func PathFromURI(uri string) string {
	return strings.TrimPrefix(uri, "file://")
}
