package decoder

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/logger"
)

// ErrPlayback wraps a decoder process that exited with an error mid-stream.
var ErrPlayback = errors.New("decoder: playback failed")

var _ Media = (*Video)(nil)

// process is one ffmpeg invocation. Pause, seek and restart replace it.
type process struct {
	cmd    *exec.Cmd
	stop   chan struct{}
	single bool
}

// Video decodes a file through an ffmpeg subprocess writing raw RGBA
// frames to stdout. It implements projection.Content.
type Video struct {
	path  string
	probe Probe
	opts  Options

	mu      sync.RWMutex
	latest  *image.RGBA
	proc    *process
	playing bool
	closed  bool
	// media time at which proc started, and frames read from it since
	offset time.Duration
	frames int64
	// replaced after a mid-stream error; read on the reader goroutine
	onError func(error)
}

func newVideo(path string, probe Probe, opts Options) *Video {
	return &Video{path: path, probe: probe, opts: opts}
}

// Width returns the decoded frame width.
func (v *Video) Width() int { return v.probe.Width }

// Height returns the decoded frame height.
func (v *Video) Height() int { return v.probe.Height }

// Texture returns the latest decoded frame, or nil before the first one.
func (v *Video) Texture() image.Image {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.latest == nil {
		return nil
	}
	return v.latest
}

// Path returns the file being decoded.
func (v *Video) Path() string { return v.path }

// Probe returns the stream description.
func (v *Video) Probe() Probe { return v.probe }

// OnError sets the callback for mid-stream failures.
func (v *Video) OnError(fn func(error)) {
	v.mu.Lock()
	v.onError = fn
	v.mu.Unlock()
}

// Play resumes decoding from the current position.
func (v *Video) Play() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrNotPrepared
	}
	if v.playing {
		return nil
	}
	pos := v.positionLocked()
	if v.probe.Duration > 0 && pos >= v.probe.Duration {
		pos = 0
	}
	if err := v.startLocked(pos, false); err != nil {
		return err
	}
	v.playing = true
	return nil
}

// Pause stops decoding and keeps the last frame on screen.
func (v *Video) Pause() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.playing {
		return nil
	}
	pos := v.positionLocked()
	v.stopLocked()
	v.offset, v.frames = pos, 0
	v.playing = false
	return nil
}

// Toggle flips between playing and paused and reports the new state.
func (v *Video) Toggle() (bool, error) {
	if v.IsPlaying() {
		return false, v.Pause()
	}
	return true, v.Play()
}

// IsPlaying reports whether frames are being decoded.
func (v *Video) IsPlaying() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.playing
}

// Seek jumps to t, clamped to the stream. A paused video decodes the single
// frame at t so the display follows the seek.
func (v *Video) Seek(t time.Duration) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrNotPrepared
	}
	if t < 0 {
		t = 0
	}
	if v.probe.Duration > 0 && t > v.probe.Duration {
		t = v.probe.Duration
	}
	return v.startLocked(t, !v.playing)
}

// SeekBy moves the position by d.
func (v *Video) SeekBy(d time.Duration) error {
	return v.Seek(v.Time() + d)
}

// SeekFraction jumps to f of the total length, f in [0,1].
func (v *Video) SeekFraction(f float64) error {
	return v.Seek(time.Duration(f * float64(v.probe.Duration)))
}

// Time returns the current media position.
func (v *Video) Time() time.Duration {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.positionLocked()
}

// Length returns the stream duration, zero when unknown.
func (v *Video) Length() time.Duration {
	return v.probe.Duration
}

// Close stops decoding for good.
func (v *Video) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
	v.playing = false
	v.closed = true
	return nil
}

func (v *Video) positionLocked() time.Duration {
	pos := v.offset + time.Duration(float64(v.frames)/v.probe.FrameRate*float64(time.Second))
	if v.probe.Duration > 0 && pos > v.probe.Duration {
		return v.probe.Duration
	}
	return pos
}

func (v *Video) ffmpegArgs(offset time.Duration, single bool) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin"}
	if offset > 0 {
		args = append(args, "-ss", strconv.FormatFloat(offset.Seconds(), 'f', 3, 64))
	}
	if !single {
		args = append(args, "-re")
	}
	args = append(args, "-i", v.path, "-an")
	if single {
		args = append(args, "-frames:v", "1")
	}
	return append(args,
		"-s", fmt.Sprintf("%dx%d", v.probe.Width, v.probe.Height),
		"-pix_fmt", "rgba",
		"-f", "rawvideo",
		"pipe:1",
	)
}

func (v *Video) startLocked(offset time.Duration, single bool) error {
	v.stopLocked()

	log := logger.WithComponent("decoder")
	cmd := exec.Command(v.opts.FFmpegPath, v.ffmpegArgs(offset, single)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: failed to start ffmpeg: %v", ErrDecoderUnavailable, err)
	}

	p := &process{cmd: cmd, stop: make(chan struct{}), single: single}
	v.proc = p
	v.offset, v.frames = offset, 0

	go v.readFrames(p, stdout)
	go logStderr(stderr)

	log.Debug().
		Int("pid", cmd.Process.Pid).
		Dur("offset", offset).
		Bool("single", single).
		Msg("ffmpeg started")
	return nil
}

func (v *Video) stopLocked() {
	p := v.proc
	if p == nil {
		return
	}
	v.proc = nil
	close(p.stop)
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
}

// readFrames reads raw RGBA frames until the process exits, then reaps it.
func (v *Video) readFrames(p *process, stdout io.Reader) {
	log := logger.WithComponent("decoder")

	frameSize := v.probe.Width * v.probe.Height * 4
	reader := bufio.NewReaderSize(stdout, frameSize)

	var readErr error
	for {
		img := image.NewRGBA(image.Rect(0, 0, v.probe.Width, v.probe.Height))
		if _, err := io.ReadFull(reader, img.Pix); err != nil {
			if err != io.EOF {
				readErr = err
			}
			break
		}

		v.mu.Lock()
		if v.proc != p {
			v.mu.Unlock()
			break
		}
		v.latest = img
		if !p.single {
			v.frames++
		}
		v.mu.Unlock()
	}

	waitErr := p.cmd.Wait()

	select {
	case <-p.stop:
		return
	default:
	}

	if waitErr == nil && readErr == io.ErrUnexpectedEOF {
		log.Debug().Msg("Truncated final frame")
		readErr = nil
	}
	if waitErr != nil || readErr != nil {
		err := waitErr
		if err == nil {
			err = readErr
		}
		v.fail(p, fmt.Errorf("%w: %s: %v", ErrPlayback, v.path, err))
		return
	}
	v.endOfStream(p)
}

func (v *Video) endOfStream(p *process) {
	log := logger.WithComponent("decoder")

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.proc != p {
		return
	}
	v.offset, v.frames = v.positionLocked(), 0
	v.proc = nil

	if p.single || !v.playing {
		return
	}
	if v.opts.Loop {
		log.Debug().Str("path", v.path).Msg("Looping")
		if err := v.startLocked(0, false); err != nil {
			v.playing = false
			log.Error().Err(err).Msg("Failed to restart for loop")
		}
		return
	}
	v.playing = false
	log.Info().Str("path", v.path).Msg("End of stream")
}

func (v *Video) fail(p *process, err error) {
	v.mu.Lock()
	if v.proc != p {
		v.mu.Unlock()
		return
	}
	v.offset, v.frames = v.positionLocked(), 0
	v.proc = nil
	v.playing = false
	onError := v.onError
	v.mu.Unlock()

	logger.WithComponent("decoder").Error().Err(err).Msg("Decoder process failed")
	if onError != nil {
		onError(err)
	}
}

// logStderr forwards ffmpeg diagnostics to the log.
func logStderr(stderr io.Reader) {
	log := logger.WithComponent("decoder")
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		log.Warn().Str("ffmpeg", line).Msg("ffmpeg message")
	}
}
