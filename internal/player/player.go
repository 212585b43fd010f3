// Package player drives the render loop: it owns the projection selector and
// compositor, feeds them decoded content, and presents the stereo frame.
package player

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/camera"
	"github.com/bryanchriswhite/VRPlayer/internal/decoder"
	"github.com/bryanchriswhite/VRPlayer/internal/display"
	"github.com/bryanchriswhite/VRPlayer/internal/input"
	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/bryanchriswhite/VRPlayer/internal/output"
	"github.com/bryanchriswhite/VRPlayer/internal/overlay"
	"github.com/bryanchriswhite/VRPlayer/internal/projection"
	xdraw "golang.org/x/image/draw"
)

var (
	// ErrContentLoadFailure is reported when neither the video decoder nor
	// the still-image fallback could load the input. Prior content is kept.
	ErrContentLoadFailure = errors.New("player: content could not be loaded")

	// ErrStopped is returned by commands issued after the loop exited.
	ErrStopped = errors.New("player: stopped")
)

// Decoder prepares media asynchronously.
type Decoder interface {
	Prepare(ctx context.Context, uri string) <-chan decoder.Event
}

// ImageLoader is the still-image fallback.
type ImageLoader func(uri string) (projection.Content, error)

// Inhibitor keeps the screensaver off while playing.
type Inhibitor interface {
	Set(playing bool) error
}

// Fullscreener toggles the display window's fullscreen state.
type Fullscreener interface {
	ToggleFullscreen() (bool, error)
}

// Options configures a Player.
type Options struct {
	FPS        int
	EyeWidth   int
	EyeHeight  int
	Workers    int
	Scaler     xdraw.Scaler
	FOV        float64
	Keymap     *input.Keymap
	Decoder    Decoder
	LoadImage  ImageLoader
	Overlay    *overlay.Manager
	Picker     FilePicker
	Inhibitor  Inhibitor
	Fullscreen Fullscreener
}

// Player runs the render goroutine. Commands from other goroutines are
// queued and applied at the next frame boundary, before any Render call.
type Player struct {
	opts       Options
	selector   *projection.Selector
	compositor *projection.Compositor
	camera     *camera.Camera
	overlay    *overlay.Manager
	keymap     *input.Keymap

	outputsMu sync.RWMutex
	outputs   []output.Output

	commands chan func()
	quit     chan struct{}
	quitOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc

	// owned by the render goroutine
	media   decoder.Media
	views   [2]*image.RGBA
	frame   *image.RGBA
	lastDir string

	mu     sync.RWMutex
	status Status
}

// New creates a player with no content bound.
func New(opts Options) (*Player, error) {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.EyeWidth <= 0 || opts.EyeHeight <= 0 {
		opts.EyeWidth, opts.EyeHeight = display.EyeSize(1920, 1080)
	}
	if opts.Keymap == nil {
		km, err := input.NewKeymap(nil)
		if err != nil {
			return nil, err
		}
		opts.Keymap = km
	}
	if opts.Overlay == nil {
		opts.Overlay = overlay.NewManager(overlay.DefaultDuration)
	}
	if opts.LoadImage == nil {
		opts.LoadImage = func(uri string) (projection.Content, error) {
			return decoder.LoadImage(uri)
		}
	}
	if opts.Picker == nil {
		opts.Picker = ZenityPicker{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		opts:     opts,
		selector: projection.NewSelector(),
		compositor: projection.NewCompositor(projection.CompositorOptions{
			Scaler:  opts.Scaler,
			Workers: opts.Workers,
		}),
		camera:   camera.New(opts.FOV, opts.Workers),
		overlay:  opts.Overlay,
		keymap:   opts.Keymap,
		commands: make(chan func(), 64),
		quit:     make(chan struct{}),
		ctx:      ctx,
		cancel:   cancel,
		frame:    image.NewRGBA(image.Rect(0, 0, opts.EyeWidth*2, opts.EyeHeight)),
	}
	for i := range p.views {
		p.views[i] = image.NewRGBA(image.Rect(0, 0, opts.EyeWidth, opts.EyeHeight))
	}
	return p, nil
}

// AddOutput registers a sink for the composed stereo frame.
func (p *Player) AddOutput(o output.Output) {
	p.outputsMu.Lock()
	defer p.outputsMu.Unlock()
	p.outputs = append(p.outputs, o)
}

// Overlay returns the announcement overlay.
func (p *Player) Overlay() *overlay.Manager {
	return p.overlay
}

// Keymap returns the active key bindings.
func (p *Player) Keymap() *input.Keymap {
	return p.keymap
}

// Done is closed once the player has been asked to quit.
func (p *Player) Done() <-chan struct{} {
	return p.quit
}

// Quit stops the render loop and any pending loads.
func (p *Player) Quit() {
	p.quitOnce.Do(func() {
		close(p.quit)
		p.cancel()
	})
}

// Run drives the render loop at the configured FPS until ctx is done or
// Quit is called.
func (p *Player) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(p.opts.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log := logger.WithComponent("player")
	log.Info().
		Int("fps", p.opts.FPS).
		Int("eye_width", p.opts.EyeWidth).
		Int("eye_height", p.opts.EyeHeight).
		Msg("Render loop started")

	defer p.shutdown()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.quit:
			return nil
		case <-ticker.C:
			p.RenderFrame(ctx)
		}
	}
}

func (p *Player) shutdown() {
	p.Quit()
	if p.media != nil {
		p.media.Close()
		p.media = nil
	}
	if p.opts.Inhibitor != nil {
		p.opts.Inhibitor.Set(false)
	}
	logger.WithComponent("player").Info().Msg("Render loop stopped")
}

// enqueue schedules fn on the render goroutine.
func (p *Player) enqueue(fn func()) error {
	select {
	case <-p.quit:
		return ErrStopped
	default:
	}
	select {
	case p.commands <- fn:
		return nil
	case <-p.quit:
		return ErrStopped
	}
}

// call runs fn on the render goroutine and waits for its result.
func (p *Player) call(fn func() error) error {
	done := make(chan error, 1)
	if err := p.enqueue(func() { done <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-p.quit:
		return ErrStopped
	}
}

// drainCommands applies every queued command.
func (p *Player) drainCommands() {
	for {
		select {
		case fn := <-p.commands:
			fn()
		default:
			return
		}
	}
}

// RenderFrame applies queued commands and latches the current decoded
// frame, then for each eye computes the active plan, renders it into the
// shared target and samples the target through the camera. The composed stereo frame is presented once, after
// both eyes.
func (p *Player) RenderFrame(ctx context.Context) {
	p.drainCommands()

	log := logger.WithComponent("player")
	strategy, bound := p.selector.Current()
	if bound {
		if err := p.compositor.BeginFrame(); err != nil {
			if !errors.Is(err, projection.ErrNoFrame) {
				log.Warn().Err(err).Msg("Frame skipped")
			}
			return
		}
	}

	for _, eye := range projection.Eyes {
		view := p.views[eye]
		if !bound {
			draw.Draw(view, view.Bounds(), image.Black, image.Point{}, draw.Src)
		} else if err := p.renderEye(ctx, strategy, eye, view); err != nil {
			if !errors.Is(err, projection.ErrNoFrame) {
				log.Warn().Err(err).Str("eye", eye.String()).Msg("Frame skipped")
			}
			return
		}
		p.overlay.Render(view)
	}

	display.Compose(p.frame, p.views[projection.Left], p.views[projection.Right], p.swapEyes())
	p.present()

	p.mu.Lock()
	p.status.Frames++
	p.mu.Unlock()
}

func (p *Player) renderEye(ctx context.Context, s projection.Strategy, eye projection.Eye, view *image.RGBA) error {
	plan, err := s.ComputePlan(eye)
	if err != nil {
		return err
	}
	if err := p.compositor.Render(eye, plan); err != nil {
		return err
	}
	target := p.compositor.Target()
	return p.camera.Render(ctx, view, target.RGBA)
}

func (p *Player) present() {
	p.outputsMu.RLock()
	outputs := make([]output.Output, len(p.outputs))
	copy(outputs, p.outputs)
	p.outputsMu.RUnlock()

	for _, o := range outputs {
		if !o.IsRunning() {
			continue
		}
		if err := o.WriteFrame(p.frame); err != nil {
			logger.WithComponent("player").Debug().Err(err).Str("output", o.Name()).Msg("Output write failed")
		}
	}
}

// Frame returns a copy of the last composed stereo frame.
func (p *Player) Frame() *image.RGBA {
	var out *image.RGBA
	p.call(func() error {
		out = image.NewRGBA(p.frame.Rect)
		copy(out.Pix, p.frame.Pix)
		return nil
	})
	return out
}

func (p *Player) swapEyes() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status.SwapEyes
}
