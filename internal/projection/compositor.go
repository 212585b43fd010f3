package projection

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	xdraw "golang.org/x/image/draw"
)

// CompositorOptions tunes the blit and correction passes.
type CompositorOptions struct {
	// Scaler resamples the source window; defaults to bilinear.
	Scaler xdraw.Scaler
	// Workers bounds the goroutines used by the fisheye correction pass.
	Workers int
}

// Compositor owns the shared render target and the fisheye correction
// buffer and executes blit plans against them. Only Reconfigure replaces
// the target; Render writes into it in place.
type Compositor struct {
	mu         sync.Mutex
	opts       CompositorOptions
	content    Content
	target     *RenderTarget
	generation uint64

	// correction buffer, kept across frames of one configuration
	scratch *image.RGBA
	// RGBA copy of non-RGBA textures for the correction pass
	staging *image.RGBA

	// texture latched by BeginFrame, shared by both eyes
	frame image.Image
	// scratch holds the remap of frame at correctedAspect
	frameCorrected  bool
	correctedAspect float64
}

// NewCompositor creates an unbound compositor.
func NewCompositor(opts CompositorOptions) *Compositor {
	if opts.Scaler == nil {
		opts.Scaler = xdraw.ApproxBiLinear
	}
	return &Compositor{opts: opts}
}

// Reconfigure binds new content. The render target is reallocated when the
// dimensions change and the correction buffer is always dropped.
func (c *Compositor) Reconfigure(content Content) error {
	if content == nil {
		return ErrUnboundSource
	}
	w, h := content.Width(), content.Height()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidContentDimensions, w, h)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	log := logger.WithComponent("compositor")
	if c.target == nil || c.target.Width() != w || c.target.Height() != h {
		c.generation++
		target := newRenderTarget(w, h, c.generation)
		if err := Clear(target, color.Black); err != nil {
			return err
		}
		c.target = target
		log.Info().
			Int("width", w).
			Int("height", h).
			Uint64("generation", c.generation).
			Msg("Render target allocated")
	} else {
		log.Debug().Int("width", w).Int("height", h).Msg("Render target reused")
	}
	c.content = content
	c.scratch = nil
	c.staging = nil
	c.frame = nil
	c.frameCorrected = false
	return nil
}

// BeginFrame latches the content's current texture. Every Render until the
// next BeginFrame or Reconfigure samples that texture, so both eyes of a
// frame show the same decoded picture.
func (c *Compositor) BeginFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.content == nil || c.target == nil {
		return ErrUnboundSource
	}
	c.frame = c.content.Texture()
	c.frameCorrected = false
	if c.frame == nil {
		return ErrNoFrame
	}
	return nil
}

// Render executes plan for eye against the shared target.
func (c *Compositor) Render(eye Eye, plan BlitPlan) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.content == nil || c.target == nil {
		return ErrUnboundSource
	}
	if c.content.Width() != c.target.Width() || c.content.Height() != c.target.Height() {
		return fmt.Errorf("%w: content %dx%d, target %dx%d", ErrTargetMismatch,
			c.content.Width(), c.content.Height(), c.target.Width(), c.target.Height())
	}
	tex := c.frame
	if tex == nil {
		tex = c.content.Texture()
	}
	if tex == nil {
		return ErrNoFrame
	}

	var src image.Image = tex
	if plan.Correction != nil {
		aspect := plan.Correction.AspectInv
		if c.frame != nil && c.frameCorrected && c.correctedAspect == aspect {
			src = c.scratch
		} else {
			corrected, err := c.correct(tex, aspect)
			if err != nil {
				return fmt.Errorf("correction pass for %s eye: %w", eye, err)
			}
			if c.frame != nil {
				c.frameCorrected, c.correctedAspect = true, aspect
			}
			src = corrected
		}
	}

	blit(c.target.RGBA, src, plan, c.opts.Scaler)
	return nil
}

// correct runs the fisheye remap of tex into the cached correction buffer.
func (c *Compositor) correct(tex image.Image, aspectInv float64) (*image.RGBA, error) {
	b := tex.Bounds()
	rgba, ok := tex.(*image.RGBA)
	if !ok {
		if c.staging == nil || c.staging.Rect.Size() != b.Size() {
			c.staging = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		}
		draw.Draw(c.staging, c.staging.Rect, tex, b.Min, draw.Src)
		rgba = c.staging
	}
	if c.scratch == nil || c.scratch.Rect.Size() != b.Size() {
		c.scratch = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	if err := RemapFisheye(context.Background(), c.scratch, rgba, aspectInv, c.opts.Workers); err != nil {
		return nil, err
	}
	return c.scratch, nil
}

// Target returns the live render target, or nil before the first
// Reconfigure. Callers on the render goroutine may sample it directly.
func (c *Compositor) Target() *RenderTarget {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Content returns the bound content, or nil.
func (c *Compositor) Content() Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}
