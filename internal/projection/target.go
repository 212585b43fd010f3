package projection

import (
	"image"
	"image/color"
	"image/draw"
)

// RenderTarget is the shared skybox texture both eye cameras sample.
type RenderTarget struct {
	*image.RGBA
	generation uint64
}

func newRenderTarget(width, height int, generation uint64) *RenderTarget {
	return &RenderTarget{
		RGBA:       image.NewRGBA(image.Rect(0, 0, width, height)),
		generation: generation,
	}
}

// Generation increases every time the compositor allocates a new target.
func (t *RenderTarget) Generation() uint64 { return t.generation }

func (t *RenderTarget) Width() int  { return t.Rect.Dx() }
func (t *RenderTarget) Height() int { return t.Rect.Dy() }

// Clear fills a render target with c. Only RenderTargets can be cleared.
func Clear(img image.Image, c color.Color) error {
	t, ok := img.(*RenderTarget)
	if !ok || t == nil || t.RGBA == nil {
		return ErrUnsupportedTargetClear
	}
	draw.Draw(t.RGBA, t.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	return nil
}
