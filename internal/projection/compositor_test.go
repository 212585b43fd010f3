package projection

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xdraw "golang.org/x/image/draw"
)

func newTestCompositor() *Compositor {
	return NewCompositor(CompositorOptions{Scaler: xdraw.NearestNeighbor, Workers: 2})
}

func renderEye(t *testing.T, c *Compositor, s Strategy, eye Eye) {
	t.Helper()
	plan, err := s.ComputePlan(eye)
	require.NoError(t, err)
	require.NoError(t, c.Render(eye, plan))
}

func TestCompositorSideBySide(t *testing.T) {
	content := NewImageContent(sideBySideImage(8, 4, red, blue))
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(content))
	s := New(SideBySide180, content)

	target := c.Target()
	leftHalf := image.Rect(0, 0, 4, 4)
	rightHalf := image.Rect(4, 0, 8, 4)

	renderEye(t, c, s, Left)
	assert.True(t, regionIs(target.RGBA, leftHalf, red))
	assert.True(t, regionIs(target.RGBA, rightHalf, black))

	renderEye(t, c, s, Right)
	assert.True(t, regionIs(target.RGBA, leftHalf, blue))
	assert.True(t, regionIs(target.RGBA, rightHalf, black))
}

func TestCompositorFillOverwritesStalePixels(t *testing.T) {
	content := NewImageContent(sideBySideImage(8, 4, red, blue))
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(content))

	// A full-target 360 pass leaves the right half painted...
	renderEye(t, c, New(TopBottom360, content), Left)
	// ...and a 180 pass must blank it again.
	renderEye(t, c, New(SideBySide180, content), Left)
	assert.True(t, regionIs(c.Target().RGBA, image.Rect(4, 0, 8, 4), black))
}

func TestCompositorTopBottom(t *testing.T) {
	content := NewImageContent(topBottomImage(4, 8, green, yellow))
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(content))
	s := New(TopBottom360, content)
	all := image.Rect(0, 0, 4, 8)

	renderEye(t, c, s, Left)
	assert.True(t, regionIs(c.Target().RGBA, all, green))

	renderEye(t, c, s, Right)
	assert.True(t, regionIs(c.Target().RGBA, all, yellow))
}

func TestCompositorNoFillLeavesPixels(t *testing.T) {
	content := NewImageContent(solidImage(8, 4, white))
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(content))

	plan := BlitPlan{Source: FullRect, Dest: UVRect{0, 0, 0.5, 1}}
	require.NoError(t, c.Render(Left, plan))
	assert.True(t, regionIs(c.Target().RGBA, image.Rect(0, 0, 4, 4), white))
	// Target starts cleared to black and nothing wrote the right half.
	assert.True(t, regionIs(c.Target().RGBA, image.Rect(4, 0, 8, 4), black))
}

func TestCompositorFullDestIgnoresFill(t *testing.T) {
	content := NewImageContent(solidImage(8, 4, white))
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(content))

	fillColor := red
	plan := BlitPlan{Source: FullRect, Dest: FullRect, Fill: &fillColor}
	require.NoError(t, c.Render(Left, plan))
	assert.True(t, regionIs(c.Target().RGBA, image.Rect(0, 0, 8, 4), white))
}

func TestCompositorFisheye(t *testing.T) {
	content := NewImageContent(solidImage(8, 4, white))
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(content))
	s := New(Fisheye180, content)

	for _, eye := range Eyes {
		renderEye(t, c, s, eye)
		assert.True(t, regionIs(c.Target().RGBA, image.Rect(0, 0, 4, 4), white), eye.String())
		assert.True(t, regionIs(c.Target().RGBA, image.Rect(4, 0, 8, 4), black), eye.String())
	}
}

func TestCompositorFisheyeNonRGBATexture(t *testing.T) {
	gray := image.NewGray(image.Rect(0, 0, 8, 4))
	for i := range gray.Pix {
		gray.Pix[i] = 0xff
	}
	content := NewImageContent(gray)
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(content))
	renderEye(t, c, New(Fisheye180, content), Left)
	assert.True(t, regionIs(c.Target().RGBA, image.Rect(0, 0, 4, 4), white))
}

func TestCompositorUnbound(t *testing.T) {
	c := newTestCompositor()
	err := c.Render(Left, BlitPlan{Source: FullRect, Dest: FullRect})
	assert.ErrorIs(t, err, ErrUnboundSource)
	assert.Nil(t, c.Target())

	assert.ErrorIs(t, c.Reconfigure(nil), ErrUnboundSource)
	assert.ErrorIs(t, c.Reconfigure(&resizableContent{w: -1, h: 4}), ErrInvalidContentDimensions)
}

func TestCompositorNoFrameYet(t *testing.T) {
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(&resizableContent{w: 8, h: 4}))
	err := c.Render(Left, BlitPlan{Source: FullRect, Dest: FullRect})
	assert.ErrorIs(t, err, ErrNoFrame)
}

func TestCompositorBeginFrameLatchesTexture(t *testing.T) {
	content := &flippingContent{w: 8, h: 4, texes: []image.Image{
		solidImage(8, 4, red),
		solidImage(8, 4, green),
	}}
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(content))
	s := New(SideBySide180, content)
	leftHalf := image.Rect(0, 0, 4, 4)

	require.NoError(t, c.BeginFrame())
	renderEye(t, c, s, Left)
	assert.True(t, regionIs(c.Target().RGBA, leftHalf, red))
	renderEye(t, c, s, Right)
	assert.True(t, regionIs(c.Target().RGBA, leftHalf, red))
	assert.Equal(t, 1, content.reads)

	// The next frame picks up the decoder's newer picture for both eyes.
	require.NoError(t, c.BeginFrame())
	renderEye(t, c, s, Left)
	assert.True(t, regionIs(c.Target().RGBA, leftHalf, green))
	renderEye(t, c, s, Right)
	assert.True(t, regionIs(c.Target().RGBA, leftHalf, green))
	assert.Equal(t, 2, content.reads)
}

func TestCompositorBeginFrameFisheyeSharesCorrection(t *testing.T) {
	content := &flippingContent{w: 8, h: 4, texes: []image.Image{
		solidImage(8, 4, white),
		solidImage(8, 4, blue),
	}}
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(content))
	s := New(Fisheye180, content)
	leftHalf := image.Rect(0, 0, 4, 4)

	require.NoError(t, c.BeginFrame())
	for _, eye := range Eyes {
		renderEye(t, c, s, eye)
		assert.True(t, regionIs(c.Target().RGBA, leftHalf, white), eye.String())
	}

	require.NoError(t, c.BeginFrame())
	for _, eye := range Eyes {
		renderEye(t, c, s, eye)
		assert.True(t, regionIs(c.Target().RGBA, leftHalf, blue), eye.String())
	}
}

func TestCompositorBeginFrameErrors(t *testing.T) {
	c := newTestCompositor()
	assert.ErrorIs(t, c.BeginFrame(), ErrUnboundSource)

	require.NoError(t, c.Reconfigure(&resizableContent{w: 8, h: 4}))
	assert.ErrorIs(t, c.BeginFrame(), ErrNoFrame)
}

func TestCompositorReconfigureDropsLatchedFrame(t *testing.T) {
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(NewImageContent(solidImage(8, 4, red))))
	require.NoError(t, c.BeginFrame())

	require.NoError(t, c.Reconfigure(NewImageContent(solidImage(8, 4, green))))
	require.NoError(t, c.Render(Left, BlitPlan{Source: FullRect, Dest: FullRect}))
	assert.True(t, regionIs(c.Target().RGBA, image.Rect(0, 0, 8, 4), green))
}

func TestCompositorReconfigureResizesTarget(t *testing.T) {
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(NewImageContent(solidImage(8, 4, red))))
	first := c.Target()
	assert.Equal(t, 8, first.Width())
	assert.Equal(t, 4, first.Height())

	// Same dimensions keep the target.
	require.NoError(t, c.Reconfigure(NewImageContent(solidImage(8, 4, blue))))
	assert.Same(t, first, c.Target())

	next := NewImageContent(solidImage(16, 16, green))
	require.NoError(t, c.Reconfigure(next))
	second := c.Target()
	assert.NotSame(t, first, second)
	assert.Greater(t, second.Generation(), first.Generation())

	// Both eyes render immediately against a target sized for the new content.
	s := New(TopBottom360, next)
	for _, eye := range Eyes {
		renderEye(t, c, s, eye)
		assert.Equal(t, next.Width(), c.Target().Width())
		assert.Equal(t, next.Height(), c.Target().Height())
	}
}

func TestCompositorDetectsResizedContent(t *testing.T) {
	content := &resizableContent{w: 8, h: 4, tex: solidImage(8, 4, white)}
	c := newTestCompositor()
	require.NoError(t, c.Reconfigure(content))

	content.w, content.h = 16, 8
	err := c.Render(Left, BlitPlan{Source: FullRect, Dest: FullRect})
	assert.ErrorIs(t, err, ErrTargetMismatch)
}

func TestClear(t *testing.T) {
	target := newRenderTarget(4, 4, 1)
	require.NoError(t, Clear(target, color.RGBA{1, 2, 3, 4}))
	assert.Equal(t, color.RGBA{1, 2, 3, 4}, target.RGBAAt(3, 3))

	err := Clear(image.NewRGBA(image.Rect(0, 0, 4, 4)), color.Black)
	assert.ErrorIs(t, err, ErrUnsupportedTargetClear)
}

func TestParseFilter(t *testing.T) {
	for _, name := range []string{"", "nearest", "bilinear", "catmullrom", "Bicubic"} {
		s, err := ParseFilter(name)
		require.NoError(t, err, name)
		assert.NotNil(t, s)
	}
	_, err := ParseFilter("lanczos")
	assert.Error(t, err)
}
