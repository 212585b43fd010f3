package overlay

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// TextWidget draws one line of text on a translucent box, centered
// horizontally on the target image.
type TextWidget struct {
	TextColor color.RGBA
	// Background is optional; nil draws the text alone.
	Background *color.RGBA
	Padding    int
	// Scale multiplies the 7x13 bitmap font; 0 picks one from the image height.
	Scale int
	// Anchor is the vertical position of the box center, as a fraction of the
	// image height.
	Anchor float64
}

// NewTextWidget returns the announcement style: white on dark grey,
// slightly below the view center.
func NewTextWidget() *TextWidget {
	bg := color.RGBA{R: 16, G: 16, B: 16, A: 200}
	return &TextWidget{
		TextColor:  color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Background: &bg,
		Padding:    5,
		Anchor:     0.6,
	}
}

// Render draws text onto img with the given opacity.
func (w *TextWidget) Render(img *image.RGBA, text string, opacity float64) {
	if text == "" || opacity <= 0 {
		return
	}

	label := renderLabel(text, w.TextColor, w.Background, w.Padding)

	scale := w.Scale
	if scale <= 0 {
		scale = autoScale(img.Bounds().Dy())
	}
	if scale > 1 {
		lb := label.Bounds()
		scaled := image.NewRGBA(image.Rect(0, 0, lb.Dx()*scale, lb.Dy()*scale))
		xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), label, lb, xdraw.Src, nil)
		label = scaled
	}

	b := img.Bounds()
	lb := label.Bounds()
	x := b.Min.X + (b.Dx()-lb.Dx())/2
	y := b.Min.Y + int(float64(b.Dy())*w.Anchor) - lb.Dy()/2
	BlendImage(img, label, x, y, opacity)
}

// renderLabel draws text at 1x with its padded background.
func renderLabel(text string, fg color.RGBA, bg *color.RGBA, padding int) *image.RGBA {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	textWidthPx := d.MeasureString(text).Ceil()
	height := face.Metrics().Height.Ceil()

	label := image.NewRGBA(image.Rect(0, 0, textWidthPx+padding*2, height+padding*2))
	if bg != nil {
		DrawRectangle(label, label.Bounds(), *bg, 1)
	}

	d.Dst = label
	d.Src = image.NewUniform(fg)
	d.Dot = fixed.Point26_6{
		X: fixed.I(padding),
		Y: fixed.I(padding) + face.Metrics().Ascent,
	}
	d.DrawString(text)
	return label
}

// autoScale keeps the label readable as the eye view grows.
func autoScale(height int) int {
	s := height / 270
	if s < 1 {
		return 1
	}
	return s
}
