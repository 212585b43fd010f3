package overlay

import (
	"image"
	"image/color"
)

// BlendImage blends src onto dst with its top-left corner at (x, y),
// scaling source alpha by opacity. Pixels outside dst are clipped.
func BlendImage(dst *image.RGBA, src *image.RGBA, x, y int, opacity float64) {
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}
	sb := src.Bounds()
	target := image.Rect(x, y, x+sb.Dx(), y+sb.Dy()).Intersect(dst.Bounds())
	if target.Empty() {
		return
	}

	for dy := target.Min.Y; dy < target.Max.Y; dy++ {
		sy := sb.Min.Y + dy - y
		for dx := target.Min.X; dx < target.Max.X; dx++ {
			sx := sb.Min.X + dx - x
			s := src.RGBAAt(sx, sy)
			alpha := float64(s.A) / 255 * opacity
			if alpha <= 0 {
				continue
			}
			d := dst.RGBAAt(dx, dy)
			dst.SetRGBA(dx, dy, over(s, d, alpha))
		}
	}
}

// over composites straight-alpha s at alpha onto d.
func over(s, d color.RGBA, alpha float64) color.RGBA {
	da := float64(d.A) / 255
	outA := alpha + da*(1-alpha)
	if outA <= 0 {
		return color.RGBA{}
	}
	mix := func(sc, dc uint8) uint8 {
		v := (float64(sc)*alpha + float64(dc)*da*(1-alpha)) / outA
		if v > 255 {
			v = 255
		}
		return uint8(v + 0.5)
	}
	return color.RGBA{
		R: mix(s.R, d.R),
		G: mix(s.G, d.G),
		B: mix(s.B, d.B),
		A: uint8(outA*255 + 0.5),
	}
}

// DrawRectangle blends a filled rectangle onto dst.
func DrawRectangle(dst *image.RGBA, r image.Rectangle, c color.RGBA, opacity float64) {
	tmp := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for i := 0; i < len(tmp.Pix); i += 4 {
		tmp.Pix[i], tmp.Pix[i+1], tmp.Pix[i+2], tmp.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	BlendImage(dst, tmp, r.Min.X, r.Min.Y, opacity)
}
