package display

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"
)

// EyeSize returns the per-eye view size for a stereo frame of w by h.
func EyeSize(w, h int) (int, int) {
	return w / 2, h
}

// Compose places the left and right eye views side by side into dst,
// which must be twice as wide as one view. With swap the right eye goes on
// the left, for cross-eyed free viewing.
func Compose(dst, left, right *image.RGBA, swap bool) {
	if swap {
		left, right = right, left
	}
	b := dst.Bounds()
	half := b.Dx() / 2
	draw.Draw(dst, image.Rect(b.Min.X, b.Min.Y, b.Min.X+half, b.Max.Y), left, left.Bounds().Min, draw.Src)
	draw.Draw(dst, image.Rect(b.Min.X+half, b.Min.Y, b.Max.X, b.Max.Y), right, right.Bounds().Min, draw.Src)
}

// FitRect returns the largest rectangle with src's aspect ratio centered
// in a w by h area.
func FitRect(srcW, srcH, w, h int) image.Rectangle {
	if srcW <= 0 || srcH <= 0 || w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	dw, dh := w, srcH*w/srcW
	if dh > h {
		dw, dh = srcW*h/srcH, h
	}
	x, y := (w-dw)/2, (h-dh)/2
	return image.Rect(x, y, x+dw, y+dh)
}

// Fit letterboxes src into a black w by h image.
func Fit(src *image.RGBA, w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.Black, image.Point{}, draw.Src)

	sb := src.Bounds()
	r := FitRect(sb.Dx(), sb.Dy(), w, h)
	if r.Empty() {
		return out
	}
	if r.Dx() == sb.Dx() && r.Dy() == sb.Dy() {
		draw.Draw(out, r, src, sb.Min, draw.Src)
		return out
	}
	scaled := resize.Resize(uint(r.Dx()), uint(r.Dy()), src, resize.Bilinear)
	draw.Draw(out, r, scaled, scaled.Bounds().Min, draw.Src)
	return out
}
