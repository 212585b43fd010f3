package projection

import (
	"image"
	"image/color"
	"image/draw"
)

var (
	red    = color.RGBA{0xff, 0, 0, 0xff}
	blue   = color.RGBA{0, 0, 0xff, 0xff}
	green  = color.RGBA{0, 0xff, 0, 0xff}
	yellow = color.RGBA{0xff, 0xff, 0, 0xff}
	white  = color.RGBA{0xff, 0xff, 0xff, 0xff}
	black  = color.RGBA{0, 0, 0, 0xff}
)

func rectInts(r image.Rectangle) [4]int {
	return [4]int{r.Min.X, r.Min.Y, r.Max.X, r.Max.Y}
}

// sideBySideImage paints the left half l and the right half r.
func sideBySideImage(w, h int, l, r color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, image.Rect(0, 0, w/2, h), image.NewUniform(l), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(w/2, 0, w, h), image.NewUniform(r), image.Point{}, draw.Src)
	return img
}

// topBottomImage paints the top half t and the bottom half b.
func topBottomImage(w, h int, t, b color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, image.Rect(0, 0, w, h/2), image.NewUniform(t), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(0, h/2, w, h), image.NewUniform(b), image.Point{}, draw.Src)
	return img
}

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

// regionIs reports whether every pixel of r in img equals c.
func regionIs(img *image.RGBA, r image.Rectangle, c color.RGBA) bool {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) != c {
				return false
			}
		}
	}
	return true
}

// resizableContent lets tests change dimensions behind the compositor's back.
type resizableContent struct {
	w, h int
	tex  image.Image
}

func (c *resizableContent) Width() int           { return c.w }
func (c *resizableContent) Height() int          { return c.h }
func (c *resizableContent) Texture() image.Image { return c.tex }

// flippingContent hands out its textures in turn, one per Texture call,
// like a decoder that advances between reads.
type flippingContent struct {
	w, h  int
	texes []image.Image
	reads int
}

func (c *flippingContent) Width() int  { return c.w }
func (c *flippingContent) Height() int { return c.h }
func (c *flippingContent) Texture() image.Image {
	tex := c.texes[c.reads%len(c.texes)]
	c.reads++
	return tex
}
