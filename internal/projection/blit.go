package projection

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// ParseFilter returns the resampling kernel for a config filter name.
func ParseFilter(name string) (xdraw.Scaler, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest":
		return xdraw.NearestNeighbor, nil
	case "", "bilinear":
		return xdraw.ApproxBiLinear, nil
	case "catmullrom", "bicubic":
		return xdraw.CatmullRom, nil
	}
	return nil, fmt.Errorf("unknown filter %q (use nearest, bilinear or catmullrom)", name)
}

// blit copies the plan's source window of src into its destination window
// of dst and fills the rest of dst when the plan has a fill color.
func blit(dst *image.RGBA, src image.Image, plan BlitPlan, scaler xdraw.Scaler) {
	sb := src.Bounds()
	srcRect := plan.Source.Pixels(sb.Dx(), sb.Dy()).Add(sb.Min)
	db := dst.Bounds()
	dstRect := plan.Dest.Pixels(db.Dx(), db.Dy()).Add(db.Min)

	if !srcRect.Empty() && !dstRect.Empty() {
		scaler.Scale(dst, dstRect, src, srcRect, draw.Src, nil)
	}
	if plan.Fill != nil && !plan.Dest.Covers() {
		fill(dst, dstRect, *plan.Fill)
	}
}

// fill paints every pixel of dst outside keep.
func fill(dst *image.RGBA, keep image.Rectangle, c color.RGBA) {
	b := dst.Bounds()
	keep = keep.Intersect(b)
	u := image.NewUniform(c)
	if keep.Empty() {
		draw.Draw(dst, b, u, image.Point{}, draw.Src)
		return
	}
	for _, r := range []image.Rectangle{
		image.Rect(b.Min.X, b.Min.Y, b.Max.X, keep.Min.Y),       // above
		image.Rect(b.Min.X, keep.Max.Y, b.Max.X, b.Max.Y),       // below
		image.Rect(b.Min.X, keep.Min.Y, keep.Min.X, keep.Max.Y), // left
		image.Rect(keep.Max.X, keep.Min.Y, b.Max.X, keep.Max.Y), // right
	} {
		if !r.Empty() {
			draw.Draw(dst, r, u, image.Point{}, draw.Src)
		}
	}
}
