package projection

import (
	"context"
	"image"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FisheyeToEquirect maps a point of one corrected (equirectangular) eye to
// the point of the fisheye eye image it should be sampled from. Both are in
// eye-local uv, v growing upwards. The lens is treated as equidistant with
// a 180° field of view whose circle spans the eye's full height; aspectInv
// (eye height / eye width) squeezes the circle horizontally for eyes that
// are not square. ok is false when the sample falls outside the eye.
func FisheyeToEquirect(u, v, aspectInv float64) (su, sv float64, ok bool) {
	lon := (u - 0.5) * math.Pi
	lat := (v - 0.5) * math.Pi

	x := math.Cos(lat) * math.Sin(lon)
	y := math.Sin(lat)
	z := math.Cos(lat) * math.Cos(lon)

	theta := math.Acos(math.Max(-1, math.Min(1, z)))
	r := theta / math.Pi // 0.5 at 90° off-axis

	su, sv = 0.5, 0.5
	if planar := math.Hypot(x, y); planar > 1e-12 {
		su += r * (x / planar) * aspectInv
		sv += r * (y / planar)
	}
	const eps = 1e-9
	ok = theta <= math.Pi/2+eps && su >= -eps && su <= 1+eps && sv >= -eps && sv <= 1+eps
	return clamp01(su), clamp01(sv), ok
}

// RemapFisheye writes the equirectangular correction of a side-by-side
// fisheye frame src into dst, which must have the same bounds. Rows are
// spread over workers goroutines; workers <= 0 uses GOMAXPROCS.
func RemapFisheye(ctx context.Context, dst, src *image.RGBA, aspectInv float64, workers int) error {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || dst.Bounds().Size() != b.Size() {
		return ErrTargetMismatch
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	half := w / 2
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rows := range splitRows(h, workers) {
		y0, y1 := rows[0], rows[1]
		g.Go(func() error {
			var px [4]uint8
			for y := y0; y < y1; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				v := 1 - (float64(y)+0.5)/float64(h)
				for x := 0; x < w; x++ {
					x0, eyeW := 0, half
					if x >= half {
						x0, eyeW = half, w-half
					}
					u := (float64(x-x0) + 0.5) / float64(eyeW)

					su, sv, ok := FisheyeToEquirect(u, v, aspectInv)
					if ok {
						sx := float64(x0) + su*float64(eyeW) - 0.5
						sy := (1-sv)*float64(h) - 0.5
						bilinearSample(src, x0, x0+eyeW, sx, sy, px[:])
					} else {
						px = [4]uint8{0, 0, 0, 0xff}
					}
					i := dst.PixOffset(dst.Rect.Min.X+x, dst.Rect.Min.Y+y)
					copy(dst.Pix[i:i+4], px[:])
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// bilinearSample samples src at pixel-space (fx, fy) relative to its
// bounds, clamping horizontally to [xMin, xMax) so one eye never bleeds
// into the other.
func bilinearSample(src *image.RGBA, xMin, xMax int, fx, fy float64, out []uint8) {
	h := src.Rect.Dy()
	fx = math.Max(float64(xMin), math.Min(float64(xMax-1), fx))
	fy = math.Max(0, math.Min(float64(h-1), fy))

	x := int(math.Floor(fx))
	y := int(math.Floor(fy))
	tx := fx - float64(x)
	ty := fy - float64(y)
	x1, y1 := x+1, y+1
	if x1 >= xMax {
		x1, tx = x, 0
	}
	if y1 >= h {
		y1, ty = y, 0
	}

	ox, oy := src.Rect.Min.X, src.Rect.Min.Y
	i00 := src.PixOffset(ox+x, oy+y)
	i10 := src.PixOffset(ox+x1, oy+y)
	i01 := src.PixOffset(ox+x, oy+y1)
	i11 := src.PixOffset(ox+x1, oy+y1)

	w00 := (1 - tx) * (1 - ty)
	w10 := tx * (1 - ty)
	w01 := (1 - tx) * ty
	w11 := tx * ty

	for c := 0; c < 4; c++ {
		val := w00*float64(src.Pix[i00+c]) + w10*float64(src.Pix[i10+c]) +
			w01*float64(src.Pix[i01+c]) + w11*float64(src.Pix[i11+c])
		out[c] = uint8(math.Max(0, math.Min(255, val+0.5)))
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func splitRows(h, workers int) [][2]int {
	if workers < 1 {
		workers = 1
	}
	if workers > h {
		workers = h
	}
	rows := make([][2]int, 0, workers)
	step := h / workers
	start := 0
	for i := 0; i < workers; i++ {
		end := start + step
		if i == workers-1 {
			end = h
		}
		rows = append(rows, [2]int{start, end})
		start = end
	}
	return rows
}
