// Package camera renders the eye views: a pinhole camera inside the
// equirectangular render target, steered by yaw, pitch and field of view.
package camera

import (
	"context"
	"errors"
	"image"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

const (
	// MaxPitch bounds looking up or down, in degrees.
	MaxPitch = 70.0
	MinFOV   = 30.0
	MaxFOV   = 120.0

	// Center180 and Center360 are the target u straight ahead of a camera
	// at zero yaw: 180° content fills the left half of the target.
	Center180 = 0.25
	Center360 = 0.5
)

// ErrEmptyView is returned when asked to render into or from an empty image.
var ErrEmptyView = errors.New("camera: empty image")

// Camera samples the render target for one head pose. Both eyes share it.
type Camera struct {
	mu      sync.Mutex
	yaw     float64 // degrees, positive turns right
	pitch   float64 // degrees, positive looks up
	fov     float64 // vertical, degrees
	baseFOV float64
	center  float64
	workers int

	lut    []float32
	lutKey lutKey
}

type lutKey struct {
	w, h                    int
	yaw, pitch, fov, center float64
}

// New creates a camera with the given vertical field of view.
func New(fov float64, workers int) *Camera {
	fov = clamp(fov, MinFOV, MaxFOV)
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Camera{fov: fov, baseFOV: fov, center: Center180, workers: workers}
}

// Pose returns yaw, pitch and field of view in degrees.
func (c *Camera) Pose() (yaw, pitch, fov float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.yaw, c.pitch, c.fov
}

// Rotate turns the camera; pitch is clamped to ±MaxPitch, yaw wraps.
func (c *Camera) Rotate(dYaw, dPitch float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yaw = math.Mod(c.yaw+dYaw+540, 360) - 180
	c.pitch = clamp(c.pitch+dPitch, -MaxPitch, MaxPitch)
}

// Zoom changes the field of view by delta degrees; negative zooms in.
func (c *Camera) Zoom(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = clamp(c.fov+delta, MinFOV, MaxFOV)
}

// SetCenter sets the target u seen straight ahead.
func (c *Camera) SetCenter(u float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.center = u
}

// Reset looks straight ahead with the configured field of view.
func (c *Camera) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.yaw, c.pitch, c.fov = 0, 0, c.baseFOV
}

// Render fills dst with the view into src, an equirectangular image
// covering 360° by 180°.
func (c *Camera) Render(ctx context.Context, dst, src *image.RGBA) error {
	db, sb := dst.Bounds(), src.Bounds()
	if db.Empty() || sb.Empty() {
		return ErrEmptyView
	}
	w, h := db.Dx(), db.Dy()

	c.mu.Lock()
	key := lutKey{w: w, h: h, yaw: c.yaw, pitch: c.pitch, fov: c.fov, center: c.center}
	if c.lut == nil || c.lutKey != key {
		c.lut = buildLUT(key)
		c.lutKey = key
	}
	lut := c.lut
	workers := c.workers
	c.mu.Unlock()

	sw, sh := float64(sb.Dx()), float64(sb.Dy())
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rows := range splitRows(h, workers) {
		y0, y1 := rows[0], rows[1]
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for x := 0; x < w; x++ {
					k := (y*w + x) * 2
					u, v := float64(lut[k]), float64(lut[k+1])
					i := dst.PixOffset(db.Min.X+x, db.Min.Y+y)
					sampleWrap(src, u*sw-0.5, (1-v)*sh-0.5, dst.Pix[i:i+4])
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// buildLUT stores the target uv seen through every view pixel.
func buildLUT(k lutKey) []float32 {
	lut := make([]float32, k.w*k.h*2)
	tanHalf := math.Tan(k.fov * math.Pi / 360)
	aspect := float64(k.w) / float64(k.h)
	sy, cy := math.Sincos(k.yaw * math.Pi / 180)
	sp, cp := math.Sincos(k.pitch * math.Pi / 180)

	for y := 0; y < k.h; y++ {
		ny := (1 - 2*(float64(y)+0.5)/float64(k.h)) * tanHalf
		for x := 0; x < k.w; x++ {
			nx := (2*(float64(x)+0.5)/float64(k.w) - 1) * tanHalf * aspect
			u, v := DirectionToUV(rotate(nx, ny, 1, sy, cy, sp, cp), k.center)
			lut[(y*k.w+x)*2] = float32(u)
			lut[(y*k.w+x)*2+1] = float32(v)
		}
	}
	return lut
}

// rotate applies pitch about x, then yaw about y.
func rotate(x, y, z, sy, cy, sp, cp float64) [3]float64 {
	y, z = y*cp+z*sp, -y*sp+z*cp
	x, z = x*cy+z*sy, -x*sy+z*cy
	return [3]float64{x, y, z}
}

// DirectionToUV maps a view direction (x right, y up, z forward) to target
// uv, v growing upwards, with center the u seen straight ahead.
func DirectionToUV(d [3]float64, center float64) (u, v float64) {
	n := math.Sqrt(d[0]*d[0] + d[1]*d[1] + d[2]*d[2])
	lon := math.Atan2(d[0], d[2])
	lat := math.Asin(clamp(d[1]/n, -1, 1))
	u = center + lon/(2*math.Pi)
	u -= math.Floor(u)
	v = lat/math.Pi + 0.5
	return u, v
}

// sampleWrap is a bilinear lookup that wraps horizontally across the seam
// and clamps vertically at the poles.
func sampleWrap(src *image.RGBA, fx, fy float64, out []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	fy = clamp(fy, 0, float64(h-1))

	x0f := math.Floor(fx)
	tx := fx - x0f
	x0 := mod(int(x0f), w)
	x1 := mod(x0+1, w)
	y0 := int(math.Floor(fy))
	ty := fy - float64(y0)
	y1 := y0 + 1
	if y1 >= h {
		y1, ty = y0, 0
	}

	ox, oy := src.Rect.Min.X, src.Rect.Min.Y
	i00 := src.PixOffset(ox+x0, oy+y0)
	i10 := src.PixOffset(ox+x1, oy+y0)
	i01 := src.PixOffset(ox+x0, oy+y1)
	i11 := src.PixOffset(ox+x1, oy+y1)
	w00, w10 := (1-tx)*(1-ty), tx*(1-ty)
	w01, w11 := (1-tx)*ty, tx*ty

	for c := 0; c < 4; c++ {
		val := w00*float64(src.Pix[i00+c]) + w10*float64(src.Pix[i10+c]) +
			w01*float64(src.Pix[i01+c]) + w11*float64(src.Pix[i11+c])
		out[c] = uint8(clamp(val+0.5, 0, 255))
	}
}

func mod(a, n int) int {
	a %= n
	if a < 0 {
		a += n
	}
	return a
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func splitRows(h, workers int) [][2]int {
	if workers > h {
		workers = h
	}
	rows := make([][2]int, 0, workers)
	for i := 0; i < workers; i++ {
		rows = append(rows, [2]int{h * i / workers, h * (i + 1) / workers})
	}
	return rows
}
