package camera

import (
	"context"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// halves returns an equirect target whose left half is red, right half blue.
func halves(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.SetRGBA(x, y, red)
			} else {
				img.SetRGBA(x, y, blue)
			}
		}
	}
	return img
}

func TestDirectionToUV(t *testing.T) {
	tests := []struct {
		name   string
		dir    [3]float64
		center float64
		u, v   float64
	}{
		{"ahead 180", [3]float64{0, 0, 1}, Center180, 0.25, 0.5},
		{"ahead 360", [3]float64{0, 0, 1}, Center360, 0.5, 0.5},
		{"right", [3]float64{1, 0, 0}, Center180, 0.5, 0.5},
		{"left wraps", [3]float64{-1, 0, 0}, Center180, 0, 0.5},
		{"up", [3]float64{0, 1, 0}, Center180, 0.25, 1},
		{"down", [3]float64{0, -1, 0}, Center180, 0.25, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, v := DirectionToUV(tt.dir, tt.center)
			assert.InDelta(t, tt.u, math.Mod(u, 1), 1e-9)
			assert.InDelta(t, tt.v, v, 1e-9)
		})
	}
}

func TestRotateClampsPitchAndWrapsYaw(t *testing.T) {
	c := New(90, 1)
	c.Rotate(0, 100)
	_, pitch, _ := c.Pose()
	assert.Equal(t, MaxPitch, pitch)

	c.Rotate(0, -200)
	_, pitch, _ = c.Pose()
	assert.Equal(t, -MaxPitch, pitch)

	c.Rotate(190, 0)
	yaw, _, _ := c.Pose()
	assert.InDelta(t, -170, yaw, 1e-9)
}

func TestZoomAndReset(t *testing.T) {
	c := New(90, 1)
	c.Zoom(-100)
	_, _, fov := c.Pose()
	assert.Equal(t, MinFOV, fov)
	c.Zoom(500)
	_, _, fov = c.Pose()
	assert.Equal(t, MaxFOV, fov)

	c.Rotate(30, 20)
	c.Reset()
	yaw, pitch, fov := c.Pose()
	assert.Zero(t, yaw)
	assert.Zero(t, pitch)
	assert.Equal(t, 90.0, fov)

	assert.Equal(t, MinFOV, New(1, 1).baseFOV)
}

func TestRenderLooksAtFrontHemisphere(t *testing.T) {
	src := halves(256, 128)
	c := New(60, 2)

	dst := image.NewRGBA(image.Rect(0, 0, 32, 32))
	require.NoError(t, c.Render(context.Background(), dst, src))
	assert.Equal(t, red, dst.RGBAAt(16, 16))

	c.Rotate(180, 0)
	require.NoError(t, c.Render(context.Background(), dst, src))
	assert.Equal(t, blue, dst.RGBAAt(16, 16))
}

func TestRenderCenter360(t *testing.T) {
	src := halves(256, 128)
	c := New(60, 1)
	c.SetCenter(Center360)

	// straight ahead lands on the seam between the halves
	dst := image.NewRGBA(image.Rect(0, 0, 33, 33))
	require.NoError(t, c.Render(context.Background(), dst, src))
	assert.Equal(t, red, dst.RGBAAt(2, 16))
	assert.Equal(t, blue, dst.RGBAAt(30, 16))
}

func TestRenderReusesLookupUntilPoseChanges(t *testing.T) {
	src := halves(64, 32)
	c := New(90, 1)
	dst := image.NewRGBA(image.Rect(0, 0, 8, 8))

	require.NoError(t, c.Render(context.Background(), dst, src))
	first := &c.lut[0]
	require.NoError(t, c.Render(context.Background(), dst, src))
	assert.Same(t, first, &c.lut[0])

	c.Rotate(10, 0)
	require.NoError(t, c.Render(context.Background(), dst, src))
	assert.NotSame(t, first, &c.lut[0])
}

func TestRenderErrors(t *testing.T) {
	c := New(90, 1)
	assert.ErrorIs(t, c.Render(context.Background(), &image.RGBA{}, halves(4, 2)), ErrEmptyView)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.Render(ctx, image.NewRGBA(image.Rect(0, 0, 4, 4)), halves(4, 2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitRows(t *testing.T) {
	rows := splitRows(10, 3)
	require.Len(t, rows, 3)
	assert.Equal(t, 0, rows[0][0])
	assert.Equal(t, 10, rows[2][1])
	for i := 1; i < len(rows); i++ {
		assert.Equal(t, rows[i-1][1], rows[i][0])
	}
	assert.Len(t, splitRows(2, 8), 2)
}
