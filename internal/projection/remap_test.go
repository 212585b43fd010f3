package projection

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFisheyeToEquirect(t *testing.T) {
	tests := []struct {
		name           string
		u, v           float64
		wantSU, wantSV float64
	}{
		{"center", 0.5, 0.5, 0.5, 0.5},
		{"right edge", 1, 0.5, 1, 0.5},
		{"left edge", 0, 0.5, 0, 0.5},
		{"zenith", 0.5, 1, 0.5, 1},
		{"nadir", 0.5, 0, 0.5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			su, sv, ok := FisheyeToEquirect(tt.u, tt.v, 1)
			require.True(t, ok)
			assert.InDelta(t, tt.wantSU, su, 1e-9)
			assert.InDelta(t, tt.wantSV, sv, 1e-9)
		})
	}
}

func TestFisheyeToEquirectStaysInLensCircle(t *testing.T) {
	for i := 0; i <= 20; i++ {
		for j := 0; j <= 20; j++ {
			su, sv, ok := FisheyeToEquirect(float64(i)/20, float64(j)/20, 1)
			require.True(t, ok)
			r := math.Hypot(su-0.5, sv-0.5)
			assert.LessOrEqual(t, r, 0.5+1e-9)
		}
	}
}

func TestFisheyeToEquirectAspect(t *testing.T) {
	// A wide eye squeezes the lens circle horizontally.
	su, _, ok := FisheyeToEquirect(1, 0.5, 0.5)
	require.True(t, ok)
	assert.InDelta(t, 0.75, su, 1e-9)

	// A tall eye pushes the horizon edge outside the image.
	_, _, ok = FisheyeToEquirect(1, 0.5, 2)
	assert.False(t, ok)
}

func TestRemapFisheyeKeepsEyesApart(t *testing.T) {
	src := sideBySideImage(32, 16, red, blue)
	dst := image.NewRGBA(src.Rect)
	require.NoError(t, RemapFisheye(context.Background(), dst, src, 1, 3))

	assert.True(t, regionIs(dst, image.Rect(0, 0, 16, 16), red))
	assert.True(t, regionIs(dst, image.Rect(16, 0, 32, 16), blue))
}

func TestRemapFisheyeSizeMismatch(t *testing.T) {
	src := solidImage(8, 4, white)
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.ErrorIs(t, RemapFisheye(context.Background(), dst, src, 1, 1), ErrTargetMismatch)
}

func TestRemapFisheyeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := solidImage(8, 4, white)
	dst := image.NewRGBA(src.Rect)
	assert.ErrorIs(t, RemapFisheye(ctx, dst, src, 1, 2), context.Canceled)
}

func TestSplitRows(t *testing.T) {
	rows := splitRows(10, 3)
	require.Len(t, rows, 3)
	assert.Equal(t, [2]int{0, 3}, rows[0])
	assert.Equal(t, [2]int{6, 10}, rows[2])

	assert.Len(t, splitRows(2, 8), 2)
	assert.Len(t, splitRows(5, 0), 1)
}
