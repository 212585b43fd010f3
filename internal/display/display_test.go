package display

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

var (
	red   = color.RGBA{R: 255, A: 255}
	green = color.RGBA{G: 255, A: 255}
	black = color.RGBA{A: 255}
)

func TestCompose(t *testing.T) {
	left, right := solid(4, 3, red), solid(4, 3, green)
	dst := image.NewRGBA(image.Rect(0, 0, 8, 3))

	Compose(dst, left, right, false)
	assert.Equal(t, red, dst.RGBAAt(0, 0))
	assert.Equal(t, green, dst.RGBAAt(7, 2))

	Compose(dst, left, right, true)
	assert.Equal(t, green, dst.RGBAAt(0, 0))
	assert.Equal(t, red, dst.RGBAAt(7, 2))
}

func TestEyeSize(t *testing.T) {
	w, h := EyeSize(1920, 1080)
	assert.Equal(t, 960, w)
	assert.Equal(t, 1080, h)
}

func TestFitRect(t *testing.T) {
	tests := []struct {
		name             string
		srcW, srcH, w, h int
		want             image.Rectangle
	}{
		{"same", 100, 50, 100, 50, image.Rect(0, 0, 100, 50)},
		{"pillarbox", 100, 100, 200, 100, image.Rect(50, 0, 150, 100)},
		{"letterbox", 200, 100, 200, 200, image.Rect(0, 50, 200, 150)},
		{"empty", 0, 10, 100, 100, image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FitRect(tt.srcW, tt.srcH, tt.w, tt.h))
		})
	}
}

func TestFitScalesAndLetterboxes(t *testing.T) {
	out := Fit(solid(40, 40, red), 100, 50)
	require.Equal(t, image.Rect(0, 0, 100, 50), out.Bounds())
	assert.Equal(t, black, out.RGBAAt(5, 25))
	assert.Equal(t, black, out.RGBAAt(95, 25))
	assert.Equal(t, red, out.RGBAAt(50, 25))
}

func TestFitSameSizeCopies(t *testing.T) {
	src := solid(10, 10, green)
	out := Fit(src, 10, 10)
	assert.Equal(t, src.Pix, out.Pix)
}

func TestKeysymName(t *testing.T) {
	tests := []struct {
		sym  xproto.Keysym
		want string
	}{
		{'k', "k"},
		{'K', "k"},
		{'7', "7"},
		{0x0020, "space"},
		{0xff51, "left"},
		{0xff53, "right"},
		{0xff1b, "escape"},
		{0xffb3, "3"},
		{0xffab, "plus"},
		{0xffbe, "f1"},
		{0xffc9, "f12"},
		{0x1234, "0x1234"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, KeysymName(tt.sym))
	}
}

type fakeScreenSaver struct {
	calls []string
	err   error
}

func (f *fakeScreenSaver) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	f.calls = append(f.calls, method)
	if f.err != nil {
		return &dbus.Call{Err: f.err}
	}
	if method == screenSaverIface+".Inhibit" {
		return &dbus.Call{Body: []interface{}{uint32(42)}}
	}
	return &dbus.Call{}
}

func TestInhibitor(t *testing.T) {
	fake := &fakeScreenSaver{}
	i := &Inhibitor{obj: fake, app: "vrplayer"}

	require.NoError(t, i.Set(true))
	require.NoError(t, i.Set(true))
	assert.Equal(t, uint32(42), i.cookie)
	assert.Len(t, fake.calls, 1)

	require.NoError(t, i.Set(false))
	require.NoError(t, i.Release())
	assert.Equal(t, []string{screenSaverIface + ".Inhibit", screenSaverIface + ".UnInhibit"}, fake.calls)

	require.NoError(t, i.Close())
}

func TestInhibitorError(t *testing.T) {
	i := &Inhibitor{obj: &fakeScreenSaver{err: errors.New("no screensaver")}, app: "vrplayer"}
	assert.Error(t, i.Inhibit("test"))
	assert.False(t, i.active)
}
