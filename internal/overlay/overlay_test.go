package overlay

import (
	"image"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestManager(d time.Duration) (*Manager, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	m := NewManager(d)
	m.now = clock.now
	return m, clock
}

func TestAlpha(t *testing.T) {
	d := 1500 * time.Millisecond
	tests := []struct {
		elapsed time.Duration
		want    float64
	}{
		{0, 1},
		{750 * time.Millisecond, 1},
		{1125 * time.Millisecond, 0.5},
		{1500 * time.Millisecond, 0},
		{3 * time.Second, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Alpha(tt.elapsed, d), 1e-9, tt.elapsed.String())
	}
	assert.Zero(t, Alpha(time.Second, 0))
}

func TestCurrentFades(t *testing.T) {
	m, clock := newTestManager(0)

	text, alpha := m.Current()
	assert.Empty(t, text)
	assert.Zero(t, alpha)

	m.Announce("Fisheye 180° VR")
	text, alpha = m.Current()
	assert.Equal(t, "Fisheye 180° VR", text)
	assert.Equal(t, 1.0, alpha)

	clock.t = clock.t.Add(1125 * time.Millisecond)
	_, alpha = m.Current()
	assert.InDelta(t, 0.5, alpha, 1e-9)

	clock.t = clock.t.Add(time.Second)
	text, _ = m.Current()
	assert.Empty(t, text)
}

func TestAnnounceRestartsFade(t *testing.T) {
	m, clock := newTestManager(time.Second)
	m.Announce("one")
	clock.t = clock.t.Add(900 * time.Millisecond)
	m.Announce("two")

	text, alpha := m.Current()
	assert.Equal(t, "two", text)
	assert.Equal(t, 1.0, alpha)
}

func TestSubscribers(t *testing.T) {
	m, _ := newTestManager(0)
	id, ch := m.Subscribe()

	m.Announce("Playing")
	select {
	case a := <-ch:
		assert.Equal(t, "Playing", a.Text)
		assert.Equal(t, DefaultDuration, a.Duration)
	case <-time.After(time.Second):
		t.Fatal("no announcement delivered")
	}

	m.Unsubscribe(id)
	_, open := <-ch
	assert.False(t, open)

	// unknown ids are ignored
	m.Unsubscribe(id)
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	m, _ := newTestManager(0)
	_, _ = m.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			m.Announce("spam")
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Announce blocked on a full subscriber")
	}
}

func TestAnnounceRacesUnsubscribe(t *testing.T) {
	m, _ := newTestManager(0)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				id, _ := m.Subscribe()
				m.Unsubscribe(id)
			}
		}()
	}

	assert.NotPanics(t, func() {
		deadline := time.Now().Add(200 * time.Millisecond)
		for time.Now().Before(deadline) {
			m.Announce("Playing")
		}
	})
	close(stop)
	wg.Wait()
}

func TestUnsubscribeClosesChannelOnce(t *testing.T) {
	m, _ := newTestManager(0)
	id, ch := m.Subscribe()

	m.Unsubscribe(id)
	assert.NotPanics(t, func() { m.Unsubscribe(id) })

	_, open := <-ch
	assert.False(t, open)
}

func TestRenderDrawsOnlyWhileVisible(t *testing.T) {
	m, clock := newTestManager(time.Second)
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))

	m.Render(img)
	assert.True(t, allZero(img), "nothing announced yet")

	m.Announce("Side-to-side 180° VR")
	m.Render(img)
	assert.False(t, allZero(img))

	clock.t = clock.t.Add(2 * time.Second)
	blank := image.NewRGBA(img.Rect)
	m.Render(blank)
	assert.True(t, allZero(blank))
}

func TestBlendImage(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			dst.SetRGBA(x, y, color.RGBA{A: 255})
		}
	}
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	BlendImage(dst, src, 3, 3, 0.5)
	got := dst.RGBAAt(3, 3)
	assert.InDelta(t, 128, int(got.R), 1)
	assert.Equal(t, uint8(255), got.A)
	// clipped part and untouched pixels
	assert.Equal(t, color.RGBA{A: 255}, dst.RGBAAt(2, 2))

	BlendImage(dst, src, 0, 0, 1)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, dst.RGBAAt(1, 1))
}

func TestTextWidgetCentersLabel(t *testing.T) {
	w := NewTextWidget()
	w.Scale = 1
	img := image.NewRGBA(image.Rect(0, 0, 200, 100))
	w.Render(img, "hi", 1)

	minX, maxX := 200, -1
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if img.RGBAAt(x, y).A != 0 {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
			}
		}
	}
	require.True(t, maxX >= 0)
	assert.InDelta(t, 200-1-maxX, minX, 1)
}

func allZero(img *image.RGBA) bool {
	for _, p := range img.Pix {
		if p != 0 {
			return false
		}
	}
	return true
}
