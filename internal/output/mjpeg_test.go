package output

import (
	"bufio"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMJPEGLifecycle(t *testing.T) {
	m := NewMJPEGOutput(Config{FPS: 30})
	assert.False(t, m.IsRunning())
	assert.Error(t, m.WriteFrame(image.NewRGBA(image.Rect(0, 0, 2, 2))))

	require.NoError(t, m.Start())
	assert.Error(t, m.Start())
	assert.True(t, m.IsRunning())

	require.NoError(t, m.Stop())
	require.NoError(t, m.Stop())
	assert.False(t, m.IsRunning())
}

func TestMJPEGStreamsFrames(t *testing.T) {
	m := NewMJPEGOutput(Config{FPS: 30, Quality: 90})
	require.NoError(t, m.Start())
	t.Cleanup(func() { m.Stop() })

	srv := httptest.NewServer(m.GetHTTPHandler())
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "multipart/x-mixed-replace; boundary=frame", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return m.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	frame := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			frame.SetRGBA(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	require.NoError(t, m.WriteFrame(frame))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "--frame\r\n", line)
	for {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if line == "\r\n" {
			break
		}
	}
	img, err := jpeg.Decode(reader)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
}

func TestMJPEGRefusesWhenStopped(t *testing.T) {
	m := NewMJPEGOutput(Config{})
	rec := httptest.NewRecorder()
	m.GetHTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMJPEGSkipsEncodingWithoutClients(t *testing.T) {
	m := NewMJPEGOutput(Config{})
	require.NoError(t, m.Start())
	require.NoError(t, m.WriteFrame(image.NewRGBA(image.Rect(0, 0, 4, 4))))
	assert.Zero(t, m.frameCount)
}

func TestViewerPage(t *testing.T) {
	m := NewMJPEGOutput(Config{})
	rec := httptest.NewRecorder()
	m.GetViewerHandler()(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `src="/stream"`))
	assert.Contains(t, string(body), "/ws")
}
