package output

import (
	"image"
)

// Output is a sink for the composed stereo frame: the X11 window, the
// MJPEG stream.
type Output interface {
	// Start initializes the output mechanism
	Start() error

	// Stop cleanly shuts down the output
	Stop() error

	// WriteFrame presents one composed frame. Implementations must not
	// retain frame past the call; the render loop reuses it.
	WriteFrame(frame *image.RGBA) error

	// Name returns a human-readable name for this output type
	Name() string

	// IsRunning returns true if the output is currently active
	IsRunning() bool
}

// Config holds common configuration for all output types
type Config struct {
	Width  int
	Height int
	FPS    int
	// Quality is the JPEG quality for encoded outputs, 1-100.
	Quality int
}
