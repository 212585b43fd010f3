package projection

import (
	"fmt"
	"strings"
)

// Layout is the spatial arrangement of a stereo frame.
type Layout int

const (
	// Panoramic180 is side-by-side stereo covering the front hemisphere.
	Panoramic180 Layout = iota
	// Panoramic360 is top-bottom stereo covering the full sphere.
	Panoramic360
)

func (l Layout) String() string {
	switch l {
	case Panoramic180:
		return "180"
	case Panoramic360:
		return "360"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// ParseLayout accepts "180"/"360" with an optional "°" or "deg" suffix.
func ParseLayout(s string) (Layout, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	s = strings.TrimSuffix(strings.TrimSuffix(s, "deg"), "°")
	switch s {
	case "180":
		return Panoramic180, nil
	case "360":
		return Panoramic360, nil
	}
	return 0, fmt.Errorf("unknown layout %q (use 180 or 360)", s)
}

// Classify guesses the layout of a width x height frame.
//
// Side-by-side 180° pairs are at least twice as wide as they are tall, so
// anything narrower is treated as top-bottom 360°. This is only a default;
// users can force the other layout.
func Classify(width, height int) (Layout, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("%w: %dx%d", ErrInvalidContentDimensions, width, height)
	}
	if width < 2*height {
		return Panoramic360, nil
	}
	return Panoramic180, nil
}
