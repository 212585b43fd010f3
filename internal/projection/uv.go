package projection

import (
	"fmt"
	"image"
	"math"
)

// Eye identifies which half of a stereo frame to sample.
type Eye int

const (
	Left Eye = iota
	Right
)

// Eyes lists both eyes in render order.
var Eyes = [...]Eye{Left, Right}

func (e Eye) String() string {
	if e == Right {
		return "right"
	}
	return "left"
}

// UVRect is a rectangle in normalized texture space, v growing upwards.
type UVRect struct {
	UMin, VMin, UMax, VMax float64
}

// FullRect covers the whole texture.
var FullRect = UVRect{0, 0, 1, 1}

func (r UVRect) String() string {
	return fmt.Sprintf("(%g,%g)-(%g,%g)", r.UMin, r.VMin, r.UMax, r.VMax)
}

// Pixels converts r to pixel space of a w x h image whose origin is the
// top-left corner.
func (r UVRect) Pixels(w, h int) image.Rectangle {
	fw, fh := float64(w), float64(h)
	return image.Rect(
		int(math.Round(r.UMin*fw)),
		int(math.Round((1-r.VMax)*fh)),
		int(math.Round(r.UMax*fw)),
		int(math.Round((1-r.VMin)*fh)),
	)
}

// Covers reports whether r spans the whole texture.
func (r UVRect) Covers() bool {
	return r.UMin <= 0 && r.VMin <= 0 && r.UMax >= 1 && r.VMax >= 1
}
