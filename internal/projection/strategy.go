package projection

import (
	"fmt"
	"image"
	"image/color"
	"strings"
)

// Content is a decoded frame source. It is owned by the decoder; the
// projection package only keeps a reference to it.
type Content interface {
	Width() int
	Height() int
	// Texture returns the most recent frame, or nil before the first one.
	Texture() image.Image
}

// Kind identifies a projection strategy.
type Kind int

const (
	SideBySide180 Kind = iota
	Fisheye180
	TopBottom360
)

// Kinds lists every strategy in cycle order.
var Kinds = [...]Kind{SideBySide180, Fisheye180, TopBottom360}

// Name is the human-readable label announced to the user.
func (k Kind) Name() string {
	switch k {
	case SideBySide180:
		return "Side-to-side 180° VR"
	case Fisheye180:
		return "Fisheye 180° VR"
	case TopBottom360:
		return "Top-bottom 360° VR"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

func (k Kind) String() string {
	switch k {
	case SideBySide180:
		return "sbs180"
	case Fisheye180:
		return "fisheye180"
	case TopBottom360:
		return "tb360"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Layout is the layout family k belongs to.
func (k Kind) Layout() Layout {
	if k == TopBottom360 {
		return Panoramic360
	}
	return Panoramic180
}

// Next returns the strategy after k in cycle order.
func (k Kind) Next() Kind {
	switch k {
	case SideBySide180:
		return Fisheye180
	case Fisheye180:
		return TopBottom360
	default:
		return SideBySide180
	}
}

// ParseKind accepts the short names printed by String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sbs180", "sbs", "side-by-side":
		return SideBySide180, nil
	case "fisheye180", "fisheye":
		return Fisheye180, nil
	case "tb360", "tb", "top-bottom":
		return TopBottom360, nil
	}
	return 0, fmt.Errorf("unknown projection %q (use sbs180, fisheye180 or tb360)", s)
}

// DefaultKind is the strategy used for a freshly classified layout.
func DefaultKind(l Layout) Kind {
	if l == Panoramic360 {
		return TopBottom360
	}
	return SideBySide180
}

// CorrectionSpec parameterizes the fisheye-to-equirectangular pass.
type CorrectionSpec struct {
	// AspectInv is 2*height/width: the height-to-width ratio of one eye.
	AspectInv float64
}

// BlitPlan describes how one eye is written into the render target.
type BlitPlan struct {
	Source UVRect
	Dest   UVRect
	// Fill is written to every target pixel outside Dest. Nil leaves them.
	Fill *color.RGBA
	// Correction, when set, runs before the blit and the blit reads from
	// its output instead of the raw texture.
	Correction *CorrectionSpec
}

// Strategy computes per-eye blit plans for one bound piece of content.
// Implementations are immutable; rebinding builds a new one with New.
type Strategy interface {
	Kind() Kind
	Name() string
	Content() Content
	ComputePlan(eye Eye) (BlitPlan, error)
}

// New binds content to a fresh strategy of the given kind.
func New(kind Kind, content Content) Strategy {
	switch kind {
	case Fisheye180:
		return fisheye{content: content}
	case TopBottom360:
		return topBottom{content: content}
	default:
		return sideBySide{content: content}
	}
}

func opaqueBlack() *color.RGBA {
	return &color.RGBA{A: 0xff}
}
