package player

import (
	"errors"
	"fmt"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/display"
	"github.com/bryanchriswhite/VRPlayer/internal/input"
	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/bryanchriswhite/VRPlayer/internal/projection"
)

const (
	lookStep  = 10.0 // degrees per key press
	zoomStep  = 5.0  // degrees per key press or wheel notch
	dragScale = 0.2  // degrees per dragged pixel
)

// ErrNoVideo is returned by playback commands while a still image or
// nothing is loaded.
var ErrNoVideo = errors.New("player: no video loaded")

// HandleKey runs the action bound to key. Unbound keys are ignored.
func (p *Player) HandleKey(key string) error {
	action, ok := p.keymap.Lookup(key)
	if !ok {
		logger.WithComponent("player").Debug().Str("key", key).Msg("Unbound key")
		return nil
	}
	return p.Dispatch(action)
}

// HandleDisplayEvent maps window input onto player actions.
func (p *Player) HandleDisplayEvent(ev display.Event) error {
	switch ev.Kind {
	case display.EventKey:
		return p.HandleKey(ev.Key)
	case display.EventDrag:
		p.Look(-float64(ev.DX)*dragScale, float64(ev.DY)*dragScale)
	case display.EventScroll:
		p.Zoom(-float64(ev.Steps) * zoomStep)
	case display.EventClose:
		p.Quit()
	}
	return nil
}

// Dispatch runs one action.
func (p *Player) Dispatch(action input.Action) error {
	if n, ok := action.Decile(); ok {
		return p.SeekFraction(float64(n) / 10)
	}
	switch action {
	case input.ActionNone:
		return nil
	case input.ActionCycleProjection:
		return p.CycleProjection()
	case input.ActionForce180:
		return p.ForceLayout(projection.Panoramic180)
	case input.ActionForce360:
		return p.ForceLayout(projection.Panoramic360)
	case input.ActionToggleLayout:
		return p.ToggleLayout()
	case input.ActionSwapEyes:
		p.SwapEyes()
		return nil
	case input.ActionFullscreen:
		return p.ToggleFullscreen()
	case input.ActionOpenFile:
		return p.OpenDialog()
	case input.ActionTogglePlay:
		return p.TogglePlay()
	case input.ActionSeekBack5:
		return p.SeekBy(-5 * time.Second)
	case input.ActionSeekForward5:
		return p.SeekBy(5 * time.Second)
	case input.ActionSeekBack10:
		return p.SeekBy(-10 * time.Second)
	case input.ActionSeekForward10:
		return p.SeekBy(10 * time.Second)
	case input.ActionZoomIn:
		p.Zoom(-zoomStep)
	case input.ActionZoomOut:
		p.Zoom(zoomStep)
	case input.ActionLookLeft:
		p.Look(-lookStep, 0)
	case input.ActionLookRight:
		p.Look(lookStep, 0)
	case input.ActionLookUp:
		p.Look(0, lookStep)
	case input.ActionLookDown:
		p.Look(0, -lookStep)
	case input.ActionResetView:
		p.camera.Reset()
	case input.ActionQuit:
		p.Quit()
	default:
		return fmt.Errorf("unhandled action %q", action)
	}
	return nil
}

// CycleProjection advances SideBySide180 → Fisheye180 → TopBottom360.
// Nothing happens before content is loaded.
func (p *Player) CycleProjection() error {
	return p.call(func() error {
		s, ok := p.selector.OnCycleRequested()
		if !ok {
			return nil
		}
		p.strategyChanged(s)
		return nil
	})
}

// ForceLayout binds the default projection for layout.
func (p *Player) ForceLayout(layout projection.Layout) error {
	return p.call(func() error {
		s, err := p.selector.OnForceLayout(layout)
		if err != nil {
			return err
		}
		p.strategyChanged(s)
		return nil
	})
}

// ForceKind binds a specific projection.
func (p *Player) ForceKind(kind projection.Kind) error {
	return p.call(func() error {
		s, err := p.selector.OnForceKind(kind)
		if err != nil {
			return err
		}
		p.strategyChanged(s)
		return nil
	})
}

// ToggleLayout flips between the 180° and 360° projections.
func (p *Player) ToggleLayout() error {
	return p.call(func() error {
		s, ok := p.selector.OnToggleLayout()
		if !ok {
			return nil
		}
		p.strategyChanged(s)
		return nil
	})
}

func (p *Player) strategyChanged(s projection.Strategy) {
	p.centerCamera(s)
	p.syncStrategy(s)
	p.overlay.Announce(s.Name())
	logger.WithComponent("player").Info().
		Str("projection", s.Kind().String()).
		Msg("Projection changed")
}

// SwapEyes toggles cross-eyed stereo and returns the new state.
func (p *Player) SwapEyes() bool {
	var swapped bool
	p.setStatus(func(s *Status) {
		s.SwapEyes = !s.SwapEyes
		swapped = s.SwapEyes
	})
	if swapped {
		p.overlay.Announce("Eyes swapped")
	} else {
		p.overlay.Announce("Eyes normal")
	}
	return swapped
}

// ToggleFullscreen flips the display window, when there is one.
func (p *Player) ToggleFullscreen() error {
	if p.opts.Fullscreen == nil {
		return nil
	}
	on, err := p.opts.Fullscreen.ToggleFullscreen()
	if err != nil {
		return err
	}
	p.setStatus(func(s *Status) { s.Fullscreen = on })
	return nil
}

// TogglePlay pauses or resumes. With no media loaded it re-opens the last
// input, which retries a failed prepare.
func (p *Player) TogglePlay() error {
	return p.call(func() error {
		if p.media == nil {
			uri := p.Status().URI
			if uri == "" {
				return ErrNoVideo
			}
			return p.Open(uri)
		}
		playing, err := p.media.Toggle()
		if err != nil {
			return err
		}
		p.syncPlayback()
		if playing {
			p.overlay.Announce("Playing")
		} else {
			p.overlay.Announce("Paused")
		}
		return nil
	})
}

// SeekBy moves playback by d.
func (p *Player) SeekBy(d time.Duration) error {
	return p.call(func() error {
		if p.media == nil {
			return ErrNoVideo
		}
		if err := p.media.SeekBy(d); err != nil {
			return err
		}
		p.announcePosition()
		return nil
	})
}

// SeekFraction jumps to f of the video length.
func (p *Player) SeekFraction(f float64) error {
	return p.call(func() error {
		if p.media == nil {
			return ErrNoVideo
		}
		if err := p.media.SeekFraction(f); err != nil {
			return err
		}
		p.announcePosition()
		return nil
	})
}

func (p *Player) announcePosition() {
	p.syncPlayback()
	st := p.Status()
	p.overlay.Announce(formatClock(st.Position) + " / " + formatClock(st.Length))
}

// Zoom changes the field of view by delta degrees.
func (p *Player) Zoom(delta float64) {
	p.camera.Zoom(delta)
}

// Look turns the view.
func (p *Player) Look(dYaw, dPitch float64) {
	p.camera.Rotate(dYaw, dPitch)
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
