package player

import (
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/projection"
)

// Status is a snapshot of the player for the API and logs.
type Status struct {
	URI            string        `json:"uri,omitempty"`
	Loading        bool          `json:"loading"`
	Loaded         bool          `json:"loaded"`
	Video          bool          `json:"video"`
	Width          int           `json:"width,omitempty"`
	Height         int           `json:"height,omitempty"`
	Layout         string        `json:"layout,omitempty"`
	Projection     string        `json:"projection,omitempty"`
	ProjectionName string        `json:"projection_name,omitempty"`
	Overridden     bool          `json:"overridden"`
	Playing        bool          `json:"playing"`
	Position       time.Duration `json:"position_ns"`
	Length         time.Duration `json:"length_ns"`
	SwapEyes       bool          `json:"swap_eyes"`
	Fullscreen     bool          `json:"fullscreen"`
	Yaw            float64       `json:"yaw"`
	Pitch          float64       `json:"pitch"`
	FOV            float64       `json:"fov"`
	Frames         uint64        `json:"frames"`
	LastError      string        `json:"last_error,omitempty"`
}

// Status returns the current snapshot.
func (p *Player) Status() Status {
	p.mu.RLock()
	s := p.status
	p.mu.RUnlock()

	s.Yaw, s.Pitch, s.FOV = p.camera.Pose()
	return s
}

func (p *Player) setStatus(fn func(*Status)) {
	p.mu.Lock()
	fn(&p.status)
	p.mu.Unlock()
}

// syncStrategy records the selector state after a change.
func (p *Player) syncStrategy(s projection.Strategy) {
	overridden := p.selector.Overridden()
	p.setStatus(func(st *Status) {
		st.Loaded = true
		st.Layout = s.Kind().Layout().String()
		st.Projection = s.Kind().String()
		st.ProjectionName = s.Name()
		st.Overridden = overridden
	})
}

// syncPlayback records the media state and keeps the screensaver in step.
func (p *Player) syncPlayback() {
	var playing bool
	var pos, length time.Duration
	if p.media != nil {
		playing = p.media.IsPlaying()
		pos, length = p.media.Time(), p.media.Length()
	}
	p.setStatus(func(st *Status) {
		st.Playing = playing
		st.Position = pos
		st.Length = length
	})
	if p.opts.Inhibitor != nil {
		if err := p.opts.Inhibitor.Set(playing); err != nil {
			p.setStatus(func(st *Status) { st.LastError = err.Error() })
		}
	}
}
