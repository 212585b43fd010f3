package overlay

import (
	"image"
	"math"
	"sync"
	"time"

	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/google/uuid"
)

// DefaultDuration is how long an announcement stays up.
const DefaultDuration = 1500 * time.Millisecond

// Announcement is a status message pushed to the eye views and subscribers.
type Announcement struct {
	Text     string        `json:"text"`
	Time     time.Time     `json:"time"`
	Duration time.Duration `json:"duration"`
}

// Manager shows one announcement at a time on every eye view and fans it
// out to subscribers.
type Manager struct {
	mu          sync.RWMutex
	current     Announcement
	duration    time.Duration
	widget      *TextWidget
	subscribers map[uuid.UUID]chan Announcement
	now         func() time.Time
}

// NewManager creates an announcement manager; duration <= 0 uses
// DefaultDuration.
func NewManager(duration time.Duration) *Manager {
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Manager{
		duration:    duration,
		widget:      NewTextWidget(),
		subscribers: make(map[uuid.UUID]chan Announcement),
		now:         time.Now,
	}
}

// SetDuration changes the lifetime of later announcements.
func (m *Manager) SetDuration(d time.Duration) {
	if d <= 0 {
		d = DefaultDuration
	}
	m.mu.Lock()
	m.duration = d
	m.mu.Unlock()
}

// Announce replaces the current message and restarts the fade.
func (m *Manager) Announce(text string) {
	m.mu.Lock()
	a := Announcement{Text: text, Time: m.now(), Duration: m.duration}
	m.current = a
	// Sends stay under the lock so Unsubscribe cannot close a channel
	// mid-fan-out.
	for _, ch := range m.subscribers {
		select {
		case ch <- a:
		default:
			// slow subscriber, drop rather than stall the caller
		}
	}
	m.mu.Unlock()

	logger.WithComponent("overlay").Info().Str("text", text).Msg("Announcement")
}

// Current returns the active message and its opacity, or "" once faded.
func (m *Manager) Current() (string, float64) {
	m.mu.RLock()
	a := m.current
	now := m.now()
	m.mu.RUnlock()

	alpha := Alpha(now.Sub(a.Time), a.Duration)
	if a.Text == "" || alpha <= 0 {
		return "", 0
	}
	return a.Text, alpha
}

// Alpha is the announcement opacity after elapsed: fully opaque for the
// first half of its duration, then fading linearly to zero.
func Alpha(elapsed, duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}
	progress := float64(elapsed) / float64(duration)
	return math.Max(0, math.Min(1, 2*(1-progress)))
}

// Render draws the active message onto one eye view.
func (m *Manager) Render(img *image.RGBA) {
	text, alpha := m.Current()
	if text == "" {
		return
	}
	m.widget.Render(img, text, alpha)
}

// Subscribe registers a listener for new announcements.
func (m *Manager) Subscribe() (uuid.UUID, <-chan Announcement) {
	id := uuid.New()
	ch := make(chan Announcement, 8)
	m.mu.Lock()
	m.subscribers[id] = ch
	m.mu.Unlock()
	logger.WithComponent("overlay").Debug().Str("subscriber", id.String()).Msg("Subscriber added")
	return id, ch
}

// Unsubscribe removes a listener and closes its channel.
func (m *Manager) Unsubscribe(id uuid.UUID) {
	m.mu.Lock()
	ch, ok := m.subscribers[id]
	if ok {
		delete(m.subscribers, id)
		close(ch)
	}
	m.mu.Unlock()
	if ok {
		logger.WithComponent("overlay").Debug().Str("subscriber", id.String()).Msg("Subscriber removed")
	}
}
