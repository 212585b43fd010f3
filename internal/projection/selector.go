package projection

import (
	"errors"
	"sync"

	"github.com/bryanchriswhite/VRPlayer/internal/logger"
)

// ErrUnbound is returned by overrides issued before any content loaded.
var ErrUnbound = errors.New("projection: no content loaded")

// Selector tracks the active strategy. It starts unbound and becomes bound
// on the first successful OnContentLoaded; it never returns to unbound.
type Selector struct {
	mu         sync.RWMutex
	current    Strategy
	overridden bool
}

// NewSelector returns an unbound selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Current returns the active strategy and whether one is bound.
func (s *Selector) Current() (Strategy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// Overridden reports whether the active strategy was picked by the user.
func (s *Selector) Overridden() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overridden
}

// OnContentLoaded classifies content and binds the default strategy for its
// layout, discarding any manual override. On error the state is unchanged.
func (s *Selector) OnContentLoaded(content Content) (Strategy, error) {
	if content == nil {
		return nil, ErrUnboundSource
	}
	layout, err := Classify(content.Width(), content.Height())
	if err != nil {
		return nil, err
	}
	next := New(DefaultKind(layout), content)

	s.mu.Lock()
	s.current = next
	s.overridden = false
	s.mu.Unlock()

	logger.WithComponent("selector").Info().
		Int("width", content.Width()).
		Int("height", content.Height()).
		Str("layout", layout.String()).
		Str("projection", next.Kind().String()).
		Msg("Content classified")
	return next, nil
}

// OnCycleRequested advances to the next strategy in cycle order. It is a
// no-op returning false while unbound.
func (s *Selector) OnCycleRequested() (Strategy, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, false
	}
	s.current = New(s.current.Kind().Next(), s.current.Content())
	s.overridden = true
	return s.current, true
}

// OnForceLayout binds the default strategy for layout regardless of what
// the classifier picked.
func (s *Selector) OnForceLayout(layout Layout) (Strategy, error) {
	return s.OnForceKind(DefaultKind(layout))
}

// OnForceKind binds the given strategy to the current content.
func (s *Selector) OnForceKind(kind Kind) (Strategy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, ErrUnbound
	}
	s.current = New(kind, s.current.Content())
	s.overridden = true
	return s.current, nil
}

// OnToggleLayout flips between the 180° and 360° families: any 180°
// strategy becomes TopBottom360, TopBottom360 becomes SideBySide180.
func (s *Selector) OnToggleLayout() (Strategy, bool) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil {
		return nil, false
	}
	target := Panoramic360
	if cur.Kind().Layout() == Panoramic360 {
		target = Panoramic180
	}
	next, err := s.OnForceLayout(target)
	return next, err == nil
}
