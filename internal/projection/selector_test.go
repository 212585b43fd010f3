package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorStartsUnbound(t *testing.T) {
	s := NewSelector()

	_, ok := s.Current()
	assert.False(t, ok)

	_, ok = s.OnCycleRequested()
	assert.False(t, ok)

	_, ok = s.OnToggleLayout()
	assert.False(t, ok)

	_, err := s.OnForceLayout(Panoramic360)
	assert.ErrorIs(t, err, ErrUnbound)
}

func TestSelectorContentLoaded(t *testing.T) {
	t.Run("wide content is side-by-side", func(t *testing.T) {
		s := NewSelector()
		strat, err := s.OnContentLoaded(NewImageContent(solidImage(3840, 1080, white)))
		require.NoError(t, err)
		assert.Equal(t, SideBySide180, strat.Kind())
		assert.Equal(t, "Side-to-side 180° VR", strat.Name())
	})

	t.Run("square content is top-bottom", func(t *testing.T) {
		s := NewSelector()
		strat, err := s.OnContentLoaded(NewImageContent(solidImage(2048, 2048, white)))
		require.NoError(t, err)
		assert.Equal(t, TopBottom360, strat.Kind())
		assert.Equal(t, "Top-bottom 360° VR", strat.Name())
	})

	t.Run("invalid content keeps prior strategy", func(t *testing.T) {
		s := NewSelector()
		first, err := s.OnContentLoaded(NewImageContent(solidImage(64, 16, white)))
		require.NoError(t, err)

		_, err = s.OnContentLoaded(&resizableContent{w: 0, h: 10})
		assert.ErrorIs(t, err, ErrInvalidContentDimensions)

		cur, ok := s.Current()
		require.True(t, ok)
		assert.Same(t, first.Content(), cur.Content())
	})

	t.Run("nil content", func(t *testing.T) {
		_, err := NewSelector().OnContentLoaded(nil)
		assert.ErrorIs(t, err, ErrUnboundSource)
	})
}

func TestSelectorCycleIsClosed(t *testing.T) {
	s := NewSelector()
	_, err := s.OnContentLoaded(NewImageContent(solidImage(3840, 1080, white)))
	require.NoError(t, err)

	want := []Kind{Fisheye180, TopBottom360, SideBySide180}
	for _, k := range want {
		strat, ok := s.OnCycleRequested()
		require.True(t, ok)
		assert.Equal(t, k, strat.Kind())
	}
	assert.True(t, s.Overridden())
}

func TestSelectorLoadResetsOverride(t *testing.T) {
	s := NewSelector()
	_, err := s.OnContentLoaded(NewImageContent(solidImage(2048, 2048, white)))
	require.NoError(t, err)

	forced, err := s.OnForceLayout(Panoramic360)
	require.NoError(t, err)
	assert.Equal(t, TopBottom360, forced.Kind())
	assert.True(t, s.Overridden())

	strat, err := s.OnContentLoaded(NewImageContent(solidImage(3840, 1080, white)))
	require.NoError(t, err)
	assert.Equal(t, SideBySide180, strat.Kind())
	assert.False(t, s.Overridden())
}

func TestSelectorForceIgnoresClassifier(t *testing.T) {
	s := NewSelector()
	content := NewImageContent(solidImage(3840, 1080, white))
	_, err := s.OnContentLoaded(content)
	require.NoError(t, err)

	strat, err := s.OnForceLayout(Panoramic360)
	require.NoError(t, err)
	assert.Equal(t, TopBottom360, strat.Kind())
	assert.Same(t, content, strat.Content())

	strat, err = s.OnForceKind(Fisheye180)
	require.NoError(t, err)
	plan, err := strat.ComputePlan(Right)
	require.NoError(t, err)
	require.NotNil(t, plan.Correction)
	assert.InDelta(t, 2*1080.0/3840.0, plan.Correction.AspectInv, 1e-12)
}

func TestSelectorToggleLayout(t *testing.T) {
	s := NewSelector()
	_, err := s.OnContentLoaded(NewImageContent(solidImage(3840, 1080, white)))
	require.NoError(t, err)

	strat, ok := s.OnToggleLayout()
	require.True(t, ok)
	assert.Equal(t, TopBottom360, strat.Kind())

	strat, ok = s.OnToggleLayout()
	require.True(t, ok)
	assert.Equal(t, SideBySide180, strat.Kind())

	_, err = s.OnForceKind(Fisheye180)
	require.NoError(t, err)
	strat, ok = s.OnToggleLayout()
	require.True(t, ok)
	assert.Equal(t, TopBottom360, strat.Kind())
}

func TestSelectorRebindBuildsFreshStrategy(t *testing.T) {
	s := NewSelector()
	before, err := s.OnContentLoaded(NewImageContent(solidImage(3840, 1080, white)))
	require.NoError(t, err)

	_, err = s.OnContentLoaded(NewImageContent(solidImage(1920, 1080, white)))
	require.NoError(t, err)

	// The old strategy still plans against its own content.
	assert.Equal(t, 3840, before.Content().Width())
}
