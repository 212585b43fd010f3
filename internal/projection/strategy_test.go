package projection

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSideBySidePlan(t *testing.T) {
	s := New(SideBySide180, NewImageContent(sideBySideImage(3840, 1080, red, blue)))

	left, err := s.ComputePlan(Left)
	require.NoError(t, err)
	assert.Equal(t, UVRect{0, 0, 0.5, 1}, left.Source)
	assert.Equal(t, UVRect{0, 0, 0.5, 1}, left.Dest)
	require.NotNil(t, left.Fill)
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, *left.Fill)
	assert.Nil(t, left.Correction)

	right, err := s.ComputePlan(Right)
	require.NoError(t, err)
	assert.Equal(t, UVRect{0.5, 0, 1, 1}, right.Source)
	assert.Equal(t, UVRect{0, 0, 0.5, 1}, right.Dest)
	assert.Equal(t, "Side-to-side 180° VR", s.Name())
}

func TestTopBottomPlan(t *testing.T) {
	s := New(TopBottom360, NewImageContent(solidImage(2048, 2048, white)))

	left, err := s.ComputePlan(Left)
	require.NoError(t, err)
	assert.Equal(t, UVRect{0, 0.5, 1, 1}, left.Source)
	assert.Equal(t, UVRect{0, 0, 1, 1}, left.Dest)
	assert.Nil(t, left.Fill)
	assert.Nil(t, left.Correction)

	right, err := s.ComputePlan(Right)
	require.NoError(t, err)
	assert.Equal(t, UVRect{0, 0, 1, 0.5}, right.Source)
	assert.Equal(t, UVRect{0, 0, 1, 1}, right.Dest)
	assert.Equal(t, "Top-bottom 360° VR", s.Name())
}

func TestFisheyePlan(t *testing.T) {
	s := New(Fisheye180, NewImageContent(solidImage(4000, 2000, white)))

	for _, eye := range Eyes {
		plan, err := s.ComputePlan(eye)
		require.NoError(t, err)
		require.NotNil(t, plan.Correction)
		assert.InDelta(t, 2*2000.0/4000.0, plan.Correction.AspectInv, 1e-12)

		sbs, err := New(SideBySide180, s.Content()).ComputePlan(eye)
		require.NoError(t, err)
		assert.Equal(t, sbs.Source, plan.Source)
		assert.Equal(t, sbs.Dest, plan.Dest)
		assert.Equal(t, *sbs.Fill, *plan.Fill)
	}
	assert.Equal(t, "Fisheye 180° VR", s.Name())

	wide := New(Fisheye180, NewImageContent(solidImage(3000, 1000, white)))
	plan, err := wide.ComputePlan(Left)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, plan.Correction.AspectInv, 1e-12)
}

func TestUnboundStrategy(t *testing.T) {
	for _, k := range Kinds {
		_, err := New(k, nil).ComputePlan(Left)
		assert.ErrorIs(t, err, ErrUnboundSource, k.String())
	}
}

func TestPlansAreIndependent(t *testing.T) {
	s := New(SideBySide180, NewImageContent(solidImage(4, 2, white)))
	a, err := s.ComputePlan(Left)
	require.NoError(t, err)
	a.Fill.R = 0x80

	b, err := s.ComputePlan(Left)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), b.Fill.R)
}

func TestKindCycle(t *testing.T) {
	assert.Equal(t, Fisheye180, SideBySide180.Next())
	assert.Equal(t, TopBottom360, Fisheye180.Next())
	assert.Equal(t, SideBySide180, TopBottom360.Next())

	for _, k := range Kinds {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("cubemap")
	assert.Error(t, err)
}
