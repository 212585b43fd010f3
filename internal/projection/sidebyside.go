package projection

// sideBySide reads the left or right half of the frame and writes it into
// the left half of the target. The right half of the target is the back
// hemisphere of the skybox and is filled black.
type sideBySide struct {
	content Content
}

func (s sideBySide) Kind() Kind       { return SideBySide180 }
func (s sideBySide) Name() string     { return SideBySide180.Name() }
func (s sideBySide) Content() Content { return s.content }

func (s sideBySide) ComputePlan(eye Eye) (BlitPlan, error) {
	if s.content == nil {
		return BlitPlan{}, ErrUnboundSource
	}
	return halfWidthPlan(eye), nil
}

func halfWidthPlan(eye Eye) BlitPlan {
	src := UVRect{0, 0, 0.5, 1}
	if eye == Right {
		src = UVRect{0.5, 0, 1, 1}
	}
	return BlitPlan{
		Source: src,
		Dest:   UVRect{0, 0, 0.5, 1},
		Fill:   opaqueBlack(),
	}
}
