package projection

// topBottom stretches the top (left eye) or bottom (right eye) half of the
// frame over the whole target. Each eye overwrites the full target, so the
// eye's camera must sample it before the other eye renders.
type topBottom struct {
	content Content
}

func (t topBottom) Kind() Kind       { return TopBottom360 }
func (t topBottom) Name() string     { return TopBottom360.Name() }
func (t topBottom) Content() Content { return t.content }

func (t topBottom) ComputePlan(eye Eye) (BlitPlan, error) {
	if t.content == nil {
		return BlitPlan{}, ErrUnboundSource
	}
	src := UVRect{0, 0.5, 1, 1}
	if eye == Right {
		src = UVRect{0, 0, 1, 0.5}
	}
	return BlitPlan{Source: src, Dest: FullRect}, nil
}
