package projection

import "fmt"

// fisheye is side-by-side 180° content shot through fisheye lenses. Each
// frame is first remapped to equirectangular, then blitted like sideBySide.
type fisheye struct {
	content Content
}

func (f fisheye) Kind() Kind       { return Fisheye180 }
func (f fisheye) Name() string     { return Fisheye180.Name() }
func (f fisheye) Content() Content { return f.content }

func (f fisheye) ComputePlan(eye Eye) (BlitPlan, error) {
	if f.content == nil {
		return BlitPlan{}, ErrUnboundSource
	}
	w, h := f.content.Width(), f.content.Height()
	if w <= 0 || h <= 0 {
		return BlitPlan{}, fmt.Errorf("%w: %dx%d", ErrInvalidContentDimensions, w, h)
	}
	plan := halfWidthPlan(eye)
	plan.Correction = &CorrectionSpec{AspectInv: 2 * float64(h) / float64(w)}
	return plan, nil
}
