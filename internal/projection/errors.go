package projection

import "errors"

var (
	// ErrInvalidContentDimensions is returned when content has a
	// non-positive width or height.
	ErrInvalidContentDimensions = errors.New("projection: invalid content dimensions")

	// ErrUnboundSource is returned when a plan or render is requested
	// before any content has been bound.
	ErrUnboundSource = errors.New("projection: no source content bound")

	// ErrUnsupportedTargetClear is returned when clearing anything other
	// than a RenderTarget.
	ErrUnsupportedTargetClear = errors.New("projection: target cannot be cleared")

	// ErrNoFrame is returned when bound content has not produced a frame yet.
	ErrNoFrame = errors.New("projection: content has no frame yet")

	// ErrTargetMismatch is returned when the bound content no longer
	// matches the render target's dimensions.
	ErrTargetMismatch = errors.New("projection: render target does not match content")
)
