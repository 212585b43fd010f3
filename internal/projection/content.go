package projection

import "image"

// ImageContent is a still frame, used for images and in tests.
type ImageContent struct {
	img image.Image
}

// NewImageContent wraps a decoded image.
func NewImageContent(img image.Image) *ImageContent {
	return &ImageContent{img: img}
}

func (c *ImageContent) Width() int           { return c.img.Bounds().Dx() }
func (c *ImageContent) Height() int          { return c.img.Bounds().Dy() }
func (c *ImageContent) Texture() image.Image { return c.img }
