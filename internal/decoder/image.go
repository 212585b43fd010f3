package decoder

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/bryanchriswhite/VRPlayer/internal/logger"
	"github.com/bryanchriswhite/VRPlayer/internal/projection"
)

// LoadImage decodes a still image from a path or file:// URI. It is the
// fallback for inputs the video decoder rejects.
func LoadImage(uri string) (*projection.ImageContent, error) {
	path := PathFromURI(uri)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotImage, path, err)
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: %s has no pixels", ErrNotImage, path)
	}

	logger.WithComponent("decoder").Info().
		Str("path", path).
		Str("format", format).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Msg("Still image loaded")
	return projection.NewImageContent(img), nil
}
