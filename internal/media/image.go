package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	"asset-cache/internal/logging"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // WebP format support
)

// MaxPixels bounds the area of an image Decode will allocate for.
const MaxPixels = 50_000_000

// ErrTooLarge means the image header declares more than MaxPixels pixels.
var ErrTooLarge = errors.New("image too large")

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// Decode decodes raster image bytes in any registered format.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	config, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image header: %w", err)
	}
	if int64(config.Width)*int64(config.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooLarge, config.Width, config.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// Encode encodes img as JPEG at quality (1-100).
func Encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Downsample decodes the image at path so that neither side exceeds
// maxDimension. When libvips is available the shrink happens during decode;
// otherwise the image is decoded in full and then fitted.
func Downsample(path string, maxDimension int) (image.Image, error) {
	if maxDimension > 0 {
		dimensions, err := GetImageDimensions(path)
		if err != nil {
			logging.Debug("Could not get image dimensions for %s: %v", path, err)
		} else if dimensions.Width <= maxDimension && dimensions.Height <= maxDimension {
			maxDimension = 0
		}
	}

	if maxDimension > 0 && IsVipsAvailable() {
		img, err := downsampleWithVips(path, maxDimension)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips downsample failed for %s: %v, falling back", path, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	return Constrain(img, maxDimension), nil
}
