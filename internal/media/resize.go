package media

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ResizeThreshold is how much larger than the requested size an image may be
// on either axis before it is resized for display.
const ResizeThreshold = 1.5

// Size is a width and height in pixels. The zero Size means "no target".
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsZero reports whether no target size was given.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// SizeOf returns the pixel dimensions of img.
func SizeOf(img image.Image) Size {
	b := img.Bounds()
	return Size{Width: b.Dx(), Height: b.Dy()}
}

// Cost returns the in-memory cost of a decoded image in bytes (4 bytes per pixel).
func Cost(img image.Image) int64 {
	s := SizeOf(img)
	return int64(s.Width) * int64(s.Height) * 4
}

// DrawRect computes where src must be drawn, relative to a target canvas, so
// that it fills the whole target while keeping its aspect ratio. The axis
// that would overflow is centered, so the rectangle may start at a negative
// offset.
func DrawRect(src, target Size) image.Rectangle {
	if src.IsZero() || target.IsZero() {
		return image.Rectangle{}
	}

	scale := math.Max(
		float64(target.Width)/float64(src.Width),
		float64(target.Height)/float64(src.Height),
	)
	w := int(math.Round(float64(src.Width) * scale))
	h := int(math.Round(float64(src.Height) * scale))
	x := (target.Width - w) / 2
	y := (target.Height - h) / 2

	return image.Rect(x, y, x+w, y+h)
}

// NeedsResize reports whether an image of size src is more than
// ResizeThreshold times larger than target on either axis.
func NeedsResize(src, target Size) bool {
	if target.IsZero() {
		return false
	}
	return float64(src.Width) > float64(target.Width)*ResizeThreshold ||
		float64(src.Height) > float64(target.Height)*ResizeThreshold
}

// Resize scales img to cover target and crops the overflow around the
// center. The result is exactly target in size.
func Resize(img image.Image, target Size) image.Image {
	if target.IsZero() {
		return img
	}
	return imaging.Fill(img, target.Width, target.Height, imaging.Center, imaging.Lanczos)
}

// ForDisplay returns img resized to target when it is too large for it,
// otherwise img unchanged.
func ForDisplay(img image.Image, target Size) image.Image {
	if !NeedsResize(SizeOf(img), target) {
		return img
	}
	return Resize(img, target)
}

// Constrain shrinks img so neither side exceeds maxDimension.
func Constrain(img image.Image, maxDimension int) image.Image {
	if maxDimension <= 0 {
		return img
	}
	s := SizeOf(img)
	if s.Width <= maxDimension && s.Height <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}
