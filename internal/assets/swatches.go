package assets

import (
	"hash/fnv"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Swatches returns a Map with a flat colored square for each id. The color
// is derived from the id so it is stable between runs. It backs placeholder
// assets when no asset directory is deployed.
func Swatches(ids []string, size int) Map {
	m := make(Map, len(ids))
	for _, id := range ids {
		m[id] = swatch(id, size)
	}
	return m
}

func swatch(id string, size int) image.Image {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	sum := h.Sum32()

	// Pastel range keeps text overlays readable
	c := color.NRGBA{
		R: uint8(150 + sum%90),
		G: uint8(150 + (sum>>8)%90),
		B: uint8(150 + (sum>>16)%90),
		A: 255,
	}
	return imaging.New(size, size, c)
}
