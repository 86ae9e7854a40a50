// Package media is the image processor of the asset cache.
//
// It decodes and encodes raster images, resizes them for display with a
// fill-and-crop-to-center policy, downsamples files at decode time (through
// libvips when InitVips has been called) and maps connection type and power
// state to an encoding quality.
//
//	q := media.QualityFor(state.Type, power.LowPower())
//	img = media.Constrain(img, q.MaxDimension)
//	data, err := media.Encode(img, q.JPEGQuality())
package media
