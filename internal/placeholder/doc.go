// Package placeholder chooses the fallback image shown when no real image
// can be produced.
//
// Rules are an ordered list of (keywords, asset) pairs matched as
// case-insensitive substrings of the request name, a category table, the
// DefaultAsset and finally a generated glyph. An asset that is missing from
// the bundle is skipped, so resolution never fails.
package placeholder
