// Package assets resolves images bundled with the application.
//
// Dir reads them from a directory, Map holds them in memory and Chain
// consults several bundles in order. Swatches generates stand-in images for
// a list of asset names.
package assets
