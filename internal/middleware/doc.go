// Package middleware provides HTTP middleware for the asset cache server.
//
// It includes:
//   - Request logging in W3C Extended Log Format, with the image source
//     (memory, disk, network, placeholder) in place of the content encoding
//   - Prometheus request metrics labelled by route template
package middleware
