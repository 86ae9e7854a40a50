package fetch

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	// RewriteHost is the image provider whose URLs accept size and quality
	// parameters.
	RewriteHost = "images.unsplash.com"

	// MaxRewriteWidth caps the requested width, in points, on expensive links.
	MaxRewriteWidth = 600

	// RewriteQuality is the quality requested on expensive links.
	RewriteQuality = 60
)

// RewriteURL asks the provider for a smaller, lower quality image: the width
// becomes min(width, MaxRewriteWidth) times scale and the quality
// RewriteQuality. A zero width means MaxRewriteWidth. URLs for other hosts
// are returned unchanged with ok false.
func RewriteURL(raw string, width int, scale float64) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Hostname(), RewriteHost) {
		return raw, false
	}

	if width <= 0 || width > MaxRewriteWidth {
		width = MaxRewriteWidth
	}
	if scale <= 0 {
		scale = 1
	}

	q := u.Query()
	q.Set("w", strconv.Itoa(int(math.Round(float64(width)*scale))))
	q.Set("q", strconv.Itoa(RewriteQuality))
	u.RawQuery = q.Encode()
	return u.String(), true
}

// IsRemote reports whether identifier is an http(s) URL.
func IsRemote(identifier string) bool {
	u, err := url.Parse(identifier)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
