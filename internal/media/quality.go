package media

import (
	"math"

	"asset-cache/internal/connectivity"
)

// Quality is the encoding policy for a connection: JPEG compression quality
// in [0,1] and the largest side, in pixels, that is kept.
type Quality struct {
	Compression  float64 `json:"compression"`
	MaxDimension int     `json:"maxDimension"`
}

// JPEGQuality converts Compression to the 1-100 scale used by JPEG encoders.
func (q Quality) JPEGQuality() int {
	v := int(math.Round(q.Compression * 100))
	switch {
	case v < 1:
		return 1
	case v > 100:
		return 100
	}
	return v
}

var defaultQuality = Quality{Compression: 0.70, MaxDimension: 800}

// QualityFor returns the encoding policy for a connection type and power state.
func QualityFor(t connectivity.Type, lowPower bool) Quality {
	switch t {
	case connectivity.TypeWiFi:
		if lowPower {
			return Quality{Compression: 0.75, MaxDimension: 900}
		}
		return Quality{Compression: 0.85, MaxDimension: 1200}
	case connectivity.TypeCellular:
		if lowPower {
			return Quality{Compression: 0.55, MaxDimension: 600}
		}
		return Quality{Compression: 0.65, MaxDimension: 800}
	case connectivity.TypeWiredEthernet:
		return Quality{Compression: 0.90, MaxDimension: 1500}
	default:
		return defaultQuality
	}
}

// PowerSource reports whether the host is in a low power mode.
type PowerSource interface {
	LowPower() bool
}

// StaticPower is a PowerSource with a fixed answer, set from configuration.
type StaticPower bool

// LowPower implements PowerSource.
func (p StaticPower) LowPower() bool {
	return bool(p)
}
