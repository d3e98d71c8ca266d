package drawable

import (
	"github.com/Carmen-Shannon/oxy-view/common"
)

// Zone is a volume defining ambient light and fog. Views pick the zone containing the
// camera with the highest priority.
type Zone struct {
	Base
	priority     int
	ambientColor [4]float32
	fogColor     [4]float32
	fogStart     float32
	fogEnd       float32
}

var _ Drawable = &Zone{}

// NewZone creates a zone covering box in local space.
// Defaults: ambient 0.1 grey, black fog from 250 to 1000.
//
// Parameters:
//   - box: the local-space volume
//   - options: drawable options
//
// Returns:
//   - *Zone: the zone
func NewZone(box common.BoundingBox, options ...Option) *Zone {
	z := &Zone{
		Base:         NewBase(FlagZone, append([]Option{WithBoundingBox(box)}, options...)...),
		ambientColor: [4]float32{0.1, 0.1, 0.1, 1},
		fogColor:     [4]float32{0, 0, 0, 1},
		fogStart:     250,
		fogEnd:       1000,
	}
	return z
}

func (z *Zone) Priority() int { return z.priority }
func (z *Zone) SetPriority(p int) { z.priority = p }
func (z *Zone) AmbientColor() [4]float32 { return z.ambientColor }
func (z *Zone) SetAmbientColor(c [4]float32) { z.ambientColor = c }
func (z *Zone) FogColor() [4]float32 { return z.fogColor }
func (z *Zone) SetFogColor(c [4]float32) { z.fogColor = c }
func (z *Zone) FogStart() float32 { return z.fogStart }
func (z *Zone) FogEnd() float32 { return z.fogEnd }

// SetFog sets the fog distance range.
func (z *Zone) SetFog(start, end float32) {
	z.fogStart = start
	z.fogEnd = end
}

// IsInside reports whether a world-space point lies inside the zone's oriented volume.
func (z *Zone) IsInside(p [3]float32) bool {
	local := common.TransformPoint(common.InverseMatrix(z.worldTransform), p)
	return z.boundingBox.IsInside(local) != common.Outside
}
