package renderer

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
)

const (
	sphereSegments = 16
	sphereRings    = 8
)

// lightGeometries are the unit volumes deferred lights are drawn with. The quad also
// serves full screen passes.
type lightGeometries struct {
	quad   *graphics.Geometry
	sphere *graphics.Geometry
	cone   *graphics.Geometry
}

func newLightGeometries() lightGeometries {
	return lightGeometries{
		quad:   newQuadGeometry(),
		sphere: newSphereGeometry(),
		cone:   newConeGeometry(),
	}
}

// forType returns the volume of a light type.
func (lg lightGeometries) forType(t light.LightType) *graphics.Geometry {
	switch t {
	case light.LightTypeDirectional:
		return lg.quad
	case light.LightTypePoint:
		return lg.sphere
	}
	return lg.cone
}

// newQuadGeometry spans [-1, 1] in X and Y at z = 0.
func newQuadGeometry() *graphics.Geometry {
	vertices := []float32{
		-1, 1, 0,
		1, 1, 0,
		1, -1, 0,
		-1, -1, 0,
	}
	return graphics.NewGeometry("LightQuad", vertices, 3, []uint32{0, 1, 2, 2, 3, 0})
}

// newSphereGeometry builds a UV sphere whose faces enclose the unit sphere.
func newSphereGeometry() *graphics.Geometry {
	radius := 1 / (math32.Cos(math32.Pi/sphereSegments) * math32.Cos(math32.Pi/(2*sphereRings)))

	vertices := make([]float32, 0, (sphereRings+1)*(sphereSegments+1)*3)
	for ring := 0; ring <= sphereRings; ring++ {
		phi := math32.Pi * float32(ring) / sphereRings
		y := math32.Cos(phi) * radius
		r := math32.Sin(phi) * radius
		for seg := 0; seg <= sphereSegments; seg++ {
			theta := 2 * math32.Pi * float32(seg) / sphereSegments
			vertices = append(vertices, r*math32.Cos(theta), y, r*math32.Sin(theta))
		}
	}

	indices := make([]uint32, 0, sphereRings*sphereSegments*6)
	stride := uint32(sphereSegments + 1)
	for ring := uint32(0); ring < sphereRings; ring++ {
		for seg := uint32(0); seg < sphereSegments; seg++ {
			a := ring*stride + seg
			b := a + stride
			indices = append(indices, a, a+1, b, b, a+1, b+1)
		}
	}
	return graphics.NewGeometry("LightSphere", vertices, 3, indices)
}

// newConeGeometry builds a four-sided pyramid with its apex at the origin and its base
// spanning [-1, 1] at z = 1, the shape of a spot light frustum.
func newConeGeometry() *graphics.Geometry {
	vertices := []float32{
		0, 0, 0,
		-1, 1, 1,
		1, 1, 1,
		1, -1, 1,
		-1, -1, 1,
	}
	indices := []uint32{
		0, 1, 2,
		0, 2, 3,
		0, 3, 4,
		0, 4, 1,
		1, 4, 3,
		3, 2, 1,
	}
	return graphics.NewGeometry("LightCone", vertices, 3, indices)
}
