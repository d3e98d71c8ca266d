package graphics

import (
	"github.com/Carmen-Shannon/oxy-view/common"
)

// Geometry is a drawable range of interleaved vertex data and 32-bit indices.
// The first three floats of every vertex are its position.
type Geometry struct {
	// Name is a debug label.
	Name string
	// Primitive is the index topology.
	Primitive PrimitiveType
	// Vertices holds interleaved vertex data.
	Vertices []float32
	// VertexStride is the number of floats per vertex.
	VertexStride int
	// Indices holds the index data.
	Indices []uint32
	// IndexStart is the first index drawn.
	IndexStart int
	// IndexCount is the number of indices drawn.
	IndexCount int
	// LodDistance is the distance from which this geometry is used as a LOD level.
	LodDistance float32
}

// NewGeometry creates a geometry covering all of its indices.
//
// Parameters:
//   - name: debug label
//   - vertices: interleaved vertex data, position first
//   - stride: floats per vertex (at least 3)
//   - indices: triangle list indices
//
// Returns:
//   - *Geometry: the new geometry
func NewGeometry(name string, vertices []float32, stride int, indices []uint32) *Geometry {
	if stride < 3 {
		stride = 3
	}
	return &Geometry{
		Name:         name,
		Primitive:    TriangleList,
		Vertices:     vertices,
		VertexStride: stride,
		Indices:      indices,
		IndexCount:   len(indices),
	}
}

// IsEmpty reports whether the geometry has nothing to draw.
func (g *Geometry) IsEmpty() bool {
	return g == nil || g.IndexCount == 0 || len(g.Vertices) == 0
}

// VertexCount returns the number of vertices.
func (g *Geometry) VertexCount() int {
	if g.VertexStride == 0 {
		return 0
	}
	return len(g.Vertices) / g.VertexStride
}

// Position returns the position of vertex i.
func (g *Geometry) Position(i int) [3]float32 {
	o := i * g.VertexStride
	return [3]float32{g.Vertices[o], g.Vertices[o+1], g.Vertices[o+2]}
}

// TriangleCount returns the number of triangles in the drawn index range.
func (g *Geometry) TriangleCount() int {
	if g.Primitive != TriangleList {
		return 0
	}
	return g.IndexCount / 3
}

// BoundingBox returns the box enclosing every vertex.
func (g *Geometry) BoundingBox() common.BoundingBox {
	var b common.BoundingBox
	for i := 0; i < g.VertexCount(); i++ {
		b.MergePoint(g.Position(i))
	}
	return b
}
