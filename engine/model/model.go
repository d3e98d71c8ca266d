package model

import (
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// model is the implementation of the Model interface.
type model struct {
	name        string
	geometries  [][]*graphics.Geometry
	centers     [][3]float32
	boundingBox common.BoundingBox
	skeleton    *Skeleton
}

// Model defines the interface for renderable mesh data.
// A Model holds one or more batches (sub-geometries), each with one or more LOD levels
// ordered by increasing LOD distance, and a local-space bounding box.
// Models are immutable after construction and may be shared by many drawables.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// NumGeometries returns the number of batches.
	//
	// Returns:
	//   - int: the batch count
	NumGeometries() int

	// LodLevels returns the LOD geometries of a batch, nearest first.
	//
	// Parameters:
	//   - batch: the batch index
	//
	// Returns:
	//   - []*graphics.Geometry: LOD geometries, nil when out of range
	LodLevels(batch int) []*graphics.Geometry

	// Geometry returns one LOD geometry of a batch.
	//
	// Parameters:
	//   - batch: the batch index
	//   - lod: the LOD level
	//
	// Returns:
	//   - *graphics.Geometry: the geometry, or nil when out of range
	Geometry(batch, lod int) *graphics.Geometry

	// GeometryCenter returns the local-space center of a batch's first LOD level.
	GeometryCenter(batch int) [3]float32

	// BoundingBox returns the local-space bounding box.
	//
	// Returns:
	//   - common.BoundingBox: the bounding box
	BoundingBox() common.BoundingBox

	// Skeleton retrieves the bone hierarchy, nil for static models.
	//
	// Returns:
	//   - *Skeleton: the skeleton or nil
	Skeleton() *Skeleton

	// Skinned reports whether the model has a skeleton.
	Skinned() bool
}

var _ Model = &model{}

// NewModel creates a new Model configured with the provided options.
// When no bounding box is given it is computed from the geometries.
//
// Parameters:
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: the constructed Model instance
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, opt := range options {
		opt(m)
	}

	m.centers = make([][3]float32, len(m.geometries))
	computeBox := !m.boundingBox.Defined
	for i, lods := range m.geometries {
		if len(lods) == 0 || lods[0] == nil {
			continue
		}
		box := lods[0].BoundingBox()
		if box.Defined {
			m.centers[i] = box.Center()
			if computeBox {
				m.boundingBox.Merge(box)
			}
		}
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) NumGeometries() int {
	return len(m.geometries)
}

func (m *model) LodLevels(batch int) []*graphics.Geometry {
	if batch < 0 || batch >= len(m.geometries) {
		return nil
	}
	return m.geometries[batch]
}

func (m *model) Geometry(batch, lod int) *graphics.Geometry {
	lods := m.LodLevels(batch)
	if lod < 0 || lod >= len(lods) {
		return nil
	}
	return lods[lod]
}

func (m *model) GeometryCenter(batch int) [3]float32 {
	if batch < 0 || batch >= len(m.centers) {
		return [3]float32{}
	}
	return m.centers[batch]
}

func (m *model) BoundingBox() common.BoundingBox {
	return m.boundingBox
}

func (m *model) Skeleton() *Skeleton {
	return m.skeleton
}

func (m *model) Skinned() bool {
	return m.skeleton != nil && len(m.skeleton.Bones) > 0
}
