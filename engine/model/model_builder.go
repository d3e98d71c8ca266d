package model

import (
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// ModelBuilderOption is a functional option for configuring a Model via NewModel.
type ModelBuilderOption func(*model)

// WithName is an option builder that sets the name of the Model.
//
// Parameters:
//   - name: the model identifier
//
// Returns:
//   - ModelBuilderOption: a function that applies the name option to a model
func WithName(name string) ModelBuilderOption {
	return func(m *model) {
		m.name = name
	}
}

// WithGeometry is an option builder that appends a batch with its LOD levels.
// LOD levels must be ordered nearest first; each level's LodDistance is the distance
// from which it is used.
//
// Parameters:
//   - lods: the LOD geometries of the batch
//
// Returns:
//   - ModelBuilderOption: a function that appends the batch to a model
func WithGeometry(lods ...*graphics.Geometry) ModelBuilderOption {
	return func(m *model) {
		m.geometries = append(m.geometries, lods)
	}
}

// WithBoundingBox is an option builder that sets the local-space bounding box instead of
// computing it from the geometries.
//
// Parameters:
//   - box: the bounding box
//
// Returns:
//   - ModelBuilderOption: a function that applies the bounding box to a model
func WithBoundingBox(box common.BoundingBox) ModelBuilderOption {
	return func(m *model) {
		m.boundingBox = box
	}
}

// WithSkeleton is an option builder that sets the bone hierarchy of the Model.
//
// Parameters:
//   - skeleton: the skeleton to set
//
// Returns:
//   - ModelBuilderOption: a function that applies the skeleton option to a model
func WithSkeleton(skeleton *Skeleton) ModelBuilderOption {
	return func(m *model) {
		m.skeleton = skeleton
	}
}
