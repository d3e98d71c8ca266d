package drawable

import (
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
	"github.com/Carmen-Shannon/oxy-view/engine/model"
)

// StaticModel draws a model with one material per batch and distance-based LOD selection.
type StaticModel struct {
	Base
	model        model.Model
	materials    []material.Material
	occlusionLod int
}

var _ Drawable = &StaticModel{}

// NewStaticModel creates a geometry drawable for a model.
//
// Parameters:
//   - m: the model, may be nil and set later
//   - options: drawable options
//
// Returns:
//   - *StaticModel: the drawable
func NewStaticModel(m model.Model, options ...Option) *StaticModel {
	s := &StaticModel{Base: NewBase(FlagGeometry, options...)}
	s.SetModel(m)
	return s
}

// Model returns the model.
func (s *StaticModel) Model() model.Model {
	return s.model
}

// SetModel replaces the model, resizing the material list and taking over its bounding box.
func (s *StaticModel) SetModel(m model.Model) {
	s.model = m
	if m == nil {
		s.materials = nil
		s.SetBoundingBox(common.BoundingBox{})
		return
	}
	mats := make([]material.Material, m.NumGeometries())
	copy(mats, s.materials)
	s.materials = mats
	s.SetBoundingBox(m.BoundingBox())
}

// SetMaterial sets the material of every batch.
func (s *StaticModel) SetMaterial(mat material.Material) {
	for i := range s.materials {
		s.materials[i] = mat
	}
}

// SetBatchMaterial sets the material of one batch.
//
// Returns:
//   - bool: false when the index is out of range
func (s *StaticModel) SetBatchMaterial(i int, mat material.Material) bool {
	if i < 0 || i >= len(s.materials) {
		return false
	}
	s.materials[i] = mat
	return true
}

// Material returns the material of batch i, or nil.
func (s *StaticModel) Material(i int) material.Material {
	if i < 0 || i >= len(s.materials) {
		return nil
	}
	return s.materials[i]
}

// SetOcclusionLodLevel selects the LOD level rasterized into occlusion buffers.
func (s *StaticModel) SetOcclusionLodLevel(level int) {
	s.occlusionLod = max(level, 0)
}

func (s *StaticModel) NumBatches() int {
	if s.model == nil {
		return 0
	}
	return s.model.NumGeometries()
}

func (s *StaticModel) Batch(frame FrameInfo, state ViewState, i int) SourceBatch {
	if s.model == nil || i < 0 || i >= s.model.NumGeometries() {
		return SourceBatch{}
	}
	distance := state.Distance
	if s.model.NumGeometries() > 1 && frame.Camera != nil {
		distance = frame.Camera.Distance(common.TransformPoint(s.worldTransform, s.model.GeometryCenter(i)))
	}
	return SourceBatch{
		Geometry:       s.LodGeometry(i, state.LodDistance),
		Material:       s.materials[i],
		WorldTransform: s.worldTransform,
		Distance:       distance,
		GeometryType:   GeometryStatic,
	}
}

// LodGeometry returns the geometry of a batch for a LOD distance: the last level whose
// LOD distance is below lodDistance.
func (s *StaticModel) LodGeometry(batch int, lodDistance float32) *graphics.Geometry {
	lods := s.model.LodLevels(batch)
	if len(lods) == 0 {
		return nil
	}
	j := 1
	for ; j < len(lods); j++ {
		if lods[j] != nil && lodDistance <= lods[j].LodDistance {
			break
		}
	}
	return lods[j-1]
}

func (s *StaticModel) NumOccluderTriangles() int {
	triangles := 0
	for i := 0; i < s.NumBatches(); i++ {
		geometry := s.occlusionGeometry(i)
		if geometry == nil {
			continue
		}
		if mat := s.materials[i]; mat != nil && !mat.Occlusion() {
			continue
		}
		triangles += geometry.TriangleCount()
	}
	return triangles
}

func (s *StaticModel) DrawOcclusion(target OcclusionTarget) bool {
	for i := 0; i < s.NumBatches(); i++ {
		geometry := s.occlusionGeometry(i)
		if geometry.IsEmpty() {
			continue
		}
		if mat := s.materials[i]; mat != nil {
			if !mat.Occlusion() {
				continue
			}
			target.SetCullMode(mat.CullMode())
		} else {
			target.SetCullMode(graphics.CullCCW)
		}
		if !target.Draw(s.worldTransform, geometry) {
			return false
		}
	}
	return true
}

func (s *StaticModel) occlusionGeometry(batch int) *graphics.Geometry {
	lods := s.model.LodLevels(batch)
	if len(lods) == 0 {
		return nil
	}
	return lods[min(s.occlusionLod, len(lods)-1)]
}
