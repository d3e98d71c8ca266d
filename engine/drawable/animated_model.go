package drawable

import (
	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/model"
)

// AnimatedModel draws a skinned model. Bone poses are supplied from outside (animation
// blending is not part of this package); the bounding box follows the posed bones.
type AnimatedModel struct {
	StaticModel
	bonePoses    [][16]float32
	skinMatrices []float32
}

var _ Drawable = &AnimatedModel{}

// NewAnimatedModel creates a skinned drawable. Animated models never act as occluders.
//
// Parameters:
//   - m: the model; its skeleton defines the bones
//   - options: drawable options
//
// Returns:
//   - *AnimatedModel: the drawable
func NewAnimatedModel(m model.Model, options ...Option) *AnimatedModel {
	a := &AnimatedModel{StaticModel: *NewStaticModel(m, options...)}
	a.occluder = false
	a.SetBonePoses(nil)
	return a
}

// SetBonePoses sets the model-space transform of every bone. Missing entries use the
// bind pose.
//
// Parameters:
//   - poses: model-space bone transforms indexed like the skeleton's bones
func (a *AnimatedModel) SetBonePoses(poses [][16]float32) {
	skeleton := a.skeleton()
	if skeleton == nil {
		a.bonePoses = nil
		a.skinMatrices = nil
		return
	}
	n := len(skeleton.Bones)
	a.bonePoses = make([][16]float32, n)
	a.skinMatrices = a.skinMatrices[:0]
	box := common.BoundingBox{}
	for i, bone := range skeleton.Bones {
		if i < len(poses) {
			a.bonePoses[i] = poses[i]
		} else {
			a.bonePoses[i] = common.InverseMatrix(bone.InverseBindMatrix)
		}
		skin := graphics.Matrix3x4(common.MulMatrix(a.bonePoses[i], bone.InverseBindMatrix))
		a.skinMatrices = append(a.skinMatrices, skin[:]...)
		if bone.BoundingBox.Defined {
			box.Merge(bone.BoundingBox.Transformed(a.bonePoses[i]))
		}
	}
	if !box.Defined && a.model != nil {
		box = a.model.BoundingBox()
	}
	a.SetBoundingBox(box)
}

// BonePoses returns the current model-space bone transforms.
func (a *AnimatedModel) BonePoses() [][16]float32 {
	return a.bonePoses
}

func (a *AnimatedModel) Batch(frame FrameInfo, state ViewState, i int) SourceBatch {
	b := a.StaticModel.Batch(frame, state, i)
	if b.Geometry == nil || a.skinMatrices == nil {
		return b
	}
	b.GeometryType = GeometrySkinned
	b.SkinMatrices = a.skinMatrices
	return b
}

func (a *AnimatedModel) NumOccluderTriangles() int {
	return 0
}

func (a *AnimatedModel) DrawOcclusion(OcclusionTarget) bool {
	return true
}

func (a *AnimatedModel) skeleton() *model.Skeleton {
	if a.model == nil || !a.model.Skinned() {
		return nil
	}
	return a.model.Skeleton()
}
