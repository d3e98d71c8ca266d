package batch

import (
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/material"
)

// MinInstances is the smallest group drawn with a single instanced draw call.
const MinInstances = 2

// instanceFloats is the size of one instance transform (3x4 row-major).
const instanceFloats = 12

// GroupKey identifies batches that can share an instanced draw call.
type GroupKey struct {
	Geometry     *graphics.Geometry
	Material     material.Material
	Light        *light.Split
	VertexShader *graphics.ShaderVariation
	PixelShader  *graphics.ShaderVariation
	Pass         *material.Pass
}

// Instance is one member of a Group.
type Instance struct {
	WorldTransform [16]float32
	Distance       float32
}

// Group is a set of static batches differing only in world transform.
type Group struct {
	// Batch holds the shared state; its world transform and distance are the first
	// instance's after sorting.
	Batch
	Instances []Instance
	// StartIndex is the group's first instance in the view's instancing buffer, -1 when
	// the group uploads its own instance data.
	StartIndex int
}

func newGroup(b Batch) *Group {
	return &Group{Batch: b, StartIndex: -1}
}

func (gr *Group) add(b *Batch) {
	gr.Instances = append(gr.Instances, Instance{WorldTransform: b.WorldTransform, Distance: b.Distance})
}

// Key returns the group's key.
func (gr *Group) Key() GroupKey {
	return keyOf(&gr.Batch)
}

// Instanced reports whether the group is drawn with one instanced call.
func (gr *Group) Instanced() bool {
	return len(gr.Instances) >= MinInstances && gr.InstancingShader != nil
}

// AppendTransforms appends the instance transforms to buf and records where they start.
func (gr *Group) AppendTransforms(buf []float32) []float32 {
	gr.StartIndex = len(buf) / instanceFloats
	for _, inst := range gr.Instances {
		m := graphics.Matrix3x4(inst.WorldTransform)
		buf = append(buf, m[:]...)
	}
	return buf
}

// Draw draws the group. Groups below MinInstances, or drawn without instancing support,
// fall back to one draw per instance.
//
// Parameters:
//   - g: the graphics backend
//   - instancing: whether instanced drawing is enabled and supported
//   - shared: view-wide shader parameters
func (gr *Group) Draw(g graphics.Graphics, instancing bool, shared map[graphics.ShaderParam][]float32) {
	if len(gr.Instances) == 0 || gr.Geometry.IsEmpty() {
		return
	}
	if !instancing || !gr.Instanced() {
		b := gr.Batch
		for _, inst := range gr.Instances {
			b.WorldTransform = inst.WorldTransform
			b.Distance = inst.Distance
			b.Draw(g, shared)
		}
		return
	}

	gr.Prepare(g, shared, false)
	if gr.StartIndex < 0 {
		g.SetInstanceData(gr.AppendTransforms(nil))
		gr.StartIndex = -1
		g.DrawInstanced(gr.Geometry, 0, len(gr.Instances))
		return
	}
	g.DrawInstanced(gr.Geometry, gr.StartIndex, len(gr.Instances))
}

func keyOf(b *Batch) GroupKey {
	return GroupKey{
		Geometry:     b.Geometry,
		Material:     b.Material,
		Light:        b.Light,
		VertexShader: b.VertexShader,
		PixelShader:  b.PixelShader,
		Pass:         b.Pass,
	}
}

// LightQueue holds the batches of one split light.
type LightQueue struct {
	// SplitIndex indexes the view's split arena.
	SplitIndex int
	Light      *light.Split
	// ShadowCamera is the split's shadow camera, nil when unshadowed.
	ShadowCamera  camera.Camera
	ShadowBatches *Queue
	LitBatches    *Queue
	// VolumeBatches are the deferred light volume draws, not sorted.
	VolumeBatches []Batch
	// FirstSplit marks the first stored split of a light; stencil state is reset on it.
	FirstSplit bool
	// LastSplit marks the last stored split of a light.
	LastSplit bool
}

// NewLightQueue creates an empty light queue for a split.
func NewLightQueue(splitIndex int, s *light.Split, instancing bool) *LightQueue {
	return &LightQueue{
		SplitIndex:    splitIndex,
		Light:         s,
		ShadowBatches: NewQueue(instancing),
		LitBatches:    NewQueue(instancing),
	}
}
