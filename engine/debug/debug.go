package debug

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/model"
)

// lineStride is the number of floats per debug vertex: position then RGBA color.
const lineStride = 7

// Line is one colored debug line segment in world space.
type Line struct {
	Start [3]float32
	End   [3]float32
	Color [4]float32
}

// DebugRenderer accumulates debug lines during a frame and draws them after the scene
// passes of the main view. Lines are either depth tested against the scene or drawn on
// top of it. Accumulated lines are dropped by Clear at the end of the frame.
type DebugRenderer interface {
	// SetView sets the camera used for the view-projection matrix and visibility checks.
	//
	// Parameters:
	//   - cam: the main view camera
	SetView(cam camera.Camera)

	// AddLine adds a line segment.
	//
	// Parameters:
	//   - start, end: world-space endpoints
	//   - color: RGBA color
	//   - depthTest: whether the line is hidden behind scene geometry
	AddLine(start, end [3]float32, color [4]float32, depthTest bool)

	// AddBoundingBox adds the twelve edges of a box.
	AddBoundingBox(box common.BoundingBox, color [4]float32, depthTest bool)

	// AddFrustum adds the twelve edges of a frustum.
	AddFrustum(f common.Frustum, color [4]float32, depthTest bool)

	// AddSkeleton adds a line from every posed bone to its parent.
	//
	// Parameters:
	//   - skeleton: the bone hierarchy
	//   - poses: world transform per bone, indexed like skeleton.Bones
	//   - color: RGBA color
	//   - depthTest: whether the lines are depth tested
	AddSkeleton(skeleton *model.Skeleton, poses [][16]float32, color [4]float32, depthTest bool)

	// IsInside reports whether a box is inside the view frustum and worth drawing.
	IsInside(box common.BoundingBox) bool

	// NumLines returns the number of depth tested and non depth tested lines.
	NumLines() (depth, noDepth int)

	// Render draws the accumulated lines.
	//
	// Parameters:
	//   - g: the graphics backend
	//   - vs, ps: the vertex-colored shader pair
	Render(g graphics.Graphics, vs, ps *graphics.ShaderVariation)

	// Clear drops the accumulated lines.
	Clear()
}

type debugRenderer struct {
	mu           *sync.Mutex
	lines        []Line
	noDepthLines []Line
	viewProj     [16]float32
	frustum      common.Frustum
}

var _ DebugRenderer = &debugRenderer{}

// NewDebugRenderer creates an empty DebugRenderer with an identity view.
//
// Returns:
//   - DebugRenderer: the debug renderer
func NewDebugRenderer() DebugRenderer {
	return &debugRenderer{
		mu:       &sync.Mutex{},
		viewProj: common.IdentityMatrix(),
	}
}

func (d *debugRenderer) SetView(cam camera.Camera) {
	if cam == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.viewProj = cam.ViewProjectionMatrix()
	d.frustum = cam.Frustum()
}

func (d *debugRenderer) AddLine(start, end [3]float32, color [4]float32, depthTest bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.add(Line{Start: start, End: end, Color: color}, depthTest)
}

func (d *debugRenderer) AddBoundingBox(box common.BoundingBox, color [4]float32, depthTest bool) {
	if !box.Defined {
		return
	}
	c := box.Corners()
	d.addEdges([8][3]float32{c[0], c[1], c[3], c[2], c[4], c[5], c[7], c[6]}, color, depthTest)
}

func (d *debugRenderer) AddFrustum(f common.Frustum, color [4]float32, depthTest bool) {
	d.addEdges(f.Vertices, color, depthTest)
}

func (d *debugRenderer) AddSkeleton(skeleton *model.Skeleton, poses [][16]float32, color [4]float32, depthTest bool) {
	if skeleton == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, bone := range skeleton.Bones {
		p := int(bone.ParentIndex)
		if p < 0 || p == i || i >= len(poses) || p >= len(poses) {
			continue
		}
		d.add(Line{Start: common.Translation(poses[i]), End: common.Translation(poses[p]), Color: color}, depthTest)
	}
}

func (d *debugRenderer) IsInside(box common.BoundingBox) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.frustum.Defined {
		return true
	}
	return d.frustum.IsInsideBoxFast(box) != common.Outside
}

func (d *debugRenderer) NumLines() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lines), len(d.noDepthLines)
}

func (d *debugRenderer) Render(g graphics.Graphics, vs, ps *graphics.ShaderVariation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.lines) == 0 && len(d.noDepthLines) == 0 {
		return
	}

	g.SetAlphaTest(false, graphics.CompareAlways, 0)
	g.SetBlendMode(graphics.BlendReplace)
	g.SetColorWrite(true)
	g.SetCullMode(graphics.CullNone)
	g.SetDepthWrite(true)
	g.SetDepthTest(graphics.CompareLessEqual)
	g.SetFillMode(graphics.FillSolid)
	g.SetScissorTest(false, common.Rect{}, false)
	g.SetStencilTest(false, graphics.CompareAlways, graphics.StencilKeep, graphics.StencilKeep, graphics.StencilKeep, 0, 0, 0)
	g.SetShaders(vs, ps)
	identity := common.IdentityMatrix()
	g.SetShaderParameter(graphics.VSPModel, identity[:])
	g.SetShaderParameter(graphics.VSPViewProj, d.viewProj[:])
	g.SetShaderParameter(graphics.PSPMatDiffColor, []float32{1, 1, 1, 1})

	if len(d.lines) > 0 {
		g.Draw(lineGeometry("DebugLines", d.lines))
	}
	g.SetDepthTest(graphics.CompareAlways)
	if len(d.noDepthLines) > 0 {
		g.Draw(lineGeometry("DebugLinesNoDepth", d.noDepthLines))
	}
}

func (d *debugRenderer) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = d.lines[:0]
	d.noDepthLines = d.noDepthLines[:0]
}

func (d *debugRenderer) add(l Line, depthTest bool) {
	if depthTest {
		d.lines = append(d.lines, l)
	} else {
		d.noDepthLines = append(d.noDepthLines, l)
	}
}

// addEdges adds the edges of a hexahedron given as four near corners then four far
// corners, each face in winding order.
func (d *debugRenderer) addEdges(v [8][3]float32, color [4]float32, depthTest bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < 4; i++ {
		j := (i + 1) % 4
		d.add(Line{Start: v[i], End: v[j], Color: color}, depthTest)
		d.add(Line{Start: v[i+4], End: v[j+4], Color: color}, depthTest)
		d.add(Line{Start: v[i], End: v[i+4], Color: color}, depthTest)
	}
}

func lineGeometry(name string, lines []Line) *graphics.Geometry {
	vertices := make([]float32, 0, len(lines)*2*lineStride)
	indices := make([]uint32, 0, len(lines)*2)
	for _, l := range lines {
		for _, p := range [2][3]float32{l.Start, l.End} {
			indices = append(indices, uint32(len(vertices)/lineStride))
			vertices = append(vertices, p[0], p[1], p[2], l.Color[0], l.Color[1], l.Color[2], l.Color[3])
		}
	}
	g := graphics.NewGeometry(name, vertices, lineStride, indices)
	g.Primitive = graphics.LineList
	return g
}
