package occlusion

import (
	"github.com/chewxy/math32"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/camera"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/spatial"
)

// clearDepth is the depth of pixels no occluder covered.
const clearDepth float32 = math32.MaxFloat32

// hierarchyTestCells is the largest number of cells per axis IsVisible tests at a level.
const hierarchyTestCells = 16

// OcclusionBuffer is a coarse software depth buffer. Occluders are rasterized into it
// from one camera's point of view; afterwards it answers whether a bounding box may be
// visible behind them.
//
// A buffer is used by one view at a time: the renderer hands it out from a pool and takes
// it back at the next frame boundary.
type OcclusionBuffer interface {
	drawable.OcclusionTarget
	spatial.Visibility

	// SetSize resizes the buffer and clears it.
	//
	// Parameters:
	//   - width, height: buffer size in pixels, at least 1
	SetSize(width, height int)

	// Width returns the buffer width in pixels.
	Width() int

	// Height returns the buffer height in pixels.
	Height() int

	// SetView sets the camera occluders are rasterized from.
	//
	// Parameters:
	//   - cam: the camera
	SetView(cam camera.Camera)

	// SetMaxTriangles sets the triangle budget. Draw returns false once it is spent.
	SetMaxTriangles(n int)

	// MaxTriangles returns the triangle budget.
	MaxTriangles() int

	// NumTriangles returns the number of triangles drawn since the last Reset.
	NumTriangles() int

	// Reset clears depth, the triangle count and the depth hierarchy.
	Reset()

	// BuildDepthHierarchy builds the min/max depth levels IsVisible tests against.
	// Draws after it are not reflected until it is called again.
	BuildDepthHierarchy()
}

type occlusionBuffer struct {
	width        int
	height       int
	depth        []float32
	levels       []depthLevel
	built        bool
	viewProj     [16]float32
	view         [16]float32
	nearClip     float32
	hasView      bool
	cullMode     graphics.CullMode
	maxTriangles int
	numTriangles int
}

// depthLevel holds the min and max depth of each cell of one hierarchy level.
type depthLevel struct {
	width, height int
	min, max      []float32
}

var _ OcclusionBuffer = &occlusionBuffer{}

// NewOcclusionBuffer creates a cleared buffer with the given options applied.
//
// Defaults: 256x256 pixels, a budget of 5000 triangles, counter-clockwise culling.
//
// Parameters:
//   - options: functional options configuring the buffer
//
// Returns:
//   - OcclusionBuffer: the buffer
func NewOcclusionBuffer(options ...OcclusionBufferBuilderOption) OcclusionBuffer {
	b := &occlusionBuffer{
		width:        256,
		height:       256,
		cullMode:     graphics.CullCCW,
		maxTriangles: 5000,
		viewProj:     common.IdentityMatrix(),
		view:         common.IdentityMatrix(),
	}
	for _, opt := range options {
		opt(b)
	}
	b.SetSize(b.width, b.height)
	return b
}

func (b *occlusionBuffer) SetSize(width, height int) {
	b.width = max(width, 1)
	b.height = max(height, 1)
	if cap(b.depth) >= b.width*b.height {
		b.depth = b.depth[:b.width*b.height]
	} else {
		b.depth = make([]float32, b.width*b.height)
	}
	b.levels = b.levels[:0]
	b.Reset()
}

func (b *occlusionBuffer) Width() int {
	return b.width
}

func (b *occlusionBuffer) Height() int {
	return b.height
}

func (b *occlusionBuffer) SetView(cam camera.Camera) {
	if cam == nil {
		b.hasView = false
		return
	}
	b.viewProj = cam.ViewProjectionMatrix()
	b.view = cam.ViewMatrix()
	b.nearClip = cam.NearClip()
	b.hasView = true
}

func (b *occlusionBuffer) SetMaxTriangles(n int) {
	b.maxTriangles = max(n, 0)
}

func (b *occlusionBuffer) MaxTriangles() int {
	return b.maxTriangles
}

func (b *occlusionBuffer) NumTriangles() int {
	return b.numTriangles
}

func (b *occlusionBuffer) SetCullMode(mode graphics.CullMode) {
	b.cullMode = mode
}

func (b *occlusionBuffer) Reset() {
	for i := range b.depth {
		b.depth[i] = clearDepth
	}
	b.numTriangles = 0
	b.built = false
}

// Draw rasterizes the triangles of a geometry's index range transformed by model. It
// stops and returns false when the triangle budget runs out.
func (b *occlusionBuffer) Draw(model [16]float32, geometry *graphics.Geometry) bool {
	if geometry.IsEmpty() || geometry.Primitive != graphics.TriangleList {
		return true
	}
	mvp := common.MulMatrix(b.viewProj, model)
	end := min(geometry.IndexStart+geometry.IndexCount, len(geometry.Indices))
	for i := geometry.IndexStart; i+2 < end; i += 3 {
		if b.numTriangles >= b.maxTriangles {
			return false
		}
		var clip [3][4]float32
		for k := 0; k < 3; k++ {
			clip[k] = transformClip(mvp, geometry.Position(int(geometry.Indices[i+k])))
		}
		b.drawTriangle(clip)
		b.numTriangles++
	}
	return true
}

func (b *occlusionBuffer) BuildDepthHierarchy() {
	b.levels = b.levels[:0]
	base := depthLevel{width: b.width, height: b.height, min: b.depth, max: b.depth}
	b.levels = append(b.levels, base)

	prev := base
	for prev.width > 1 || prev.height > 1 {
		lvl := depthLevel{width: (prev.width + 1) / 2, height: (prev.height + 1) / 2}
		lvl.min = make([]float32, lvl.width*lvl.height)
		lvl.max = make([]float32, lvl.width*lvl.height)
		for y := 0; y < lvl.height; y++ {
			for x := 0; x < lvl.width; x++ {
				mn, mx := clearDepth, float32(0)
				for dy := 0; dy < 2; dy++ {
					for dx := 0; dx < 2; dx++ {
						sx := min(x*2+dx, prev.width-1)
						sy := min(y*2+dy, prev.height-1)
						mn = min(mn, prev.min[sy*prev.width+sx])
						mx = max(mx, prev.max[sy*prev.width+sx])
					}
				}
				lvl.min[y*lvl.width+x] = mn
				lvl.max[y*lvl.width+x] = mx
			}
		}
		b.levels = append(b.levels, lvl)
		prev = lvl
	}
	b.built = true
}

// IsVisible projects a world-space box into the buffer and reports whether its nearest
// depth lies in front of the deepest occluder depth of any cell it covers. Before the
// hierarchy is built the box is tested pixel by pixel against the depth drawn so far.
// Boxes crossing the near plane count as visible.
func (b *occlusionBuffer) IsVisible(box common.BoundingBox) bool {
	if !b.hasView || !box.Defined {
		return true
	}
	viewBox := box.Transformed(b.view)
	if viewBox.Min[2] <= b.nearClip {
		return true
	}

	var rect common.BoundingBox
	for _, c := range box.Corners() {
		p := transformClip(b.viewProj, c)
		if p[3] <= 0 {
			return true
		}
		inv := 1 / p[3]
		rect.MergePoint([3]float32{
			(p[0]*inv*0.5 + 0.5) * float32(b.width),
			(0.5 - p[1]*inv*0.5) * float32(b.height),
			p[2] * inv,
		})
	}

	x0 := max(int(math32.Floor(rect.Min[0])), 0)
	y0 := max(int(math32.Floor(rect.Min[1])), 0)
	x1 := min(int(math32.Ceil(rect.Max[0])), b.width) - 1
	y1 := min(int(math32.Ceil(rect.Max[1])), b.height) - 1
	if x1 < x0 || y1 < y0 {
		return false
	}
	minZ := rect.Min[2]

	level := 0
	lvl := depthLevel{width: b.width, height: b.height, min: b.depth, max: b.depth}
	if b.built {
		for level < len(b.levels)-1 && ((x1>>level)-(x0>>level) >= hierarchyTestCells || (y1>>level)-(y0>>level) >= hierarchyTestCells) {
			level++
		}
		lvl = b.levels[level]
	}
	for y := y0 >> level; y <= y1>>level; y++ {
		row := y * lvl.width
		for x := x0 >> level; x <= x1>>level; x++ {
			if minZ <= lvl.max[row+x] {
				return true
			}
		}
	}
	return false
}
