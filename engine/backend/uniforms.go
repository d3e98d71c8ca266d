package backend

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
)

// maxSkinBones is the number of 3x4 skin matrices the parameter block holds.
const maxSkinBones = 64

// uniformAlignment is the dynamic offset alignment WebGPU guarantees.
const uniformAlignment = 256

// UniformSlot is the position of one shader parameter in the parameter block.
type UniformSlot struct {
	Param graphics.ShaderParam
	// Offset is the first vec4 slot.
	Offset int
	// Slots is the number of vec4 slots reserved.
	Slots int
}

// UniformLayout is the ordered layout of the parameter block.
type UniformLayout struct {
	slots  []UniformSlot
	index  map[graphics.ShaderParam]int
	floats int
}

// uniformOrder lists every parameter with its size in vec4 slots. Matrices are 4 slots,
// 3x4 transforms 3.
var uniformOrder = []struct {
	param graphics.ShaderParam
	slots int
}{
	{graphics.VSPModel, 3},
	{graphics.VSPViewProj, 4},
	{graphics.VSPCameraPos, 1},
	{graphics.VSPCameraRot, 3},
	{graphics.VSPDepthMode, 1},
	{graphics.VSPElapsedTime, 1},
	{graphics.VSPFrustumSize, 1},
	{graphics.VSPGBufferOffsets, 1},
	{graphics.VSPLightDir, 1},
	{graphics.VSPLightPos, 1},
	{graphics.VSPViewRightVector, 1},
	{graphics.VSPViewUpVector, 1},
	{graphics.VSPSpotProj, 4},
	{graphics.VSPShadowProj, 4},
	{graphics.PSPAmbientColor, 1},
	{graphics.PSPCameraPos, 1},
	{graphics.PSPDepthReconstruct, 1},
	{graphics.PSPElapsedTime, 1},
	{graphics.PSPFogColor, 1},
	{graphics.PSPFogParams, 1},
	{graphics.PSPGBufferOffsets, 1},
	{graphics.PSPGBufferViewport, 1},
	{graphics.PSPLightColor, 1},
	{graphics.PSPLightDir, 1},
	{graphics.PSPLightPos, 1},
	{graphics.PSPLightSpecIntensity, 1},
	{graphics.PSPLightSplits, 1},
	{graphics.PSPLightVecRot, 3},
	{graphics.PSPMatDiffColor, 1},
	{graphics.PSPSampleOffsets, 1},
	{graphics.PSPShadowCubeAdjust, 1},
	{graphics.PSPShadowDepthFade, 1},
	{graphics.PSPShadowIntensity, 1},
	{graphics.PSPShadowProjection, 4},
	{graphics.PSPShadowSplits, 1},
	{graphics.PSPViewProj, 4},
	{graphics.VSPSkinMatrices, maxSkinBones * 3},
}

// DefaultUniformLayout returns the parameter block layout shaders are written against.
//
// Returns:
//   - *UniformLayout: the layout
func DefaultUniformLayout() *UniformLayout {
	l := &UniformLayout{index: make(map[graphics.ShaderParam]int, len(uniformOrder))}
	offset := 0
	for _, u := range uniformOrder {
		l.index[u.param] = len(l.slots)
		l.slots = append(l.slots, UniformSlot{Param: u.param, Offset: offset, Slots: u.slots})
		offset += u.slots
	}
	l.floats = offset * 4
	return l
}

// Slot returns the slot of a parameter.
func (l *UniformLayout) Slot(param graphics.ShaderParam) (UniformSlot, bool) {
	i, ok := l.index[param]
	if !ok {
		return UniformSlot{}, false
	}
	return l.slots[i], true
}

// Slots returns every slot in block order.
func (l *UniformLayout) Slots() []UniformSlot {
	return l.slots
}

// Size returns the block size in bytes.
func (l *UniformLayout) Size() uint64 {
	return uint64(l.floats * 4)
}

// AlignedSize returns the block size rounded up to the dynamic offset alignment.
func (l *UniformLayout) AlignedSize() uint64 {
	return alignUp(l.Size(), uniformAlignment)
}

// Pack writes params into dst, which must hold Size()/4 floats. Unknown parameters are
// ignored and values longer than their slots are truncated. Returns the number of floats
// up to the end of the last slot written, so callers can upload only that prefix.
//
// Parameters:
//   - dst: the destination block
//   - params: the parameter values
//
// Returns:
//   - int: the used prefix length in floats
func (l *UniformLayout) Pack(dst []float32, params map[graphics.ShaderParam][]float32) int {
	used := 0
	for param, values := range params {
		s, ok := l.Slot(param)
		if !ok {
			continue
		}
		start := s.Offset * 4
		n := copy(dst[start:start+s.Slots*4], values)
		clear(dst[start+n : start+s.Slots*4])
		if end := start + s.Slots*4; end > used {
			used = end
		}
	}
	return used
}

// WGSLStruct returns the WGSL declaration of the parameter block with one field per
// parameter, named after it. Four-slot parameters are mat4x4<f32>, other multi-slot
// parameters arrays of vec4<f32>.
//
// Parameters:
//   - name: the struct name
//
// Returns:
//   - string: the WGSL struct declaration
func (l *UniformLayout) WGSLStruct(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "struct %s {\n", name)
	for _, s := range l.slots {
		typ := "vec4<f32>"
		switch {
		case s.Slots == 4:
			typ = "mat4x4<f32>"
		case s.Slots > 1:
			typ = fmt.Sprintf("array<vec4<f32>, %d>", s.Slots)
		}
		fmt.Fprintf(&sb, "    %s: %s,\n", s.Param, typ)
	}
	sb.WriteString("};\n")
	return sb.String()
}

func alignUp(v, align uint64) uint64 {
	return (v + align - 1) / align * align
}
