package graphics

// ShaderType identifies the pipeline stage of a shader variation.
type ShaderType int

const (
	ShaderTypeVertex ShaderType = iota
	ShaderTypePixel
)

// ShaderVariation is one compiled permutation of a shader, identified by name
// (e.g. "LitSolid_DirShadow"). Source holds WGSL code for backends that compile it;
// a variation without source is a placeholder that backends skip when drawing.
type ShaderVariation struct {
	Name   string
	Type   ShaderType
	Source string
	// EntryPoint is the WGSL entry point, defaulting to vs_main / fs_main.
	EntryPoint string
}

// ShaderParam is a symbolic shader constant key.
type ShaderParam string

// Vertex shader parameters.
const (
	VSPCameraPos       ShaderParam = "cCameraPos"
	VSPCameraRot       ShaderParam = "cCameraRot"
	VSPDepthMode       ShaderParam = "cDepthMode"
	VSPElapsedTime     ShaderParam = "cElapsedTime"
	VSPFrustumSize     ShaderParam = "cFrustumSize"
	VSPGBufferOffsets  ShaderParam = "cGBufferOffsets"
	VSPLightDir        ShaderParam = "cLightDir"
	VSPLightPos        ShaderParam = "cLightPos"
	VSPModel           ShaderParam = "cModel"
	VSPSkinMatrices    ShaderParam = "cSkinMatrices"
	VSPViewProj        ShaderParam = "cViewProj"
	VSPShadowProj      ShaderParam = "cShadowProj"
	VSPSpotProj        ShaderParam = "cSpotProj"
	VSPViewRightVector ShaderParam = "cViewRightVector"
	VSPViewUpVector    ShaderParam = "cViewUpVector"
)

// Pixel shader parameters.
const (
	PSPAmbientColor       ShaderParam = "cAmbientColor"
	PSPDepthReconstruct   ShaderParam = "cDepthReconstruct"
	PSPFogColor           ShaderParam = "cFogColor"
	PSPFogParams          ShaderParam = "cFogParams"
	PSPGBufferOffsets     ShaderParam = "cGBufferOffsetsPS"
	PSPGBufferViewport    ShaderParam = "cGBufferViewport"
	PSPLightColor         ShaderParam = "cLightColor"
	PSPLightDir           ShaderParam = "cLightDirPS"
	PSPLightPos           ShaderParam = "cLightPosPS"
	PSPMatDiffColor       ShaderParam = "cMatDiffColor"
	PSPSampleOffsets      ShaderParam = "cSampleOffsets"
	PSPShadowCubeAdjust   ShaderParam = "cShadowCubeAdjust"
	PSPShadowDepthFade    ShaderParam = "cShadowDepthFade"
	PSPShadowIntensity    ShaderParam = "cShadowIntensity"
	PSPShadowProjection   ShaderParam = "cShadowProjection"
	PSPShadowSplits       ShaderParam = "cShadowSplits"
	PSPLightSplits        ShaderParam = "cLightSplits"
	PSPLightVecRot        ShaderParam = "cLightVecRot"
	PSPLightSpecIntensity ShaderParam = "cLightSpecIntensity"
	PSPCameraPos          ShaderParam = "cCameraPosPS"
	PSPElapsedTime        ShaderParam = "cElapsedTimePS"
	PSPViewProj           ShaderParam = "cViewProjPS"
)

// Matrix3x4 packs the upper three rows of a column-major 4x4 affine matrix as 12 floats
// (row-major 3x4), the layout used for model and instance transforms.
func Matrix3x4(m [16]float32) [12]float32 {
	return [12]float32{
		m[0], m[4], m[8], m[12],
		m[1], m[5], m[9], m[13],
		m[2], m[6], m[10], m[14],
	}
}
