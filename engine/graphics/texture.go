package graphics

// TextureFormat is the pixel format of a texture.
type TextureFormat int

const (
	FormatRGBA8 TextureFormat = iota
	FormatRGBA16F
	FormatR32F
	FormatDepth24Stencil8
	FormatDepth32F
)

// IsDepth reports whether the format is a depth or depth-stencil format.
func (f TextureFormat) IsDepth() bool {
	return f == FormatDepth24Stencil8 || f == FormatDepth32F
}

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Name         string
	Width        int
	Height       int
	Format       TextureFormat
	RenderTarget bool
	// Data optionally holds the initial RGBA8 pixels, row by row.
	Data []byte
}

// Texture is a 2D texture owned by a graphics backend.
type Texture interface {
	// Name returns the debug label of the texture.
	Name() string

	// Width returns the width in pixels.
	Width() int

	// Height returns the height in pixels.
	Height() int

	// Format returns the pixel format.
	Format() TextureFormat

	// RenderSurface returns the render surface of a render target texture, nil otherwise.
	RenderSurface() RenderSurface
}

// RenderSurface is a texture that can be rendered into.
type RenderSurface interface {
	// Width returns the surface width in pixels.
	Width() int

	// Height returns the surface height in pixels.
	Height() int

	// Parent returns the texture backing the surface.
	Parent() Texture

	// LinkedDepthStencil returns the depth-stencil surface to use with this color surface, if any.
	LinkedDepthStencil() RenderSurface

	// SetLinkedDepthStencil sets the depth-stencil surface rendered together with this surface.
	SetLinkedDepthStencil(ds RenderSurface)
}

// BaseTexture is the Texture/RenderSurface implementation shared by all backends.
// Backends attach their GPU objects through the handle.
type BaseTexture struct {
	desc   TextureDescriptor
	linked RenderSurface
	handle any
}

var _ Texture = &BaseTexture{}
var _ RenderSurface = &BaseTexture{}

// NewBaseTexture creates a BaseTexture from a descriptor.
func NewBaseTexture(desc TextureDescriptor) *BaseTexture {
	return &BaseTexture{desc: desc}
}

// Handle returns the backend object attached to the texture.
func (t *BaseTexture) Handle() any {
	return t.handle
}

// SetHandle attaches a backend object to the texture.
func (t *BaseTexture) SetHandle(h any) {
	t.handle = h
}

// Descriptor returns the descriptor the texture was created from.
func (t *BaseTexture) Descriptor() TextureDescriptor {
	return t.desc
}

func (t *BaseTexture) Name() string {
	return t.desc.Name
}

func (t *BaseTexture) Width() int {
	return t.desc.Width
}

func (t *BaseTexture) Height() int {
	return t.desc.Height
}

func (t *BaseTexture) Format() TextureFormat {
	return t.desc.Format
}

func (t *BaseTexture) RenderSurface() RenderSurface {
	if !t.desc.RenderTarget {
		return nil
	}
	return t
}

func (t *BaseTexture) Parent() Texture {
	return t
}

func (t *BaseTexture) LinkedDepthStencil() RenderSurface {
	return t.linked
}

func (t *BaseTexture) SetLinkedDepthStencil(ds RenderSurface) {
	t.linked = ds
}
