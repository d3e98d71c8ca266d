package occlusion

// OcclusionBufferBuilderOption is a function that configures an occlusion buffer during construction.
type OcclusionBufferBuilderOption func(*occlusionBuffer)

// WithSize sets the buffer size in pixels.
//
// Parameters:
//   - width, height: buffer size
//
// Returns:
//   - OcclusionBufferBuilderOption: a function that applies the size option
func WithSize(width, height int) OcclusionBufferBuilderOption {
	return func(b *occlusionBuffer) {
		b.width = width
		b.height = height
	}
}

// WithMaxTriangles sets the triangle budget.
func WithMaxTriangles(n int) OcclusionBufferBuilderOption {
	return func(b *occlusionBuffer) {
		b.maxTriangles = max(n, 0)
	}
}
