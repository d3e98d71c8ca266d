package backend

// BackendBuilderOption is a functional option applied to the backend during construction via NewBackend.
type BackendBuilderOption func(*wgpuBackend)

// WithSampleCount sets the back buffer MSAA sample count. Deferred rendering shares the
// back buffer depth with the G-buffer pass, so it needs MSAAOff.
//
// Parameters:
//   - count: the sample count
//
// Returns:
//   - BackendBuilderOption: a function that applies the sample count to the backend
func WithSampleCount(count MSAASampleCount) BackendBuilderOption {
	return func(b *wgpuBackend) {
		b.sampleCount = count
	}
}

// WithPresentMode sets the initial present mode.
//
// Parameters:
//   - mode: the PresentMode to use
//
// Returns:
//   - BackendBuilderOption: a function that applies the present mode to the backend
func WithPresentMode(mode PresentMode) BackendBuilderOption {
	return func(b *wgpuBackend) {
		b.presentMode = presentModes[mode]
	}
}

// WithFallbackAdapter forces the software adapter.
//
// Returns:
//   - BackendBuilderOption: a function that enables the fallback adapter
func WithFallbackAdapter() BackendBuilderOption {
	return func(b *wgpuBackend) {
		b.forceFallbackAdapter = true
	}
}

// WithUniformBufferSize sets the initial size in bytes of the per-frame parameter buffer.
// The buffer grows when a frame needs more.
//
// Parameters:
//   - size: the buffer size in bytes
//
// Returns:
//   - BackendBuilderOption: a function that applies the size to the backend
func WithUniformBufferSize(size uint64) BackendBuilderOption {
	return func(b *wgpuBackend) {
		b.uniforms.initialSize = size
	}
}
