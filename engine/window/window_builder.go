package window

// WindowBuilderOption is a functional option applied to the window during construction via NewWindow.
type WindowBuilderOption func(w *engineWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: a function that applies the title to the window
func WithTitle(title string) WindowBuilderOption {
	return func(w *engineWindow) {
		w.title = title
	}
}

// WithSize sets the initial client area size.
//
// Parameters:
//   - width: initial width in pixels
//   - height: initial height in pixels
//
// Returns:
//   - WindowBuilderOption: a function that applies the size to the window
func WithSize(width, height int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.width, w.height = width, height
	}
}

// WithSizeLimits bounds the size the user can resize the window to. Zero leaves a bound
// unset.
//
// Parameters:
//   - minWidth, minHeight: the smallest size in pixels
//   - maxWidth, maxHeight: the largest size in pixels
//
// Returns:
//   - WindowBuilderOption: a function that applies the limits to the window
func WithSizeLimits(minWidth, minHeight, maxWidth, maxHeight int) WindowBuilderOption {
	return func(w *engineWindow) {
		w.minWidth, w.minHeight = minWidth, minHeight
		w.maxWidth, w.maxHeight = maxWidth, maxHeight
	}
}

// WithFixedSize disables resizing.
func WithFixedSize() WindowBuilderOption {
	return func(w *engineWindow) {
		w.resizable = false
	}
}

// WithEscapeToClose sets whether the Escape key closes the window. On by default.
func WithEscapeToClose(enable bool) WindowBuilderOption {
	return func(w *engineWindow) {
		w.closeOnEscape = enable
	}
}
