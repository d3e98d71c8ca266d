package window

import (
	"log/slog"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/oxy-view/common"
)

func logger() *slog.Logger {
	return common.ComponentLogger("window")
}

// EventKind identifies an input event.
type EventKind int

const (
	EventKeyDown EventKind = iota
	EventKeyUp
	EventMouseDown
	EventMouseUp
	EventMouseMove
	EventScroll
)

// MouseButton identifies a mouse button.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseRight
	MouseMiddle
)

// Event is one input event. Only the fields of its kind are set.
type Event struct {
	Kind   EventKind
	Key    Key
	Button MouseButton
	// X and Y are the cursor position in pixels.
	X, Y float32
	// Delta is the vertical scroll offset, positive away from the user.
	Delta float32
}

// Window is a native window the backend presents into.
type Window interface {
	// SetInputHandler sets the function receiving input events during PollEvents.
	//
	// Parameters:
	//   - handler: the event handler, nil to drop events
	SetInputHandler(handler func(Event))

	// SetResizeCallback sets the function called with the new framebuffer size in pixels.
	//
	// Parameters:
	//   - callback: the resize callback
	SetResizeCallback(callback func(width, height int))

	// SetTitle changes the title bar text.
	SetTitle(title string)

	// SurfaceDescriptor returns the platform surface descriptor for the WebGPU backend.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, nil after Close
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// PollEvents dispatches pending events without blocking. Must be called from the
	// goroutine that created the window.
	//
	// Returns:
	//   - bool: false once the window has been asked to close
	PollEvents() bool

	// IsRunning reports whether the window is open.
	IsRunning() bool

	// Close destroys the window.
	//
	// Returns:
	//   - error: error if the window was already closed
	Close() error

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

type engineWindow struct {
	title               string
	width, height       int
	minWidth, minHeight int
	maxWidth, maxHeight int
	resizable           bool
	closeOnEscape       bool

	platform *glfwWindow

	onInput  func(Event)
	onResize func(width, height int)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window. The calling goroutine is locked to its OS thread
// and must run PollEvents.
//
// Parameters:
//   - options: variadic list of WindowBuilderOption functions to configure the window
//
// Returns:
//   - Window: the open window
//   - error: error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:         "oxy-view",
		width:         1280,
		height:        720,
		minWidth:      320,
		minHeight:     200,
		resizable:     true,
		closeOnEscape: true,
	}
	for _, option := range options {
		option(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	logger().Info("window opened", "title", w.title, "width", w.width, "height", w.height)
	return w, nil
}

func (w *engineWindow) SetInputHandler(handler func(Event)) {
	w.onInput = handler
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) emit(e Event) {
	if w.onInput != nil {
		w.onInput(e)
	}
}

func (w *engineWindow) resized(width, height int) {
	w.width, w.height = width, height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) SetTitle(title string) {
	w.title = title
	if w.platform != nil {
		w.platform.setTitle(title)
	}
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.platform == nil {
		return nil
	}
	return w.platform.surfaceDescriptor()
}

func (w *engineWindow) PollEvents() bool {
	if w.platform == nil {
		return false
	}
	w.platform.poll()
	return w.IsRunning()
}

func (w *engineWindow) IsRunning() bool {
	return w.platform != nil && w.platform.running()
}

func (w *engineWindow) Close() error {
	if w.platform == nil {
		return errWindowClosed
	}
	w.platform.destroy()
	w.platform = nil
	logger().Info("window closed", "title", w.title)
	return nil
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
