package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-view/common"
	"github.com/Carmen-Shannon/oxy-view/engine/config"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/profiler"
	"github.com/Carmen-Shannon/oxy-view/engine/renderer"
	"github.com/Carmen-Shannon/oxy-view/engine/window"
)

func logger() *slog.Logger {
	return common.ComponentLogger("engine")
}

// resizer is implemented by backends drawing into a window surface.
type resizer interface {
	Resize(width, height int)
}

// engine implements the Engine interface.
type engine struct {
	// frameMu serializes tick callbacks with frame updates so scene changes never race
	// the views reading them.
	frameMu *sync.Mutex

	graphics graphics.Graphics
	renderer renderer.Renderer
	window   window.Window
	profiler *profiler.Profiler

	rendererOptions []renderer.RendererBuilderOption
	settingsFile    string

	tickRate         time.Duration
	tickRateChannel  chan time.Duration
	renderFrameLimit time.Duration
	tickCallback     func(deltaTime float32)
	renderCallback   func(deltaTime float32)

	// title is set by frames and applied by the goroutine polling the window, the only
	// one allowed to touch it.
	title atomic.Pointer[string]

	running     bool
	wg          sync.WaitGroup
	quitChannel chan struct{}
	quitOnce    sync.Once
}

// Engine drives a renderer: a fixed-rate tick loop for scene logic and a render loop that
// updates and draws every viewport each frame.
type Engine interface {
	// Renderer returns the renderer the engine drives.
	//
	// Returns:
	//   - renderer.Renderer: the renderer
	Renderer() renderer.Renderer

	// Graphics returns the backend the renderer draws with.
	Graphics() graphics.Graphics

	// Window returns the window, nil when running headless.
	Window() window.Window

	// Profiler returns the frame profiler, nil unless profiling is enabled.
	Profiler() *profiler.Profiler

	// SetTickRate sets the tick rate in ticks per second. Values <= 0 select 60.
	//
	// Parameters:
	//   - fps: ticks per second
	SetTickRate(fps float64)

	// SetTickCallback registers the function called every tick with the seconds since the
	// previous tick. Use it to move nodes, cameras and lights.
	//
	// Parameters:
	//   - callback: the tick function
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called at the start of every frame, before the
	// views are updated.
	//
	// Parameters:
	//   - callback: the frame function
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the frame rate. 0 uncaps it.
	//
	// Parameters:
	//   - fps: maximum frames per second
	SetRenderFrameLimit(fps float64)

	// Step renders one frame synchronously: the render callback, Renderer.Update and
	// Renderer.Render. Run calls it from its render loop; headless callers may drive frames
	// with it directly.
	//
	// Parameters:
	//   - deltaTime: seconds since the previous frame
	//
	// Returns:
	//   - error: the error of Renderer.Render
	Step(deltaTime float32) error

	// Run starts the tick and render loops and blocks until ctx is cancelled, Quit is
	// called or the window closes. With a window, Run must be called from the goroutine
	// that created it.
	//
	// Parameters:
	//   - ctx: the context bounding the run
	//
	// Returns:
	//   - error: nil on a clean shutdown
	Run(ctx context.Context) error

	// Quit stops Run. Safe to call multiple times.
	Quit()

	// Close releases the renderer. The engine must not be used afterwards.
	Close()
}

var _ Engine = &engine{}

// NewEngine creates an engine and its renderer.
//
// Parameters:
//   - g: the graphics backend, required
//   - options: variadic list of EngineBuilderOption functions to configure the Engine
//
// Returns:
//   - Engine: the engine
//   - error: error if the settings file cannot be loaded or the renderer cannot be created
func NewEngine(g graphics.Graphics, options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		frameMu:         &sync.Mutex{},
		graphics:        g,
		tickRate:        time.Second / 60,
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
	}
	for _, opt := range options {
		opt(e)
	}

	rendererOptions := e.rendererOptions
	if e.settingsFile != "" {
		settings, err := loadSettings(e.settingsFile, renderer.DefaultSettings())
		if err != nil {
			return nil, err
		}
		rendererOptions = append(rendererOptions, renderer.WithSettings(settings))
	}
	if e.profiler != nil {
		rendererOptions = append(rendererOptions, renderer.WithProfiler(e.profiler))
	}

	r, err := renderer.NewRenderer(g, rendererOptions...)
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	e.renderer = r

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			if rs, ok := e.graphics.(resizer); ok {
				rs.Resize(width, height)
			}
		})
	}
	return e, nil
}

// loadSettings reads a settings file over base, so keys missing from the file keep the
// values of base.
func loadSettings(path string, base renderer.Settings) (renderer.Settings, error) {
	if err := config.Load(path, &base); err != nil {
		return base, fmt.Errorf("load settings %s: %w", path, err)
	}
	return base, nil
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Graphics() graphics.Graphics {
	return e.graphics
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

func (e *engine) SetTickRate(fps float64) {
	rate := tickInterval(fps)
	if !e.running {
		e.tickRate = rate
		return
	}
	// Replace any pending update.
	select {
	case <-e.tickRateChannel:
	default:
	}
	e.tickRateChannel <- rate
}

func tickInterval(fps float64) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Duration(float64(time.Second) / fps)
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Step(deltaTime float32) error {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	if e.renderCallback != nil {
		e.renderCallback(deltaTime)
	}
	e.renderer.Update(deltaTime)
	err := e.renderer.Render()
	if e.profiler.Tick() && e.window != nil {
		stats := e.profiler.LastStats()
		title := fmt.Sprintf("oxy-view | %.0f fps | %.1f MB heap", stats.FPS, stats.HeapMB)
		e.title.Store(&title)
	}
	return err
}

func (e *engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.running = true
	defer func() { e.running = false }()

	renderErr := make(chan error, 1)
	e.wg.Add(2)
	go e.handleTick(ctx)
	go func() {
		renderErr <- e.handleRender(ctx)
	}()
	if e.settingsFile != "" {
		e.wg.Add(1)
		go e.watchSettings(ctx)
	}

	var err error
	if e.window != nil {
		err = e.pollWindow(ctx, renderErr)
	} else {
		select {
		case <-ctx.Done():
		case <-e.quitChannel:
		case err = <-renderErr:
		}
	}
	cancel()
	e.wg.Wait()
	if err == nil {
		select {
		case err = <-renderErr:
		default:
		}
	}
	return err
}

// pollWindow pumps window events until the window closes or the run ends.
func (e *engine) pollWindow(ctx context.Context, renderErr <-chan error) error {
	for e.window.PollEvents() {
		if title := e.title.Swap(nil); title != nil {
			e.window.SetTitle(*title)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-e.quitChannel:
			return nil
		case err := <-renderErr:
			return err
		default:
		}
		time.Sleep(time.Millisecond)
	}
	logger().Info("window closed, stopping")
	return nil
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

func (e *engine) Close() {
	e.renderer.Close()
}

// handleTick fires the tick callback at the tick rate.
func (e *engine) handleTick(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.tickRate)
	defer ticker.Stop()
	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-e.quitChannel:
			return
		case rate := <-e.tickRateChannel:
			ticker.Reset(rate)
			e.tickRate = rate
		case now := <-ticker.C:
			dt := float32(now.Sub(last).Seconds())
			last = now
			if e.tickCallback != nil {
				e.frameMu.Lock()
				e.tickCallback(dt)
				e.frameMu.Unlock()
			}
		}
	}
}

// handleRender renders frames until the run ends. A panic while rendering is logged and
// ends the run with an error.
func (e *engine) handleRender(ctx context.Context) (err error) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger().Error("render loop panicked", "panic", r)
			err = fmt.Errorf("render loop panicked: %v", r)
		}
	}()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.quitChannel:
			return nil
		default:
		}

		start := time.Now()
		dt := float32(start.Sub(last).Seconds())
		last = start

		if stepErr := e.Step(dt); stepErr != nil {
			// A lost or outdated surface recovers after the next resize.
			logger().Warn("frame skipped", "error", stepErr)
			if errors.Is(stepErr, renderer.ErrNoGraphics) {
				return stepErr
			}
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// watchSettings applies edits of the settings file while running. Invalid edits are logged
// and the settings in effect are kept.
func (e *engine) watchSettings(ctx context.Context) {
	defer e.wg.Done()

	err := config.Watch(ctx, e.settingsFile, func() {
		settings, err := loadSettings(e.settingsFile, e.renderer.Settings())
		if err != nil {
			logger().Warn("settings reload failed", "path", e.settingsFile, "error", err)
			return
		}
		if err := e.renderer.SetSettings(settings); err != nil {
			logger().Warn("settings rejected", "path", e.settingsFile, "error", err)
			return
		}
		logger().Info("settings reloaded", "path", e.settingsFile)
	})
	if err != nil {
		logger().Error("settings watch stopped", "path", e.settingsFile, "error", err)
	}
}
