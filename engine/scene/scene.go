package scene

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-view/engine/debug"
	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
	"github.com/Carmen-Shannon/oxy-view/engine/spatial"
)

// Scene is the drawable container views render. It owns the spatial index the view
// queries, a registry of drawables by ID, and the flags that gate rendering.
//
// Drawables are added and removed between frames. While views update, the scene and its
// index are only read, so several views may query it concurrently.
type Scene interface {
	// Name returns the name of the scene.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// SetName sets the name of the scene.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// Active returns whether the scene is active for rendering.
	//
	// Returns:
	//   - bool: true if active
	Active() bool

	// SetActive sets whether the scene is active for rendering.
	//
	// Parameters:
	//   - active: true to activate
	SetActive(active bool)

	// AsyncLoading returns whether the scene is being loaded in the background. Views
	// refuse to render a scene while it loads.
	//
	// Returns:
	//   - bool: true while loading
	AsyncLoading() bool

	// SetAsyncLoading marks the start or end of a background load.
	//
	// Parameters:
	//   - loading: true while loading
	SetAsyncLoading(loading bool)

	// Index returns the spatial index of the scene's drawables, nil if the scene has none.
	//
	// Returns:
	//   - spatial.Index: the index
	Index() spatial.Index

	// DebugRenderer returns the debug line renderer attached to the scene, if any.
	//
	// Returns:
	//   - debug.DebugRenderer: the debug renderer or nil
	DebugRenderer() debug.DebugRenderer

	// SetDebugRenderer attaches a debug line renderer.
	//
	// Parameters:
	//   - d: the debug renderer, nil to detach
	SetDebugRenderer(d debug.DebugRenderer)

	// ElapsedTime returns the accumulated scene time in seconds.
	ElapsedTime() float32

	// Update advances the scene time.
	//
	// Parameters:
	//   - deltaTime: seconds since the last update
	Update(deltaTime float32)

	// Count returns the number of registered drawables.
	Count() int

	// Add registers a drawable and inserts it into the spatial index.
	//
	// Parameters:
	//   - d: the drawable to add
	//
	// Returns:
	//   - uint64: the ID assigned to the drawable
	Add(d drawable.Drawable) uint64

	// Get returns a registered drawable by ID.
	//
	// Parameters:
	//   - id: the drawable ID
	//
	// Returns:
	//   - drawable.Drawable: the drawable, nil if not registered
	Get(id uint64) drawable.Drawable

	// Remove unregisters a drawable and removes it from the spatial index.
	//
	// Parameters:
	//   - id: the drawable ID
	Remove(id uint64)

	// Lights returns the registered lights in the order they were added.
	//
	// Returns:
	//   - []light.Light: the lights
	Lights() []light.Light

	// Clear removes every drawable.
	Clear()
}

type scene struct {
	mu *sync.RWMutex

	name         string
	active       bool
	asyncLoading bool
	elapsed      float32

	registry map[uint64]drawable.Drawable
	nextID   uint64
	lights   []light.Light

	index spatial.Index
	debug debug.DebugRenderer
}

// Ensure scene implements Scene interface.
var _ Scene = &scene{}

// NewScene creates a new Scene backed by a linear spatial index unless WithIndex supplies
// another one.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:       &sync.RWMutex{},
		name:     name,
		active:   true,
		registry: make(map[uint64]drawable.Drawable),
		nextID:   1,
	}

	for _, option := range options {
		option(s)
	}
	if s.index == nil {
		s.index = spatial.NewLinearIndex()
	}
	for _, d := range s.registry {
		s.index.Insert(d)
	}

	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) AsyncLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.asyncLoading
}

func (s *scene) SetAsyncLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asyncLoading = loading
}

func (s *scene) Index() spatial.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

func (s *scene) DebugRenderer() debug.DebugRenderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debug
}

func (s *scene) SetDebugRenderer(d debug.DebugRenderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debug = d
}

func (s *scene) ElapsedTime() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.elapsed
}

func (s *scene) Update(deltaTime float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.elapsed += deltaTime
	}
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.registry)
}

func (s *scene) Add(d drawable.Drawable) uint64 {
	if d == nil {
		panic("scene: cannot Add a nil Drawable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := atomic.AddUint64(&s.nextID, 1) - 1
	s.registry[id] = d
	s.index.Insert(d)

	if l, ok := d.(light.Light); ok {
		s.lights = append(s.lights, l)
	}
	return id
}

func (s *scene) Get(id uint64) drawable.Drawable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, exists := s.registry[id]
	if !exists {
		return
	}
	delete(s.registry, id)
	s.index.Remove(d)

	if l, ok := d.(light.Light); ok {
		if i := slices.Index(s.lights, l); i >= 0 {
			s.lights = slices.Delete(s.lights, i, i+1)
		}
	}
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.registry {
		s.index.Remove(d)
	}
	s.registry = make(map[uint64]drawable.Drawable)
	s.lights = nil
}
