package renderer

import (
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-view/engine/drawable"
	"github.com/Carmen-Shannon/oxy-view/engine/graphics"
	"github.com/Carmen-Shannon/oxy-view/engine/light"
)

// Names of the shaders the renderer draws with directly.
const (
	shaderStencil       = "Stencil"
	shaderAmbient       = "Ambient"
	shaderGBufferFill   = "GBufferFill"
	shaderDeferredLight = "DeferredLight"
	shaderTemporalAA    = "TemporalAA"
	shaderDebugLines    = "Basic_VColor"
)

// ShaderLoader returns the source of a shader variation. An empty source is allowed and
// yields a placeholder variation.
type ShaderLoader func(name string, shaderType graphics.ShaderType) (string, error)

type shaderKey struct {
	name       string
	shaderType graphics.ShaderType
}

// shaderLibrary caches shader variations by name. Views resolve batch shaders while
// updating concurrently, so lookups lock.
type shaderLibrary struct {
	mu         *sync.RWMutex
	loader     ShaderLoader
	variations map[shaderKey]*graphics.ShaderVariation
}

func newShaderLibrary(loader ShaderLoader) *shaderLibrary {
	return &shaderLibrary{
		mu:         &sync.RWMutex{},
		loader:     loader,
		variations: make(map[shaderKey]*graphics.ShaderVariation),
	}
}

// variation returns the cached variation, loading it on first use. A load failure is
// logged once and the placeholder is cached so the frame continues.
func (l *shaderLibrary) variation(shaderType graphics.ShaderType, name string) *graphics.ShaderVariation {
	if name == "" {
		return nil
	}
	key := shaderKey{name: name, shaderType: shaderType}

	l.mu.RLock()
	v, ok := l.variations[key]
	l.mu.RUnlock()
	if ok {
		return v
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if v, ok := l.variations[key]; ok {
		return v
	}
	v = &graphics.ShaderVariation{Name: name, Type: shaderType}
	if l.loader != nil {
		src, err := l.loader(name, shaderType)
		if err != nil {
			logger().Warn("shader load failed", "shader", name, "error", err)
		}
		v.Source = src
	}
	l.variations[key] = v
	return v
}

func (l *shaderLibrary) vs(name string) *graphics.ShaderVariation {
	return l.variation(graphics.ShaderTypeVertex, name)
}

func (l *shaderLibrary) ps(name string) *graphics.ShaderVariation {
	return l.variation(graphics.ShaderTypePixel, name)
}

// size returns the number of cached variations.
func (l *shaderLibrary) size() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.variations)
}

// variationName joins a base shader name with its define suffixes, e.g. "LitSolid_DirShadowSkinned".
func variationName(base string, defines ...string) string {
	suffix := strings.Join(defines, "")
	if suffix == "" {
		return base
	}
	return base + "_" + suffix
}

func lightDefine(t light.LightType) string {
	switch t {
	case light.LightTypeDirectional:
		return "Dir"
	case light.LightTypeSpot:
		return "Spot"
	}
	return "Point"
}

func geometryDefine(t drawable.GeometryType) string {
	if t == drawable.GeometrySkinned {
		return "Skinned"
	}
	return ""
}
