package light

// MaxLightSplits is the largest number of shadowed sub-lights a single light may be
// split into (six faces for a point light).
const MaxLightSplits = 6

// MaxCascadeSplits is the largest number of cascades a directional light may use.
const MaxCascadeSplits = 4

// ShadowMinPixels is the smallest projected size, in pixels, a spot light's shadow map
// is zoomed out to.
const ShadowMinPixels float32 = 64

// LargeValue stands in for "unbounded" distances such as a directional light's range.
const LargeValue float32 = 100000000

// Default shadow parameters applied by NewLight.
const (
	DefaultShadowNearFarRatio float32 = 0.002
	DefaultShadowConstantBias float32 = 0.0001
	DefaultShadowSlopeBias    float32 = 0.5
	DefaultSplitFadeRange     float32 = 0.2
	DefaultQuantizeStep       float32 = 0.5
	DefaultMinView            float32 = 3
)

// BiasParameters control the depth bias used when rendering a light's shadow map.
type BiasParameters struct {
	ConstantBias    float32
	SlopeScaledBias float32
}

// CascadeParameters control how a directional light's view range is divided among
// shadow cascades.
type CascadeParameters struct {
	// Splits is the number of cascades, 1 to MaxCascadeSplits.
	Splits int
	// Lambda blends between uniform (0) and logarithmic (1) split distances.
	Lambda float32
	// SplitFadeRange is the fraction of each cascade over which it fades into the next.
	SplitFadeRange float32
	// ShadowRange is the view distance beyond which no cascade is placed.
	ShadowRange float32
}

// FocusParameters control how a shadow camera is fitted to the visible scene.
type FocusParameters struct {
	// Focus shrinks the shadow camera to the intersection of the light and scene volumes.
	Focus bool
	// NonUniform lets the directional shadow camera use different X and Y extents.
	NonUniform bool
	// ZoomOut shrinks a distant spot light's shadow map to its projected screen size.
	ZoomOut bool
	// QuantizeStep is the world-space step shadow camera sizes are rounded up to.
	QuantizeStep float32
	// MinView is the smallest shadow camera view size.
	MinView float32
}

// DefaultBias returns the default shadow depth bias.
func DefaultBias() BiasParameters {
	return BiasParameters{ConstantBias: DefaultShadowConstantBias, SlopeScaledBias: DefaultShadowSlopeBias}
}

// DefaultCascade returns a single-cascade setup covering the whole view range.
func DefaultCascade() CascadeParameters {
	return CascadeParameters{Splits: 1, Lambda: 0.5, SplitFadeRange: DefaultSplitFadeRange, ShadowRange: LargeValue}
}

// DefaultFocus returns focusing with non-uniform sizing, zoom out and default quantization.
func DefaultFocus() FocusParameters {
	return FocusParameters{
		Focus:        true,
		NonUniform:   true,
		ZoomOut:      true,
		QuantizeStep: DefaultQuantizeStep,
		MinView:      DefaultMinView,
	}
}

func (c CascadeParameters) validated() CascadeParameters {
	c.Splits = min(max(c.Splits, 1), MaxCascadeSplits)
	c.Lambda = min(max(c.Lambda, 0), 1)
	c.SplitFadeRange = min(max(c.SplitFadeRange, 0), 1)
	if c.ShadowRange <= 0 {
		c.ShadowRange = LargeValue
	}
	return c
}

func (f FocusParameters) validated() FocusParameters {
	if f.QuantizeStep <= 0 {
		f.QuantizeStep = DefaultQuantizeStep
	}
	f.MinView = max(f.MinView, 0)
	return f
}
