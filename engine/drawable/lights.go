package drawable

import (
	"slices"
)

// LimitLights keeps at most maxLights entries of lights, preferring lower sort keys.
// Order among equal keys is preserved. A maxLights of zero keeps everything.
//
// Parameters:
//   - lights: candidate lights, reordered in place
//   - maxLights: the limit
//   - key: sort key, lower is more important
//
// Returns:
//   - []T: the retained lights
func LimitLights[T any](lights []T, maxLights int, key func(T) float32) []T {
	if maxLights <= 0 || len(lights) <= maxLights {
		return lights
	}
	slices.SortStableFunc(lights, func(a, b T) int {
		ka, kb := key(a), key(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	return lights[:maxLights]
}
