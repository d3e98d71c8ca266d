package common

// Coalesce returns the first argument that is not the zero value of T, or the zero value
// when every argument is zero. Option defaults are resolved with it.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for i := range values {
		if values[i] != zero {
			return values[i]
		}
	}
	return zero
}
