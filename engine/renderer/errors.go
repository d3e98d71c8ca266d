package renderer

import "errors"

var (
	// ErrNoGraphics is returned when a renderer is created without a graphics backend.
	ErrNoGraphics = errors.New("renderer: no graphics backend")
	// ErrInvalidSettings wraps every settings validation failure.
	ErrInvalidSettings = errors.New("renderer: invalid settings")
)
