package window

// Key is a keyboard key. Values match GLFW key codes, which are ASCII for printable keys.
type Key uint32

const (
	KeySpace Key = 32

	Key0 Key = 48
	Key1 Key = 49
	Key2 Key = 50
	Key3 Key = 51
	Key4 Key = 52

	KeyA Key = 65
	KeyD Key = 68
	KeyE Key = 69
	KeyF Key = 70
	KeyG Key = 71
	KeyI Key = 73
	KeyO Key = 79
	KeyP Key = 80
	KeyQ Key = 81
	KeyS Key = 83
	KeyT Key = 84
	KeyW Key = 87

	KeyEscape     Key = 256
	KeyF1         Key = 290
	KeyF2         Key = 291
	KeyLeftShift  Key = 340
	KeyRightShift Key = 344
)
