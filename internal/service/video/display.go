package video

import "gocv.io/x/gocv"

// Key is a keyboard command read from the preview window.
type Key int

const (
	KeyNone Key = iota
	KeyQuit
	KeySnapshot
)

// WindowTitle names the preview window.
const WindowTitle = "Highway Accident Detection System - Smart Street Pole"

// Display shows annotated frames in a window.
type Display struct {
	window *gocv.Window
}

func NewDisplay() *Display {
	return &Display{window: gocv.NewWindow(WindowTitle)}
}

// Show draws frame and polls the keyboard for one millisecond.
func (d *Display) Show(frame gocv.Mat) Key {
	d.window.IMShow(frame)
	return KeyFromCode(d.window.WaitKey(1))
}

func (d *Display) Close() error {
	return d.window.Close()
}

// KeyFromCode maps a WaitKey result to a command. Only lower-case q and s
// are commands, so a held shift or caps lock does nothing.
func KeyFromCode(code int) Key {
	switch code & 0xFF {
	case 'q':
		return KeyQuit
	case 's':
		return KeySnapshot
	default:
		return KeyNone
	}
}
