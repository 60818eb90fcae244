package editor

import (
	"image"
	"strings"
)

// MouseButton is a bit set of pointer buttons.
type MouseButton uint8

const (
	ButtonLeft MouseButton = 1 << iota
	ButtonMiddle
	ButtonRight
)

// Modifier is a bit set of keyboard modifiers held during an event.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
)

// MouseEvent is a pointer or stylus event in image pixel coordinates.
// Button is the button that changed (press/release), Buttons the ones held.
type MouseEvent struct {
	Pos       image.Point
	Button    MouseButton
	Buttons   MouseButton
	Modifiers Modifier
	Pressure  float64 // stylus only
}

// Left reports whether the left button changed or is held.
func (e MouseEvent) Left() bool {
	return e.Buttons&ButtonLeft != 0 || e.Button == ButtonLeft
}

// Middle reports whether the middle button changed or is held.
func (e MouseEvent) Middle() bool {
	return e.Buttons&ButtonMiddle != 0 || e.Button == ButtonMiddle
}

// Right reports whether the right button changed or is held.
func (e MouseEvent) Right() bool {
	return e.Buttons&ButtonRight != 0 || e.Button == ButtonRight
}

func (e MouseEvent) Shift() bool { return e.Modifiers&ModShift != 0 }
func (e MouseEvent) Ctrl() bool { return e.Modifiers&ModCtrl != 0 }

// KeyEvent is a key press or release. Key uses fyne key names ("Z",
// "Escape", "Delete").
type KeyEvent struct {
	Key       string
	Modifiers Modifier
}

// Is reports whether the event is for the named key, ignoring case.
func (e KeyEvent) Is(name string) bool {
	return strings.EqualFold(e.Key, name)
}

func (e KeyEvent) Shift() bool { return e.Modifiers&ModShift != 0 }
func (e KeyEvent) Ctrl() bool { return e.Modifiers&ModCtrl != 0 }
