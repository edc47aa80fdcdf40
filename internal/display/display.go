// Package display is the desktop stand-in for a headset: it reads keyboard
// and gamepad input as an XR runtime and shows the streamed eyes in a window.
package display

// Display renders frames and captures user input.
type Display interface {
	Run() error
}

// FrameFunc runs once per display tick on the render thread.
type FrameFunc func()

// StatusFunc returns the overlay text drawn over the eyes.
type StatusFunc func() string

const (
	leftHand  = 0
	rightHand = 1
)
