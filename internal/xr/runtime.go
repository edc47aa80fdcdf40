// Package xr describes the XR runtime the bridge reads tracking and input
// from.
package xr

// Vector3 is a runtime-space vector in meters (or m/s, rad/s).
type Vector3 struct {
	X, Y, Z float32
}

// Quaternion is a runtime orientation.
type Quaternion struct {
	X, Y, Z, W float32
}

// Posef is a runtime pose.
type Posef struct {
	Orientation Quaternion
	Position    Vector3
}

// Fov holds the four half-angles of a view frustum in radians.
type Fov struct {
	AngleLeft  float32
	AngleRight float32
	AngleUp    float32
	AngleDown  float32
}

// View is the per-eye field of view and pose.
type View struct {
	Fov  Fov
	Pose Posef
}

// Location flags.
const (
	OrientationValid uint32 = 1 << iota
	PositionValid
	OrientationTracked
	PositionTracked
)

// Velocity flags.
const (
	LinearVelocityValid uint32 = 1 << iota
	AngularVelocityValid
)

// SpaceVelocity is the optional velocity extension of a located space.
type SpaceVelocity struct {
	Flags           uint32
	LinearVelocity  Vector3
	AngularVelocity Vector3
}

// SpaceLocation is the result of locating a space at a display time.
type SpaceLocation struct {
	Flags    uint32
	Pose     Posef
	Velocity *SpaceVelocity
}

// Located reports whether both position and orientation are valid.
func (l SpaceLocation) Located() bool {
	const want = OrientationValid | PositionValid
	return l.Flags&want == want
}

// Eye indexes a stereo view.
type Eye int

const (
	LeftEye Eye = iota
	RightEye

	NumEyes = 2
)

func (e Eye) String() string {
	if e == RightEye {
		return "right"
	}
	return "left"
}

// Action names a controller input the runtime exposes per hand.
type Action string

const (
	ActionMenuClick       Action = "menu_click"
	ActionTriggerClick    Action = "trigger_click"
	ActionTriggerTouch    Action = "trigger_touch"
	ActionTriggerValue    Action = "trigger_value"
	ActionSqueezeClick    Action = "squeeze_click"
	ActionSqueezeValue    Action = "squeeze_value"
	ActionThumbstickTouch Action = "thumbstick_touch"
	ActionThumbstickClick Action = "thumbstick_click"
	ActionThumbstickX     Action = "thumbstick_x"
	ActionThumbstickY     Action = "thumbstick_y"
	ActionThumbRestForce  Action = "thumbrest_force"
	ActionThumbProximity  Action = "thumb_proximity"
	ActionButtonAXClick   Action = "button_ax_click"
	ActionButtonAXTouch   Action = "button_ax_touch"
	ActionButtonBYClick   Action = "button_by_click"
	ActionButtonBYTouch   Action = "button_by_touch"
)

// BoolState is the state of a boolean action.
type BoolState struct {
	Active  bool
	Current bool
}

// FloatState is the state of a float action.
type FloatState struct {
	Active  bool
	Current float32
}

// Runtime is the subset of an XR runtime the bridge depends on. Hand is 0
// for the left controller and 1 for the right one.
type Runtime interface {
	// View returns the current field of view and pose of eye.
	View(eye Eye) View

	// PredictedDisplayTime is the runtime's next display time in nanoseconds.
	PredictedDisplayTime() int64

	// LocateHead locates the head space in the base space at time t.
	LocateHead(t int64) (SpaceLocation, bool)

	// LocateController locates the aim space of a hand at time t. The second
	// result is false when the hand's pose action is inactive.
	LocateController(hand int, t int64) (SpaceLocation, bool)

	// PollActions syncs action state; called from the tracking thread.
	PollActions()

	BoolAction(hand int, action Action) BoolState
	FloatAction(hand int, action Action) FloatState
}

// Haptics is implemented by runtimes that can vibrate controllers.
type Haptics interface {
	ApplyHaptics(hand int, amplitude, frequency float32, durationNS int64)
}
