package input

// Side identifies a hand controller.
type Side int

const (
	Left Side = iota
	Right

	NumControllers = 2
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// Role is the protocol role path for the controller side.
func (s Side) Role() string {
	if s == Right {
		return "cxr://input/hand/right"
	}
	return "cxr://input/hand/left"
}

// ButtonID indexes the digital buttons of a controller.
type ButtonID int

const (
	ButtonSystem ButtonID = iota
	ButtonApplicationMenu
	ButtonTriggerTouch
	ButtonTriggerClick
	ButtonGripTouch
	ButtonGripClick
	ButtonTouchpadTouch
	ButtonTouchpadClick
	ButtonJoystickTouch
	ButtonJoystickClick
	ButtonATouch
	ButtonAClick
	ButtonBTouch
	ButtonBClick

	ButtonCount
)

var buttonNames = [ButtonCount]string{
	"system",
	"application_menu",
	"trigger_touch",
	"trigger_click",
	"grip_touch",
	"grip_click",
	"touchpad_touch",
	"touchpad_click",
	"joystick_touch",
	"joystick_click",
	"a_touch",
	"a_click",
	"b_touch",
	"b_click",
}

func (id ButtonID) String() string {
	if id < 0 || id >= ButtonCount {
		return "unknown"
	}
	return buttonNames[id]
}

// AxisID indexes the analog axes of a controller.
type AxisID int

const (
	AxisTrigger AxisID = iota
	AxisTouchpadX
	AxisTouchpadY
	AxisJoystickX
	AxisJoystickY
	AxisGrip
	AxisGripForce
	AxisProximity

	AxisCount
)

var axisNames = [AxisCount]string{
	"trigger",
	"touchpad_x",
	"touchpad_y",
	"joystick_x",
	"joystick_y",
	"grip",
	"grip_force",
	"proximity",
}

func (id AxisID) String() string {
	if id < 0 || id >= AxisCount {
		return "unknown"
	}
	return axisNames[id]
}
