package display

import (
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/junsooki/AirXR/internal/xr"
)

const clickThreshold = 0.95

// handInput is one hand's simulated action state.
type handInput struct {
	bools  map[xr.Action]bool
	floats map[xr.Action]float32
}

func newHandInput() handInput {
	return handInput{
		bools:  make(map[xr.Action]bool),
		floats: make(map[xr.Action]float32),
	}
}

var boolKeys = []struct {
	key    ebiten.Key
	hand   int
	action xr.Action
}{
	{ebiten.KeyTab, leftHand, xr.ActionMenuClick},
	{ebiten.KeyZ, leftHand, xr.ActionButtonAXClick},
	{ebiten.KeyC, leftHand, xr.ActionButtonBYClick},
	{ebiten.KeyX, leftHand, xr.ActionThumbstickClick},
	{ebiten.KeyN, rightHand, xr.ActionButtonAXClick},
	{ebiten.KeyM, rightHand, xr.ActionButtonBYClick},
	{ebiten.KeyComma, rightHand, xr.ActionThumbstickClick},
}

var floatKeys = []struct {
	key    ebiten.Key
	hand   int
	action xr.Action
	value  float32
}{
	{ebiten.KeyQ, leftHand, xr.ActionTriggerValue, 1},
	{ebiten.KeyE, leftHand, xr.ActionSqueezeValue, 1},
	{ebiten.KeyW, leftHand, xr.ActionThumbstickY, 1},
	{ebiten.KeyS, leftHand, xr.ActionThumbstickY, -1},
	{ebiten.KeyA, leftHand, xr.ActionThumbstickX, -1},
	{ebiten.KeyD, leftHand, xr.ActionThumbstickX, 1},
	{ebiten.KeyU, rightHand, xr.ActionTriggerValue, 1},
	{ebiten.KeyO, rightHand, xr.ActionSqueezeValue, 1},
	{ebiten.KeyI, rightHand, xr.ActionThumbstickY, 1},
	{ebiten.KeyK, rightHand, xr.ActionThumbstickY, -1},
	{ebiten.KeyJ, rightHand, xr.ActionThumbstickX, -1},
	{ebiten.KeyL, rightHand, xr.ActionThumbstickX, 1},
}

// padState is a standard-layout gamepad sampled once per tick.
type padState struct {
	sticks   [2][2]float32 // per hand, x then y with up positive
	triggers [2]float32
	grips    [2]float32
	ax, by   [2]bool
	clicks   [2]bool
	menu     bool
}

// readControls folds the keyboard and gamepads into per-hand action state.
func readControls(pressed func(ebiten.Key) bool, pads []padState) [2]handInput {
	var hands [2]handInput
	for i := range hands {
		hands[i] = newHandInput()
	}

	for _, b := range boolKeys {
		if pressed(b.key) {
			hands[b.hand].bools[b.action] = true
		}
	}
	for _, b := range floatKeys {
		if pressed(b.key) {
			hands[b.hand].floats[b.action] = clampUnit(hands[b.hand].floats[b.action] + b.value)
		}
	}

	for _, p := range pads {
		for h := range hands {
			in := hands[h]
			foldFloat(in, xr.ActionThumbstickX, p.sticks[h][0])
			foldFloat(in, xr.ActionThumbstickY, p.sticks[h][1])
			foldFloat(in, xr.ActionTriggerValue, p.triggers[h])
			foldFloat(in, xr.ActionSqueezeValue, p.grips[h])
			in.bools[xr.ActionButtonAXClick] = in.bools[xr.ActionButtonAXClick] || p.ax[h]
			in.bools[xr.ActionButtonBYClick] = in.bools[xr.ActionButtonBYClick] || p.by[h]
			in.bools[xr.ActionThumbstickClick] = in.bools[xr.ActionThumbstickClick] || p.clicks[h]
		}
		hands[leftHand].bools[xr.ActionMenuClick] = hands[leftHand].bools[xr.ActionMenuClick] || p.menu
	}

	for h := range hands {
		deriveTouches(hands[h])
	}
	return hands
}

// deriveTouches fills the touch and click actions a physical controller
// reports alongside its values.
func deriveTouches(in handInput) {
	trigger := in.floats[xr.ActionTriggerValue]
	squeeze := in.floats[xr.ActionSqueezeValue]
	sx, sy := in.floats[xr.ActionThumbstickX], in.floats[xr.ActionThumbstickY]

	in.bools[xr.ActionTriggerTouch] = trigger > 0
	in.bools[xr.ActionTriggerClick] = trigger >= clickThreshold
	in.bools[xr.ActionSqueezeClick] = squeeze >= clickThreshold
	in.bools[xr.ActionThumbstickTouch] = sx != 0 || sy != 0 || in.bools[xr.ActionThumbstickClick]
	in.bools[xr.ActionButtonAXTouch] = in.bools[xr.ActionButtonAXClick]
	in.bools[xr.ActionButtonBYTouch] = in.bools[xr.ActionButtonBYClick]

	thumb := in.bools[xr.ActionThumbstickTouch] || in.bools[xr.ActionButtonAXTouch] || in.bools[xr.ActionButtonBYTouch]
	if thumb {
		in.floats[xr.ActionThumbProximity] = 1
	} else {
		in.floats[xr.ActionThumbProximity] = 0
	}
}

// foldFloat keeps whichever source is deflected further.
func foldFloat(in handInput, action xr.Action, v float32) {
	if abs32(v) > abs32(in.floats[action]) {
		in.floats[action] = clampUnit(v)
	}
}

// readPads samples every connected gamepad with a standard layout.
func readPads(ids []ebiten.GamepadID) []padState {
	var pads []padState
	for _, id := range ids {
		if !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		axis := func(a ebiten.StandardGamepadAxis) float32 {
			return float32(ebiten.StandardGamepadAxisValue(id, a))
		}
		button := func(b ebiten.StandardGamepadButton) float32 {
			return float32(ebiten.StandardGamepadButtonValue(id, b))
		}
		held := func(b ebiten.StandardGamepadButton) bool {
			return ebiten.IsStandardGamepadButtonPressed(id, b)
		}

		var p padState
		p.sticks[leftHand] = [2]float32{
			deadzone(axis(ebiten.StandardGamepadAxisLeftStickHorizontal)),
			-deadzone(axis(ebiten.StandardGamepadAxisLeftStickVertical)),
		}
		p.sticks[rightHand] = [2]float32{
			deadzone(axis(ebiten.StandardGamepadAxisRightStickHorizontal)),
			-deadzone(axis(ebiten.StandardGamepadAxisRightStickVertical)),
		}
		p.triggers = [2]float32{
			button(ebiten.StandardGamepadButtonFrontBottomLeft),
			button(ebiten.StandardGamepadButtonFrontBottomRight),
		}
		p.grips = [2]float32{
			button(ebiten.StandardGamepadButtonFrontTopLeft),
			button(ebiten.StandardGamepadButtonFrontTopRight),
		}
		p.ax = [2]bool{held(ebiten.StandardGamepadButtonRightLeft), held(ebiten.StandardGamepadButtonRightBottom)}
		p.by = [2]bool{held(ebiten.StandardGamepadButtonRightTop), held(ebiten.StandardGamepadButtonRightRight)}
		p.clicks = [2]bool{held(ebiten.StandardGamepadButtonLeftStick), held(ebiten.StandardGamepadButtonRightStick)}
		p.menu = held(ebiten.StandardGamepadButtonCenterRight)
		pads = append(pads, p)
	}
	return pads
}

const stickDeadzone = 0.12

func deadzone(v float32) float32 {
	if abs32(v) < stickDeadzone {
		return 0
	}
	return v
}

func clampUnit(v float32) float32 {
	return float32(math.Max(-1, math.Min(1, float64(v))))
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
