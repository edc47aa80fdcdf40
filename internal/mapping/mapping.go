// Package mapping translates controller buttons and axes into protocol
// input slots.
package mapping

import (
	"errors"

	"github.com/junsooki/AirXR/internal/input"
	"github.com/junsooki/AirXR/internal/remote"
)

// Unmapped marks a control that has no protocol slot on a given side.
const Unmapped = -1

// MaxControllerEvents is the largest batch BuildEvents produces.
const MaxControllerEvents = 64

// ErrTooManyEvents means the mapping tables yield more events than a batch
// can hold.
var ErrTooManyEvents = errors.New("mapping: controller event batch overflow")

// Protocol input slots, in InputPaths order.
const (
	SlotSystemClick = iota
	SlotApplicationMenuClick
	SlotTriggerClick
	SlotTriggerTouch
	SlotTriggerValue
	SlotGripClick
	SlotGripTouch
	SlotGripValue
	SlotJoystickClick
	SlotJoystickTouch
	SlotJoystickX
	SlotJoystickY
	SlotAClick
	SlotBClick
	SlotXClick
	SlotYClick
	SlotATouch
	SlotBTouch
	SlotXTouch
	SlotYTouch
	SlotThumbRestTouch

	NumSlots
)

// InputPaths lists the protocol inputs registered for every controller.
var InputPaths = [NumSlots]string{
	"/input/system/click",
	"/input/application_menu/click",
	"/input/trigger/click",
	"/input/trigger/touch",
	"/input/trigger/value",
	"/input/grip/click",
	"/input/grip/touch",
	"/input/grip/value",
	"/input/joystick/click",
	"/input/joystick/touch",
	"/input/joystick/x",
	"/input/joystick/y",
	"/input/a/click",
	"/input/b/click",
	"/input/x/click",
	"/input/y/click",
	"/input/a/touch",
	"/input/b/touch",
	"/input/x/touch",
	"/input/y/touch",
	"/input/thumb_rest/touch",
}

// InputValueTypes gives the value type of each slot in InputPaths.
var InputValueTypes = [NumSlots]remote.InputValueType{
	remote.InputBoolean, // system
	remote.InputBoolean, // application menu
	remote.InputBoolean, // trigger click
	remote.InputBoolean, // trigger touch
	remote.InputFloat32, // trigger value
	remote.InputBoolean, // grip click
	remote.InputBoolean, // grip touch
	remote.InputFloat32, // grip value
	remote.InputBoolean, // joystick click
	remote.InputBoolean, // joystick touch
	remote.InputFloat32, // joystick x
	remote.InputFloat32, // joystick y
	remote.InputBoolean, // a click
	remote.InputBoolean, // b click
	remote.InputBoolean, // x click
	remote.InputBoolean, // y click
	remote.InputBoolean, // a touch
	remote.InputBoolean, // b touch
	remote.InputBoolean, // x touch
	remote.InputBoolean, // y touch
	remote.InputBoolean, // thumb rest touch
}

// ButtonSlots maps each button to a slot per side. The left hand's A/B
// buttons are X/Y on the wire.
var ButtonSlots = [input.ButtonCount][input.NumControllers]int{
	input.ButtonSystem:          {Unmapped, Unmapped},
	input.ButtonApplicationMenu: {SlotSystemClick, Unmapped},
	input.ButtonTriggerTouch:    {SlotTriggerTouch, SlotTriggerTouch},
	input.ButtonTriggerClick:    {SlotTriggerClick, SlotTriggerClick},
	input.ButtonGripTouch:       {SlotGripTouch, SlotGripTouch},
	input.ButtonGripClick:       {SlotGripClick, SlotGripClick},
	input.ButtonTouchpadTouch:   {SlotThumbRestTouch, SlotThumbRestTouch},
	input.ButtonTouchpadClick:   {Unmapped, Unmapped},
	input.ButtonJoystickTouch:   {SlotJoystickTouch, SlotJoystickTouch},
	input.ButtonJoystickClick:   {SlotJoystickClick, SlotJoystickClick},
	input.ButtonATouch:          {SlotXTouch, SlotATouch},
	input.ButtonAClick:          {SlotXClick, SlotAClick},
	input.ButtonBTouch:          {SlotYTouch, SlotBTouch},
	input.ButtonBClick:          {SlotYClick, SlotBClick},
}

// AxisSlots maps each axis to a slot per side.
var AxisSlots = [input.AxisCount][input.NumControllers]int{
	input.AxisTrigger:   {SlotTriggerValue, SlotTriggerValue},
	input.AxisTouchpadX: {Unmapped, Unmapped},
	input.AxisTouchpadY: {Unmapped, Unmapped},
	input.AxisJoystickX: {SlotJoystickX, SlotJoystickX},
	input.AxisJoystickY: {SlotJoystickY, SlotJoystickY},
	input.AxisGrip:      {SlotGripValue, SlotGripValue},
	input.AxisGripForce: {Unmapped, Unmapped},
	input.AxisProximity: {Unmapped, Unmapped},
}

// ForEachMappedButton calls fn for every button with a slot on side.
func ForEachMappedButton(side input.Side, fn func(id input.ButtonID, slot int)) {
	for id := input.ButtonID(0); id < input.ButtonCount; id++ {
		if slot := ButtonSlots[id][side]; slot != Unmapped {
			fn(id, slot)
		}
	}
}

// ForEachMappedAxis calls fn for every axis with a slot on side.
func ForEachMappedAxis(side input.Side, fn func(id input.AxisID, slot int)) {
	for id := input.AxisID(0); id < input.AxisCount; id++ {
		if slot := AxisSlots[id][side]; slot != Unmapped {
			fn(id, slot)
		}
	}
}

// ControllerDesc returns the registration descriptor for side.
func ControllerDesc(side input.Side) remote.ControllerDesc {
	return remote.ControllerDesc{
		ID:              uint64(side),
		Role:            side.Role(),
		ControllerName:  "Oculus Touch",
		InputPaths:      InputPaths[:],
		InputValueTypes: InputValueTypes[:],
	}
}

// BuildEvents appends to dst one event per changed mapped control of c,
// axes first, then buttons. With sendAll every mapped control is reported.
func BuildEvents(c *input.Controller, timeNS uint64, sendAll bool, dst []remote.ControllerEvent) ([]remote.ControllerEvent, error) {
	return buildEvents(c, timeNS, sendAll, dst, MaxControllerEvents)
}

func buildEvents(c *input.Controller, timeNS uint64, sendAll bool, dst []remote.ControllerEvent, limit int) ([]remote.ControllerEvent, error) {
	start := len(dst)
	var overflow bool

	add := func(ev remote.ControllerEvent) {
		if len(dst)-start >= limit {
			overflow = true
			return
		}
		dst = append(dst, ev)
	}

	ForEachMappedAxis(c.Side, func(id input.AxisID, slot int) {
		a := c.Axis(id)
		if !sendAll && !a.WasValueChanged() {
			return
		}
		add(remote.ControllerEvent{
			ClientTimeNS: timeNS,
			InputIndex:   uint16(slot),
			Value:        remote.InputValue{Type: remote.InputFloat32, Float: a.Value()},
		})
	})

	ForEachMappedButton(c.Side, func(id input.ButtonID, slot int) {
		b := c.Button(id)
		if !sendAll && !b.WasChanged() {
			return
		}
		add(remote.ControllerEvent{
			ClientTimeNS: timeNS,
			InputIndex:   uint16(slot),
			Value:        remote.InputValue{Type: remote.InputBoolean, Bool: b.IsDown()},
		})
	})

	if overflow {
		return dst[:start], ErrTooManyEvents
	}
	return dst, nil
}
