package mapping

import (
	"errors"
	"testing"

	"github.com/junsooki/AirXR/internal/input"
	"github.com/junsooki/AirXR/internal/remote"
)

func TestButtonSlotAsymmetry(t *testing.T) {
	p := input.NewPlayer()
	for i := range p.Controllers {
		p.Controllers[i].Button(input.ButtonAClick).SetState(true)
	}

	left, err := BuildEvents(p.Controller(input.Left), 1, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	right, err := BuildEvents(p.Controller(input.Right), 1, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	if len(left) != 1 || len(right) != 1 {
		t.Fatalf("events: left=%d right=%d, want 1 each", len(left), len(right))
	}
	if left[0].InputIndex != 14 {
		t.Errorf("left A click slot = %d, want 14", left[0].InputIndex)
	}
	if right[0].InputIndex != 12 {
		t.Errorf("right A click slot = %d, want 12", right[0].InputIndex)
	}
	if !left[0].Value.Bool || left[0].Value.Type != remote.InputBoolean {
		t.Errorf("left value = %+v", left[0].Value)
	}
}

func TestSlotTables(t *testing.T) {
	tests := []struct {
		id    input.ButtonID
		left  int
		right int
	}{
		{input.ButtonApplicationMenu, 0, Unmapped},
		{input.ButtonTriggerClick, 2, 2},
		{input.ButtonTriggerTouch, 3, 3},
		{input.ButtonGripClick, 5, 5},
		{input.ButtonGripTouch, 6, 6},
		{input.ButtonJoystickClick, 8, 8},
		{input.ButtonJoystickTouch, 9, 9},
		{input.ButtonAClick, 14, 12},
		{input.ButtonBClick, 15, 13},
		{input.ButtonATouch, 18, 16},
		{input.ButtonBTouch, 19, 17},
		{input.ButtonTouchpadTouch, 20, 20},
		{input.ButtonSystem, Unmapped, Unmapped},
	}
	for _, tt := range tests {
		got := ButtonSlots[tt.id]
		if got[input.Left] != tt.left || got[input.Right] != tt.right {
			t.Errorf("%s: slots = %v, want [%d %d]", tt.id, got, tt.left, tt.right)
		}
	}

	axes := map[input.AxisID]int{
		input.AxisTrigger:   4,
		input.AxisGrip:      7,
		input.AxisJoystickX: 10,
		input.AxisJoystickY: 11,
	}
	for id, slot := range axes {
		if AxisSlots[id][input.Left] != slot || AxisSlots[id][input.Right] != slot {
			t.Errorf("%s: slots = %v, want %d", id, AxisSlots[id], slot)
		}
	}
}

func TestSlotTypesMatchControls(t *testing.T) {
	for side := input.Side(0); side < input.NumControllers; side++ {
		ForEachMappedButton(side, func(id input.ButtonID, slot int) {
			if InputValueTypes[slot] != remote.InputBoolean {
				t.Errorf("%s %s -> %s is not boolean", side, id, InputPaths[slot])
			}
		})
		ForEachMappedAxis(side, func(id input.AxisID, slot int) {
			if InputValueTypes[slot] != remote.InputFloat32 {
				t.Errorf("%s %s -> %s is not float", side, id, InputPaths[slot])
			}
		})
	}
}

func TestForEachMappedSkipsUnmapped(t *testing.T) {
	var n int
	ForEachMappedButton(input.Right, func(id input.ButtonID, slot int) {
		if id == input.ButtonApplicationMenu || id == input.ButtonSystem {
			t.Errorf("unmapped button %s visited", id)
		}
		n++
	})
	if n != 11 {
		t.Fatalf("right mapped buttons = %d, want 11", n)
	}
}

func TestBuildEventsOrderAndGating(t *testing.T) {
	p := input.NewPlayer()
	c := p.Controller(input.Right)

	c.Button(input.ButtonBClick).SetState(true)
	c.Axis(input.AxisTrigger).SetValue(0.5)

	evs, err := BuildEvents(c, 42, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(evs) != 2 {
		t.Fatalf("events = %+v", evs)
	}
	if evs[0].InputIndex != SlotTriggerValue || evs[0].Value.Float != 0.5 {
		t.Errorf("first event = %+v, want trigger value", evs[0])
	}
	if evs[1].InputIndex != SlotBClick || !evs[1].Value.Bool {
		t.Errorf("second event = %+v, want b click", evs[1])
	}
	for _, ev := range evs {
		if ev.ClientTimeNS != 42 {
			t.Errorf("time = %d", ev.ClientTimeNS)
		}
	}

	// Nothing changed since the last sample.
	c.Button(input.ButtonBClick).SetState(true)
	c.Axis(input.AxisTrigger).SetValue(0.5)
	evs, err = BuildEvents(c, 43, false, evs[:0])
	if err != nil || len(evs) != 0 {
		t.Fatalf("unchanged controller produced %d events (err %v)", len(evs), err)
	}
}

func TestBuildEventsSendAll(t *testing.T) {
	p := input.NewPlayer()

	evs, err := BuildEvents(p.Controller(input.Left), 0, true, nil)
	if err != nil {
		t.Fatal(err)
	}
	// 4 axes and 12 buttons are mapped on the left.
	if len(evs) != 16 {
		t.Fatalf("events = %d, want 16", len(evs))
	}
}

func TestBuildEventsOverflow(t *testing.T) {
	p := input.NewPlayer()
	prefix := []remote.ControllerEvent{{InputIndex: 99}}

	out, err := buildEvents(p.Controller(input.Left), 0, true, prefix, 3)
	if !errors.Is(err, ErrTooManyEvents) {
		t.Fatalf("err = %v, want ErrTooManyEvents", err)
	}
	if len(out) != 1 || out[0].InputIndex != 99 {
		t.Fatalf("overflow did not restore dst: %+v", out)
	}
}

func TestControllerDesc(t *testing.T) {
	d := ControllerDesc(input.Left)
	if d.Role != "cxr://input/hand/left" || len(d.InputPaths) != 21 || len(d.InputValueTypes) != 21 {
		t.Fatalf("desc = %+v", d)
	}
}
