package display

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/junsooki/AirXR/internal/pose"
	"github.com/junsooki/AirXR/internal/xr"
)

func keys(held ...ebiten.Key) func(ebiten.Key) bool {
	set := make(map[ebiten.Key]bool, len(held))
	for _, k := range held {
		set[k] = true
	}
	return func(k ebiten.Key) bool { return set[k] }
}

func TestAspectFitTransform(t *testing.T) {
	tests := []struct {
		viewW, viewH, frameW, frameH float64
		scale, offX, offY            float64
	}{
		{1280, 720, 1280, 720, 1, 0, 0},
		{1280, 720, 1920, 1056, 720.0 / 1056, (1280 - 1920*720.0/1056) / 2, 0},
		{1000, 1000, 2000, 500, 0.5, 0, 375},
	}
	for _, tt := range tests {
		s, x, y := aspectFitTransform(tt.viewW, tt.viewH, tt.frameW, tt.frameH)
		if math.Abs(s-tt.scale) > 1e-9 || math.Abs(x-tt.offX) > 1e-9 || math.Abs(y-tt.offY) > 1e-9 {
			t.Errorf("fit(%v,%v,%v,%v) = %v,%v,%v", tt.viewW, tt.viewH, tt.frameW, tt.frameH, s, x, y)
		}
	}
}

func TestKeyboardControls(t *testing.T) {
	hands := readControls(keys(ebiten.KeyU, ebiten.KeyN, ebiten.KeyW, ebiten.KeyA, ebiten.KeyTab), nil)

	right := hands[rightHand]
	if right.floats[xr.ActionTriggerValue] != 1 || !right.bools[xr.ActionTriggerClick] || !right.bools[xr.ActionTriggerTouch] {
		t.Errorf("right trigger = %v %v", right.floats, right.bools)
	}
	if !right.bools[xr.ActionButtonAXClick] || !right.bools[xr.ActionButtonAXTouch] || right.floats[xr.ActionThumbProximity] != 1 {
		t.Errorf("right A = %v", right.bools)
	}

	left := hands[leftHand]
	if left.floats[xr.ActionThumbstickY] != 1 || left.floats[xr.ActionThumbstickX] != -1 {
		t.Errorf("left stick = %v", left.floats)
	}
	if !left.bools[xr.ActionThumbstickTouch] || !left.bools[xr.ActionMenuClick] {
		t.Errorf("left bools = %v", left.bools)
	}
	if left.bools[xr.ActionTriggerTouch] {
		t.Error("left trigger touched without a key")
	}
}

func TestOpposingKeysCancel(t *testing.T) {
	hands := readControls(keys(ebiten.KeyJ, ebiten.KeyL), nil)
	if v := hands[rightHand].floats[xr.ActionThumbstickX]; v != 0 {
		t.Fatalf("stick x = %v", v)
	}
	if hands[rightHand].bools[xr.ActionThumbstickTouch] {
		t.Fatal("centred stick reported touched")
	}
}

func TestGamepadFolding(t *testing.T) {
	var p padState
	p.triggers[leftHand] = 0.5
	p.grips[rightHand] = 0.97
	p.sticks[rightHand] = [2]float32{0.3, -0.8}
	p.by[leftHand] = true

	hands := readControls(keys(ebiten.KeyL), []padState{p})

	left := hands[leftHand]
	if left.floats[xr.ActionTriggerValue] != 0.5 || left.bools[xr.ActionTriggerClick] || !left.bools[xr.ActionTriggerTouch] {
		t.Errorf("left trigger = %v %v", left.floats, left.bools)
	}
	if !left.bools[xr.ActionButtonBYClick] {
		t.Error("left Y not pressed")
	}

	right := hands[rightHand]
	if !right.bools[xr.ActionSqueezeClick] {
		t.Error("grip past threshold not clicked")
	}
	// Keyboard full deflection wins over the smaller pad deflection.
	if right.floats[xr.ActionThumbstickX] != 1 || right.floats[xr.ActionThumbstickY] != -0.8 {
		t.Errorf("right stick = %v", right.floats)
	}
}

func TestDeadzone(t *testing.T) {
	if deadzone(0.05) != 0 || deadzone(-0.1) != 0 || deadzone(0.5) != 0.5 {
		t.Fatal("deadzone")
	}
}

func TestDesktopHeadTurn(t *testing.T) {
	d := NewDesktop(0.064, 72)

	for i := 0; i < 30; i++ {
		d.Update(keys(ebiten.KeyArrowLeft), nil, 1.0/60)
	}
	yaw := d.Head().Euler.Y
	if math.Abs(float64(yaw)-math.Pi/4) > 1e-4 {
		t.Fatalf("yaw after half a second = %v", yaw)
	}

	d.Update(keys(ebiten.KeyR), nil, 1.0/60)
	if y := d.Head().Euler.Y; math.Abs(float64(y)) > 1e-6 {
		t.Fatalf("yaw after recenter = %v", y)
	}

	for i := 0; i < 600; i++ {
		d.Update(keys(ebiten.KeyArrowUp), nil, 1.0/60)
	}
	if p := float64(d.Head().Euler.X); p > maxPitch+1e-3 {
		t.Fatalf("pitch not clamped: %v", p)
	}
}

func TestDesktopViewsCarryIPD(t *testing.T) {
	d := NewDesktop(0.063, 72)
	l := d.View(xr.LeftEye).Pose.Position
	r := d.View(xr.RightEye).Pose.Position
	ipd := pose.ComputeIPD(pose.Vec3{X: l.X, Y: l.Y, Z: l.Z}, pose.Vec3{X: r.X, Y: r.Y, Z: r.Z})
	if ipd != 0.063 {
		t.Fatalf("ipd = %v", ipd)
	}
	if fov := d.View(xr.LeftEye).Fov; fov.AngleLeft >= 0 || fov.AngleRight <= 0 {
		t.Fatalf("fov = %+v", fov)
	}
	if d.PredictedDisplayTime() <= 0 {
		t.Fatal("display time not positive")
	}
}

func TestDesktopActionsNeedPoll(t *testing.T) {
	d := NewDesktop(0.064, 72)
	d.Update(keys(ebiten.KeyU), nil, 1.0/60)

	if s := d.FloatAction(rightHand, xr.ActionTriggerValue); s.Current != 0 {
		t.Fatalf("value visible before poll: %+v", s)
	}
	d.PollActions()
	if s := d.FloatAction(rightHand, xr.ActionTriggerValue); !s.Active || s.Current != 1 {
		t.Fatalf("trigger = %+v", s)
	}
	if s := d.BoolAction(rightHand, xr.ActionTriggerClick); !s.Current {
		t.Fatalf("click = %+v", s)
	}
	if s := d.BoolAction(5, xr.ActionTriggerClick); s.Active {
		t.Fatal("unknown hand active")
	}

	loc, ok := d.LocateController(leftHand, 0)
	if !ok || !loc.Located() || loc.Pose.Position.X >= 0 {
		t.Fatalf("left hand = %+v %v", loc, ok)
	}
	if _, ok := d.LocateController(2, 0); ok {
		t.Fatal("third hand located")
	}
}

func TestHapticsQueued(t *testing.T) {
	d := NewDesktop(0.064, 72)
	d.ApplyHaptics(1, 0.8, 160, 20e6)
	h := d.DrainHaptics()
	if len(h) != 1 || h[0].Hand != 1 || h[0].Duration.Milliseconds() != 20 {
		t.Fatalf("haptics = %+v", h)
	}
	if len(d.DrainHaptics()) != 0 {
		t.Fatal("haptics not cleared")
	}
}

func TestPresentCopiesEye(t *testing.T) {
	d := NewEbitenDisplay("test", NewDesktop(0.064, 72), nil, nil)

	src := image.NewRGBA(image.Rect(0, 0, 8, 4))
	src.Set(5, 1, color.RGBA{R: 200, A: 255})
	d.Present(1, src.SubImage(image.Rect(4, 0, 8, 4)))

	got := d.eyes[1]
	if got == nil || got.Bounds() != image.Rect(0, 0, 4, 4) || !d.dirty[1] {
		t.Fatalf("eye = %v dirty=%v", got, d.dirty[1])
	}
	if c := got.RGBAAt(1, 1); c.R != 200 {
		t.Fatalf("pixel = %+v", c)
	}

	d.Present(7, src)
	if d.eyes[0] != nil {
		t.Fatal("out of range eye stored")
	}
}
