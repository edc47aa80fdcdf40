package input

import "testing"

func TestAnalogAxisHysteresis(t *testing.T) {
	a := NewAnalogAxis()

	steps := []struct {
		value    float32
		down     bool
		pressed  bool
		released bool
	}{
		{0, false, false, false},
		{0.06, true, true, false},
		{0.05, true, false, false},
		{0.06, true, false, false},
		{0.01, false, false, true},
		{0.06, true, true, false},
	}
	for i, s := range steps {
		a.SetValue(s.value)
		if a.IsDown() != s.down || a.WasPressed() != s.pressed || a.WasReleased() != s.released {
			t.Fatalf("step %d (%v): down=%v pressed=%v released=%v, want %+v",
				i, s.value, a.IsDown(), a.WasPressed(), a.WasReleased(), s)
		}
	}
	if got := a.Button().NewReleasedCount(); got != 1 {
		t.Fatalf("releases = %d, want 1", got)
	}
}

func TestAnalogAxisDipAboveThresholdReleases(t *testing.T) {
	a := NewAnalogAxis()

	a.SetValue(0.9)
	a.SetValue(0.88)
	if !a.IsDown() {
		t.Fatal("released inside band")
	}
	a.SetValue(0.5)
	if !a.WasReleased() {
		t.Fatal("no release below peak minus band")
	}

	// A press now needs the value to climb above the release point plus
	// the band.
	a.SetValue(0.53)
	if a.IsDown() {
		t.Fatal("pressed inside band")
	}
	a.SetValue(0.56)
	if !a.WasPressed() {
		t.Fatal("no press above release point plus band")
	}
}

func TestAnalogAxisNoChatterUnderNoise(t *testing.T) {
	a := NewAnalogAxis()

	noise := []float32{0.3, 0.32, 0.29, 0.31, 0.285, 0.3, 0.33, 0.3}
	for _, v := range noise {
		a.SetValue(v)
	}
	if got := a.Button().NewPressedCount(); got != 1 {
		t.Fatalf("presses = %d, want 1", got)
	}
	if got := a.Button().NewReleasedCount(); got != 0 {
		t.Fatalf("releases = %d, want 0", got)
	}
}

func TestAnalogAxisSimpleThreshold(t *testing.T) {
	a := NewAnalogAxis()
	a.SetFastRelease(false)

	a.SetValue(0.05)
	if !a.WasPressed() {
		t.Fatal("no press at threshold")
	}
	a.SetValue(0.049)
	if !a.WasReleased() {
		t.Fatal("no release below threshold")
	}
	a.SetValue(0.01)
	if a.WasReleased() {
		t.Fatal("release edge persisted")
	}
}

func TestAnalogAxisClamp(t *testing.T) {
	a := NewAnalogAxis()
	a.SetValue(3)
	if a.Value() != MaxAxisValue {
		t.Fatalf("Value = %v, want %v", a.Value(), MaxAxisValue)
	}
	a.SetValue(-7)
	if a.Value() != MinAxisValue || a.PreviousValue() != MaxAxisValue {
		t.Fatalf("Value = %v previous = %v", a.Value(), a.PreviousValue())
	}
}

func TestAnalogAxisAddValueAndDeadzone(t *testing.T) {
	a := NewAnalogAxis()
	a.SetDeadzone(0.1)

	a.AddValue(0.05)
	if a.IsActive() {
		t.Fatal("active inside deadzone")
	}
	a.AddValue(0.1)
	if !a.IsActive() || !near32(a.Value(), 0.15) {
		t.Fatalf("Value = %v active = %v", a.Value(), a.IsActive())
	}

	prev := a.PreviousValue()
	a.AddValue(0)
	if a.PreviousValue() != prev {
		t.Fatal("AddValue(0) shifted history")
	}

	a.Negate()
	if !a.IsActive() || a.Value() >= 0 {
		t.Fatalf("Negate: %v", a.Value())
	}
}

func TestAnalogAxisCombine(t *testing.T) {
	grip := NewAnalogAxis()
	force := NewAnalogAxis()

	grip.SetValue(0.8)
	force.SetValue(0.5)

	grip.Combine(&force)
	if grip.Value() != MaxAxisValue {
		t.Fatalf("combined value = %v, want clamped 1", grip.Value())
	}
	if grip.highest != 0.8 || grip.lastRelease != 0 {
		t.Fatalf("highest=%v lastRelease=%v", grip.highest, grip.lastRelease)
	}
	if grip.Button().PressedCount() != 2 {
		t.Fatalf("pressed count = %d, want 2", grip.Button().PressedCount())
	}
}

func TestAnalogAxisWasValueChanged(t *testing.T) {
	a := NewAnalogAxis()
	a.SetValue(0.2)
	if !a.WasValueChanged() {
		t.Fatal("change not reported")
	}
	a.SetValue(0.2)
	if a.WasValueChanged() {
		t.Fatal("unchanged value reported as changed")
	}
}

func near32(a, b float32) bool {
	d := a - b
	return d < 1e-6 && d > -1e-6
}
