package input

import (
	"testing"
	"time"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestDigitalButtonEdges(t *testing.T) {
	var b DigitalButton

	steps := []struct {
		down     bool
		pressed  bool
		released bool
	}{
		{false, false, false},
		{true, true, false},
		{true, false, false},
		{false, false, true},
		{false, false, false},
		{true, true, false},
	}
	for i, s := range steps {
		b.SetState(s.down)
		if b.IsDown() != s.down || b.WasPressed() != s.pressed || b.WasReleased() != s.released {
			t.Fatalf("step %d: down=%v pressed=%v released=%v, want %+v",
				i, b.IsDown(), b.WasPressed(), b.WasReleased(), s)
		}
		if b.WasPressed() && b.WasReleased() {
			t.Fatalf("step %d: both edges set", i)
		}
	}
}

func TestDigitalButtonDrainCounts(t *testing.T) {
	var b DigitalButton

	seq := []bool{true, false, true, true, false, true, false}
	for _, s := range seq {
		b.SetState(s)
	}
	if got := b.NewPressedCount(); got != 3 {
		t.Fatalf("NewPressedCount = %d, want 3", got)
	}
	if got := b.NewReleasedCount(); got != 3 {
		t.Fatalf("NewReleasedCount = %d, want 3", got)
	}
	if got := b.NewPressedCount(); got != 0 {
		t.Fatalf("second drain = %d, want 0", got)
	}

	b.SetState(true)
	if got := b.NewPressedCount(); got != 1 {
		t.Fatalf("NewPressedCount after one press = %d, want 1", got)
	}
	if got := b.PressedCount(); got != 4 {
		t.Fatalf("PressedCount = %d, want 4", got)
	}
}

func TestDigitalButtonDurations(t *testing.T) {
	clk := &fakeClock{t: time.Unix(100, 0)}
	var b DigitalButton
	b.SetClock(clk.now)

	b.SetState(true)
	clk.advance(250 * time.Millisecond)
	if got := b.HeldDuration(); got != 250*time.Millisecond {
		t.Fatalf("HeldDuration = %v", got)
	}
	if got := b.ReleasedDuration(); got != 0 {
		t.Fatalf("ReleasedDuration while held = %v", got)
	}

	b.SetState(false)
	if got := b.ReleasedDuration(); got != 250*time.Millisecond {
		t.Fatalf("ReleasedDuration = %v", got)
	}
	if got := b.HeldDuration(); got != 0 {
		t.Fatalf("HeldDuration after release = %v", got)
	}

	b.SetState(false)
	if got := b.ReleasedDuration(); got != 0 {
		t.Fatalf("ReleasedDuration on idle frame = %v", got)
	}
}

func TestDigitalButtonClear(t *testing.T) {
	clk := &fakeClock{t: time.Unix(5, 0)}
	var b DigitalButton
	b.SetClock(clk.now)
	b.SetState(true)
	clk.advance(time.Second)

	b.Clear()
	if b.IsDown() || b.WasPressed() || b.PressedCount() != 0 {
		t.Fatalf("Clear left state: %+v", b)
	}
	if b.NewPressedCount() != 0 {
		t.Fatal("Clear left an undrained press")
	}

	// The clock survives Clear.
	b.SetState(true)
	clk.advance(time.Second)
	if got := b.HeldDuration(); got != time.Second {
		t.Fatalf("HeldDuration after Clear = %v", got)
	}
}

func TestDigitalButtonCombine(t *testing.T) {
	clk := &fakeClock{t: time.Unix(10, 0)}
	var a, b DigitalButton
	a.SetClock(clk.now)
	b.SetClock(clk.now)

	a.SetState(true)
	clk.advance(time.Second)
	b.SetState(true)
	b.SetState(false)

	a.Combine(&b)
	if !a.IsDown() || !a.WasReleased() {
		t.Fatalf("Combine flags: down=%v released=%v", a.IsDown(), a.WasReleased())
	}
	if a.PressedCount() != 2 || a.ReleasedCount() != 1 {
		t.Fatalf("Combine counts: pressed=%d released=%d", a.PressedCount(), a.ReleasedCount())
	}
	if !a.pressedAt.Equal(clk.t) {
		t.Fatalf("Combine kept earlier press time %v", a.pressedAt)
	}
}
