package input

import (
	"testing"
	"time"
)

func TestNewPlayer(t *testing.T) {
	p := NewPlayer()

	for i := range p.Controllers {
		c := &p.Controllers[i]
		if c.Side != Side(i) {
			t.Fatalf("controller %d side = %v", i, c.Side)
		}
		if c.Player != p {
			t.Fatalf("controller %d back-reference not set", i)
		}
	}
	if p.Controller(Right).Side.Role() != "cxr://input/hand/right" {
		t.Fatalf("right role = %q", p.Controller(Right).Side.Role())
	}

	trigger := p.Controller(Left).Axis(AxisTrigger)
	trigger.SetValue(0.06)
	if !trigger.IsDown() {
		t.Fatal("axis thresholds not initialised")
	}
}

func TestPlayerSetClockAndClear(t *testing.T) {
	clk := &fakeClock{t: time.Unix(1, 0)}
	p := NewPlayer()
	p.SetClock(clk.now)

	c := p.Controller(Left)
	c.Button(ButtonAClick).SetState(true)
	c.Axis(AxisGrip).SetValue(1)
	clk.advance(time.Second)

	if got := c.Axis(AxisGrip).Button().HeldDuration(); got != time.Second {
		t.Fatalf("axis button clock not set: %v", got)
	}

	p.Clear()
	if c.Button(ButtonAClick).IsDown() || c.Axis(AxisGrip).Value() != 0 {
		t.Fatal("Clear left controller state")
	}
}

func TestIDNames(t *testing.T) {
	if ButtonAClick.String() != "a_click" || AxisGripForce.String() != "grip_force" {
		t.Fatalf("names: %s %s", ButtonAClick, AxisGripForce)
	}
	if ButtonCount.String() != "unknown" {
		t.Fatalf("out of range = %s", ButtonCount)
	}
}
