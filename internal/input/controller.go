package input

import (
	"time"

	"github.com/junsooki/AirXR/internal/pose"
)

// Controller is the input state of one hand.
type Controller struct {
	Side   Side
	Player *Player
	Pose   pose.Pose

	Buttons [ButtonCount]DigitalButton
	Axes    [AxisCount]AnalogAxis
}

// Button returns the digital button with the given id.
func (c *Controller) Button(id ButtonID) *DigitalButton {
	return &c.Buttons[id]
}

// Axis returns the analog axis with the given id.
func (c *Controller) Axis(id AxisID) *AnalogAxis {
	return &c.Axes[id]
}

// Clear resets every button and axis.
func (c *Controller) Clear() {
	for i := range c.Buttons {
		c.Buttons[i].Clear()
	}
	for i := range c.Axes {
		c.Axes[i].Clear()
	}
	c.Pose = pose.Pose{}
}

// Player owns the two controllers of a streaming session.
type Player struct {
	Controllers [NumControllers]Controller
}

// NewPlayer builds a player with a left and a right controller.
func NewPlayer() *Player {
	p := &Player{}
	for i := range p.Controllers {
		c := &p.Controllers[i]
		c.Side = Side(i)
		c.Player = p
		for j := range c.Axes {
			c.Axes[j] = NewAnalogAxis()
		}
	}
	return p
}

// Controller returns the controller for side.
func (p *Player) Controller(side Side) *Controller {
	return &p.Controllers[side]
}

// SetClock overrides the edge timestamp source on every control.
func (p *Player) SetClock(now func() time.Time) {
	for i := range p.Controllers {
		c := &p.Controllers[i]
		for j := range c.Buttons {
			c.Buttons[j].SetClock(now)
		}
		for j := range c.Axes {
			c.Axes[j].button.SetClock(now)
		}
	}
}

// Clear resets both controllers.
func (p *Player) Clear() {
	for i := range p.Controllers {
		p.Controllers[i].Clear()
	}
}
