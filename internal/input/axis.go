package input

const (
	MinAxisValue float32 = -1
	MaxAxisValue float32 = 1

	DefaultPressedThreshold float32 = 0.05
	DefaultReleaseThreshold float32 = 0.04
)

// AnalogAxis tracks a continuous control and derives press/release edges
// from it.
//
// With fast release enabled (the default) the derived button follows a
// two-sided hysteresis band: a press needs the value to climb
// releaseThreshold above the last release point, and a release needs it to
// fall releaseThreshold below the peak seen while held.
type AnalogAxis struct {
	button DigitalButton

	deadzone    float32
	fastRelease bool
	configured  bool

	current     float32
	previous    float32
	highest     float32
	lastRelease float32

	pressedThreshold float32
	releaseThreshold float32
}

// NewAnalogAxis returns an axis with the default thresholds.
func NewAnalogAxis() AnalogAxis {
	var a AnalogAxis
	a.init()
	return a
}

func (a *AnalogAxis) init() {
	if a.configured {
		return
	}
	a.configured = true
	a.fastRelease = true
	a.pressedThreshold = DefaultPressedThreshold
	a.releaseThreshold = DefaultReleaseThreshold
}

// SetThresholds overrides the press threshold and the hysteresis width.
func (a *AnalogAxis) SetThresholds(pressed, release float32) {
	a.init()
	a.pressedThreshold = pressed
	a.releaseThreshold = release
}

// SetFastRelease selects between the hysteresis policy (true) and a plain
// threshold comparison (false).
func (a *AnalogAxis) SetFastRelease(enabled bool) {
	a.init()
	a.fastRelease = enabled
}

func (a *AnalogAxis) Deadzone() float32 { return a.deadzone }
func (a *AnalogAxis) SetDeadzone(deadzone float32) { a.deadzone = deadzone }

func (a *AnalogAxis) Value() float32 { return a.current }
func (a *AnalogAxis) PreviousValue() float32 { return a.previous }
func (a *AnalogAxis) WasValueChanged() bool { return a.current != a.previous }

// Button exposes the derived button for read access.
func (a *AnalogAxis) Button() *DigitalButton { return &a.button }

func (a *AnalogAxis) IsDown() bool { return a.button.IsDown() }
func (a *AnalogAxis) WasPressed() bool { return a.button.WasPressed() }
func (a *AnalogAxis) WasReleased() bool { return a.button.WasReleased() }

// IsActive reports whether the value is outside the deadzone.
func (a *AnalogAxis) IsActive() bool {
	return abs32(a.current) > a.deadzone
}

// SetValue records a new sample and updates the derived button.
func (a *AnalogAxis) SetValue(value float32) {
	a.init()
	a.previous = a.current
	a.current = clampAxis(value)

	wasDown := a.button.IsDown()
	if !a.fastRelease {
		a.button.SetState(a.current >= a.pressedThreshold)
		return
	}

	switch {
	case a.current >= a.pressedThreshold:
		if a.current > a.highest {
			a.highest = a.current
		}
		if !wasDown {
			if a.current > a.lastRelease+a.releaseThreshold {
				a.button.SetState(true)
				a.lastRelease = a.current
			} else {
				a.button.SetState(false)
			}
			return
		}
		if a.current < a.highest-a.releaseThreshold {
			a.button.SetState(false)
			a.lastRelease = a.current
			a.highest = a.current
		} else {
			a.button.SetState(true)
		}

	case wasDown:
		// Below the press threshold the button always lets go; the trackers
		// only move when the drop also clears the band.
		if a.current < a.highest-a.releaseThreshold {
			a.lastRelease = a.current
			a.highest = a.current
		}
		a.button.SetState(false)

	default:
		a.highest = 0
		a.lastRelease = 0
		a.button.SetState(false)
	}
}

// AddValue nudges the axis by delta.
func (a *AnalogAxis) AddValue(delta float32) {
	if delta == 0 {
		return
	}
	a.SetValue(a.current + delta)
}

// Negate flips the sign of the current value without touching the button.
func (a *AnalogAxis) Negate() {
	a.current = -a.current
}

// Clear resets values and the derived button.
func (a *AnalogAxis) Clear() {
	a.current = 0
	a.previous = 0
	a.highest = 0
	a.lastRelease = 0
	a.button.Clear()
}

// Combine folds other into a, e.g. a force sensor into the grip axis.
func (a *AnalogAxis) Combine(other *AnalogAxis) {
	a.current = clampAxis(a.current + other.current)
	a.previous = clampAxis(a.previous + other.previous)
	if other.highest > a.highest {
		a.highest = other.highest
	}
	a.lastRelease = 0
	a.button.Combine(&other.button)
}

func clampAxis(v float32) float32 {
	if v < MinAxisValue {
		return MinAxisValue
	}
	if v > MaxAxisValue {
		return MaxAxisValue
	}
	return v
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
