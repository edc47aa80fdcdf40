package input

import "time"

// DigitalButton tracks an edge-detected boolean control.
//
// Pressed and released are edge flags that stay set for exactly one
// SetState call. Counters only ever grow; NewPressedCount and
// NewReleasedCount let a consumer drain the edges it has not seen yet.
type DigitalButton struct {
	down     bool
	pressed  bool
	released bool

	pressedCount         uint32
	previousPressedCount uint32

	releasedCount         uint32
	previousReleasedCount uint32

	pressedAt  time.Time
	releasedAt time.Time

	now func() time.Time
}

// SetClock overrides the time source used to stamp edges.
func (b *DigitalButton) SetClock(now func() time.Time) {
	b.now = now
}

func (b *DigitalButton) clock() time.Time {
	if b.now != nil {
		return b.now()
	}
	return time.Now()
}

// SetState feeds the current physical state of the button.
func (b *DigitalButton) SetState(down bool) {
	switch {
	case down == b.down:
		b.pressed = false
		b.released = false
	case down:
		b.down = true
		b.pressed = true
		b.released = false
		b.pressedCount++
		b.pressedAt = b.clock()
	default:
		b.down = false
		b.pressed = false
		b.released = true
		b.releasedCount++
		b.releasedAt = b.clock()
	}
}

// Clear resets the button to its never-pressed baseline.
func (b *DigitalButton) Clear() {
	now := b.clock()
	*b = DigitalButton{now: b.now, pressedAt: now, releasedAt: now}
}

func (b *DigitalButton) IsDown() bool { return b.down }
func (b *DigitalButton) WasPressed() bool { return b.pressed }
func (b *DigitalButton) WasReleased() bool { return b.released }

// WasChanged reports whether the last SetState produced an edge.
func (b *DigitalButton) WasChanged() bool { return b.pressed || b.released }

// IsActive reports whether the button is held or was just released.
func (b *DigitalButton) IsActive() bool { return b.down || b.released }

func (b *DigitalButton) PressedCount() uint32 { return b.pressedCount }
func (b *DigitalButton) ReleasedCount() uint32 { return b.releasedCount }

// NewPressedCount returns the presses since the previous call.
func (b *DigitalButton) NewPressedCount() uint32 {
	n := b.pressedCount - b.previousPressedCount
	b.previousPressedCount = b.pressedCount
	return n
}

// NewReleasedCount returns the releases since the previous call.
func (b *DigitalButton) NewReleasedCount() uint32 {
	n := b.releasedCount - b.previousReleasedCount
	b.previousReleasedCount = b.releasedCount
	return n
}

// HeldDuration is how long the button has been down, zero when up.
func (b *DigitalButton) HeldDuration() time.Duration {
	if !b.down {
		return 0
	}
	return b.clock().Sub(b.pressedAt)
}

// ReleasedDuration is the length of the press that just ended.
func (b *DigitalButton) ReleasedDuration() time.Duration {
	if !b.released {
		return 0
	}
	return b.releasedAt.Sub(b.pressedAt)
}

// Combine folds other into b.
func (b *DigitalButton) Combine(other *DigitalButton) {
	b.down = b.down || other.down
	b.pressed = b.pressed || other.pressed
	b.released = b.released || other.released

	b.pressedCount += other.pressedCount
	b.previousPressedCount += other.previousPressedCount
	b.releasedCount += other.releasedCount
	b.previousReleasedCount += other.previousReleasedCount

	if other.pressedAt.After(b.pressedAt) {
		b.pressedAt = other.pressedAt
	}
	if other.releasedAt.After(b.releasedAt) {
		b.releasedAt = other.releasedAt
	}
}
