// Package framesync runs the latch/blit/release protocol against a
// streaming receiver.
package framesync

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/junsooki/AirXR/internal/pose"
	"github.com/junsooki/AirXR/internal/remote"
)

// Cadence selects how many latches a render frame uses.
type Cadence int

const (
	// CadenceBothEyes latches once and blits both eyes from the bundle.
	CadenceBothEyes Cadence = iota
	// CadencePerEye latches, blits and releases once per eye.
	CadencePerEye
)

// ParseCadence maps a config string to a Cadence.
func ParseCadence(s string) (Cadence, error) {
	switch s {
	case "", "both", "both_eyes":
		return CadenceBothEyes, nil
	case "per_eye", "per-eye":
		return CadencePerEye, nil
	}
	return 0, errors.New("framesync: unknown cadence " + s)
}

func (c Cadence) String() string {
	if c == CadencePerEye {
		return "per_eye"
	}
	return "both_eyes"
}

// Stats counts engine activity.
type Stats struct {
	Latches  uint64
	NotReady uint64
	Errors   uint64
	Blits    uint64
	Releases uint64
}

// Engine holds at most one latched bundle at a time. It is driven from the
// render loop only.
type Engine struct {
	receiver  remote.Receiver
	connected func() bool
	ipd       func() float32

	// LogFrameNotReady enables debug logging of not-ready latches.
	LogFrameNotReady bool

	latched bool
	bundle  *remote.FrameBundle

	latches  atomic.Uint64
	notReady atomic.Uint64
	errs     atomic.Uint64
	blits    atomic.Uint64
	releases atomic.Uint64
}

// New creates an engine. connected gates every call; ipd supplies the
// current interpupillary distance for eye poses.
func New(r remote.Receiver, connected func() bool, ipd func() float32) *Engine {
	return &Engine{receiver: r, connected: connected, ipd: ipd}
}

// SetReceiver swaps the receiver. Any latched bundle is dropped without
// release.
func (e *Engine) SetReceiver(r remote.Receiver) {
	e.receiver = r
	e.latched = false
	e.bundle = nil
}

// IsLatched reports whether a bundle is held.
func (e *Engine) IsLatched() bool { return e.latched }

// Latch acquires the next frame for the eyes in mask.
func (e *Engine) Latch(mask uint32, timeout time.Duration) bool {
	if e.receiver == nil || !e.connected() || e.latched {
		return false
	}

	b, err := e.receiver.Latch(timeout, mask)
	if err != nil {
		if errors.Is(err, remote.ErrFrameNotReady) {
			e.notReady.Add(1)
			if e.LogFrameNotReady {
				slog.Debug("framesync: frame not ready", "timeout", timeout)
			}
			return false
		}
		e.errs.Add(1)
		slog.Error("framesync: latch", "error", err)
		return false
	}

	e.latches.Add(1)
	e.latched = true
	e.bundle = b
	return true
}

// Blit presents eye from the latched bundle and returns the eye's render
// pose. The eye must be in the mask the bundle was latched with.
func (e *Engine) Blit(eye int) (pose.Pose, bool) {
	if !e.latched || !e.connected() {
		return pose.Pose{}, false
	}
	if e.bundle.Mask&remote.EyeMask(eye) == 0 {
		return pose.Pose{}, false
	}

	if err := e.receiver.Blit(e.bundle, remote.EyeMask(eye)); err != nil {
		e.errs.Add(1)
		slog.Error("framesync: blit", "eye", eye, "error", err)
		return pose.Pose{}, false
	}
	e.blits.Add(1)

	head := pose.FromProtocol(e.bundle.HMDPose)
	return pose.EyeFromHead(head, e.ipd(), eye == 0), true
}

// Release hands the bundle back.
func (e *Engine) Release() {
	if !e.latched {
		return
	}
	e.receiver.Release(e.bundle)
	e.releases.Add(1)
	e.latched = false
	e.bundle = nil
}

// RunFrame drives one render frame with cadence c, calling submit for each
// eye that was blitted.
func (e *Engine) RunFrame(c Cadence, timeout time.Duration, submit func(eye int, p pose.Pose)) int {
	var n int
	blit := func(eye int) {
		if p, ok := e.Blit(eye); ok {
			n++
			if submit != nil {
				submit(eye, p)
			}
		}
	}

	if c == CadencePerEye {
		for eye := 0; eye < 2; eye++ {
			if e.Latch(remote.EyeMask(eye), timeout) {
				blit(eye)
				e.Release()
			}
		}
		return n
	}

	if e.Latch(remote.FrameMaskAll, timeout) {
		blit(0)
		blit(1)
		e.Release()
	}
	return n
}

// Stats returns a snapshot of the counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Latches:  e.latches.Load(),
		NotReady: e.notReady.Load(),
		Errors:   e.errs.Load(),
		Blits:    e.blits.Load(),
		Releases: e.releases.Load(),
	}
}
