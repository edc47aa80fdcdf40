package display

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/junsooki/AirXR/internal/pose"
	"github.com/junsooki/AirXR/internal/xr"
	"github.com/junsooki/AirXR/internal/xrclock"
)

const (
	headHeight = 1.6
	turnRate   = math.Pi / 2 // rad/s
	maxPitch   = 85 * math.Pi / 180
	halfFOV    = 45 * math.Pi / 180
)

var handOffsets = [2]pose.Vec3{
	{X: -0.2, Y: -0.3, Z: -0.4},
	{X: 0.2, Y: -0.3, Z: -0.4},
}

// Haptic is a vibration request waiting for the render thread.
type Haptic struct {
	Hand      int
	Amplitude float32
	Frequency float32
	Duration  time.Duration
}

// Desktop is an xr.Runtime driven by the keyboard and gamepads. Update runs
// on the render thread; the action and locate methods may be called from the
// service's tracking goroutine.
type Desktop struct {
	ipd    float32
	period int64

	mu         sync.Mutex
	yaw, pitch float64
	head       pose.Pose
	live       [2]handInput
	polled     [2]handInput
	haptics    []Haptic
}

// NewDesktop returns a runtime with the given eye separation that predicts
// one refresh period ahead.
func NewDesktop(ipd float32, refreshHz float64) *Desktop {
	d := &Desktop{ipd: ipd, period: int64(float64(time.Second) / refreshHz)}
	for i := range d.live {
		d.live[i] = newHandInput()
		d.polled[i] = newHandInput()
	}
	d.head = pose.New(pose.Vec3{Y: headHeight}, pose.Identity)
	return d
}

// Update samples input for one tick of dt seconds.
func (d *Desktop) Update(pressed func(ebiten.Key) bool, pads []padState, dt float64) {
	hands := readControls(pressed, pads)

	var dyaw, dpitch float64
	if pressed(ebiten.KeyArrowLeft) {
		dyaw++
	}
	if pressed(ebiten.KeyArrowRight) {
		dyaw--
	}
	if pressed(ebiten.KeyArrowUp) {
		dpitch++
	}
	if pressed(ebiten.KeyArrowDown) {
		dpitch--
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.live = hands
	if pressed(ebiten.KeyR) {
		d.yaw, d.pitch = 0, 0
	}
	d.yaw = math.Remainder(d.yaw+dyaw*turnRate*dt, 2*math.Pi)
	d.pitch = math.Max(-maxPitch, math.Min(maxPitch, d.pitch+dpitch*turnRate*dt))
	d.head = pose.New(pose.Vec3{Y: headHeight}, pose.FromEuler(d.pitch, d.yaw, 0))
}

// Head returns the simulated head pose.
func (d *Desktop) Head() pose.Pose {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.head
}

func (d *Desktop) View(eye xr.Eye) xr.View {
	head := d.Head()
	fov := float32(halfFOV)
	return xr.View{
		Fov:  xr.Fov{AngleLeft: -fov, AngleRight: fov, AngleUp: fov, AngleDown: -fov},
		Pose: pose.EyeFromHead(head, d.ipd, eye == xr.LeftEye).ToRuntime(),
	}
}

func (d *Desktop) PredictedDisplayTime() int64 {
	return xrclock.Now() + d.period
}

const trackedFlags = xr.OrientationValid | xr.PositionValid | xr.OrientationTracked | xr.PositionTracked

func (d *Desktop) LocateHead(int64) (xr.SpaceLocation, bool) {
	return xr.SpaceLocation{Flags: trackedFlags, Pose: d.Head().ToRuntime()}, true
}

// LocateController places the hands in front of the body, following yaw
// only.
func (d *Desktop) LocateController(hand int, _ int64) (xr.SpaceLocation, bool) {
	if hand != leftHand && hand != rightHand {
		return xr.SpaceLocation{}, false
	}
	d.mu.Lock()
	yaw := d.yaw
	d.mu.Unlock()

	body := pose.New(pose.Vec3{Y: headHeight}, pose.FromEuler(0, yaw, 0))
	p := body.Compose(pose.New(handOffsets[hand], pose.Identity))
	return xr.SpaceLocation{Flags: trackedFlags, Pose: p.ToRuntime()}, true
}

// PollActions snapshots the latest input for the action getters.
func (d *Desktop) PollActions() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for h := range d.live {
		d.polled[h] = d.live[h]
	}
}

func (d *Desktop) BoolAction(hand int, action xr.Action) xr.BoolState {
	if hand != leftHand && hand != rightHand {
		return xr.BoolState{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return xr.BoolState{Active: true, Current: d.polled[hand].bools[action]}
}

func (d *Desktop) FloatAction(hand int, action xr.Action) xr.FloatState {
	if hand != leftHand && hand != rightHand {
		return xr.FloatState{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return xr.FloatState{Active: true, Current: d.polled[hand].floats[action]}
}

// ApplyHaptics queues a vibration for the next render tick.
func (d *Desktop) ApplyHaptics(hand int, amplitude, frequency float32, durationNS int64) {
	slog.Debug("display: haptic", "hand", hand, "amplitude", amplitude, "frequency", frequency, "durationNs", durationNS)
	d.mu.Lock()
	d.haptics = append(d.haptics, Haptic{
		Hand:      hand,
		Amplitude: amplitude,
		Frequency: frequency,
		Duration:  time.Duration(durationNS),
	})
	d.mu.Unlock()
}

// DrainHaptics returns and clears the queued vibrations.
func (d *Desktop) DrainHaptics() []Haptic {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := d.haptics
	d.haptics = nil
	return h
}

var (
	_ xr.Runtime = (*Desktop)(nil)
	_ xr.Haptics = (*Desktop)(nil)
)
