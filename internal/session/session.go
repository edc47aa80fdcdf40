// Package session drives a streaming session: connection lifecycle, per
// frame latch/blit/release and tracking uploads.
package session

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/junsooki/AirXR/internal/config"
	"github.com/junsooki/AirXR/internal/connection"
	"github.com/junsooki/AirXR/internal/framesync"
	"github.com/junsooki/AirXR/internal/input"
	"github.com/junsooki/AirXR/internal/mapping"
	"github.com/junsooki/AirXR/internal/pose"
	"github.com/junsooki/AirXR/internal/remote"
	"github.com/junsooki/AirXR/internal/xr"
)

// Option configures a Session.
type Option func(*Session)

// WithRenderTarget sets where blitted eyes are presented.
func WithRenderTarget(t remote.RenderTarget) Option {
	return func(s *Session) { s.target = t }
}

// WithAudioSink enables audio playback through sink.
func WithAudioSink(sink AudioSink) Option {
	return func(s *Session) { s.audio = sink }
}

// WithButtonClock overrides the clock used to stamp controller edges.
func WithButtonClock(now func() time.Time) Option {
	return func(s *Session) { s.player.SetClock(now) }
}

// Session composes the connection state machine, frame sync engine and
// input pipeline around one remote receiver.
type Session struct {
	cfg     *config.Client
	svc     remote.Service
	rt      xr.Runtime
	haptics xr.Haptics
	target  remote.RenderTarget
	audio   AudioSink

	ctx    context.Context
	cancel context.CancelFunc

	machine      *connection.Machine
	frames       *framesync.Engine
	cadence      framesync.Cadence
	latchTimeout time.Duration
	offset       pose.Pose

	mu           sync.Mutex
	receiver     remote.Receiver
	createFailed bool
	retry        atomic.Bool

	ipdBits atomic.Uint32
	poseID  atomic.Uint64

	// Tracking state, owned by the service's polling goroutine.
	trackMu          sync.Mutex
	player           *input.Player
	handles          [input.NumControllers]remote.ControllerHandle
	controllersAdded bool
	rawGrip          [input.NumControllers]float32
	events           []remote.ControllerEvent
	handleBuf        []remote.ControllerHandle
	poseBuf          []remote.DevicePose
}

// New creates a session. Nothing touches the service until Init.
func New(cfg *config.Client, svc remote.Service, rt xr.Runtime, opts ...Option) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		cfg:          cfg,
		svc:          svc,
		rt:           rt,
		ctx:          ctx,
		cancel:       cancel,
		machine:      connection.NewMachine(),
		latchTimeout: time.Duration(cfg.LatchTimeoutMS) * time.Millisecond,
		player:       input.NewPlayer(),
		events:       make([]remote.ControllerEvent, 0, mapping.MaxControllerEvents),
	}
	if h, ok := rt.(xr.Haptics); ok {
		s.haptics = h
	}

	cadence, err := framesync.ParseCadence(cfg.FrameCadence)
	if err != nil {
		slog.Warn("session: frame cadence", "error", err, "using", cadence)
	}
	s.cadence = cadence

	o := cfg.RemoteControllerOffset
	s.offset = pose.New(
		pose.Vec3{X: float32(o.Position[0]), Y: float32(o.Position[1]), Z: float32(o.Position[2])},
		pose.FromEuler(radians(o.Rotation[0]), radians(o.Rotation[1]), radians(o.Rotation[2])),
	)

	s.ipdBits.Store(math.Float32bits(float32(cfg.IPD)))
	s.frames = framesync.New(nil, s.machine.IsConnected, s.IPD)
	s.frames.LogFrameNotReady = cfg.LogFrameNotReady

	s.machine.OnConnected(s.onConnected)
	s.machine.OnDisconnected(s.onDisconnected)

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init creates the remote receiver if needed. A creation failure sticks
// until Retry.
func (s *Session) Init() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.receiver != nil {
		return true
	}
	if s.createFailed {
		return false
	}

	s.updateIPD()
	r, err := s.svc.Create(s.deviceDesc(), s)
	if err != nil {
		slog.Error("session: create receiver", "error", err)
		s.createFailed = true
		return false
	}
	s.receiver = r
	s.frames.SetReceiver(r)
	slog.Info("session: receiver created",
		"ipd", s.IPD(),
		"perEye", [2]int{s.cfg.PerEyeWidth, s.cfg.PerEyeHeight},
		"posePollHz", s.cfg.PosePollHz())
	return true
}

// IsInitialized reports whether a receiver exists.
func (s *Session) IsInitialized() bool {
	return s.recv() != nil
}

// Retry clears a sticky creation failure and allows a connect after a
// failed attempt.
func (s *Session) Retry() {
	s.mu.Lock()
	s.createFailed = false
	s.mu.Unlock()
	s.retry.Store(true)
}

// Connect starts an asynchronous connection attempt.
func (s *Session) Connect() bool {
	if !s.Init() {
		return false
	}
	r := s.recv()
	retry := s.retry.Swap(false)

	return s.machine.Connect(retry, func() error {
		slog.Info("session: connecting", "server", s.cfg.ServerAddress)
		return r.Connect(s.ctx, s.cfg.SignalingURL(), remote.ConnectOptions{
			Async:   true,
			Timeout: 10 * time.Second,
		})
	})
}

// Disconnect tears the receiver down. It does nothing unless connected or
// connecting.
func (s *Session) Disconnect() {
	if !s.machine.IsConnected() && !s.machine.IsConnecting() {
		return
	}

	s.mu.Lock()
	r := s.receiver
	s.receiver = nil
	s.mu.Unlock()

	s.frames.Release()
	s.frames.SetReceiver(nil)

	if r != nil {
		s.removeControllers(r)
		r.Destroy()
	}
	s.machine.Reset()
	slog.Info("session: disconnected")
}

// Close disconnects and releases audio.
func (s *Session) Close() {
	s.Disconnect()

	s.mu.Lock()
	r := s.receiver
	s.receiver = nil
	s.mu.Unlock()
	if r != nil {
		r.Destroy()
	}

	s.cancel()
	if s.audio != nil {
		if err := s.audio.Close(); err != nil {
			slog.Warn("session: audio close", "error", err)
		}
	}
}

// Frame runs one render frame: auto-connect when ready, then the frame
// cadence when streaming. submit receives each blitted eye and its pose.
// It returns the number of eyes blitted.
func (s *Session) Frame(submit func(eye int, p pose.Pose)) int {
	if s.cfg.AutoConnect && (s.machine.IsReady() || (s.machine.Failed() && s.retry.Load())) {
		s.Connect()
	}
	if !s.machine.IsConnected() {
		return 0
	}
	return s.frames.RunFrame(s.cadence, s.latchTimeout, submit)
}

// State returns the connection state.
func (s *Session) State() remote.ClientState { return s.machine.State() }

// Stats returns frame sync counters.
func (s *Session) Stats() framesync.Stats { return s.frames.Stats() }

// IPD returns the current interpupillary distance in meters.
func (s *Session) IPD() float32 {
	return math.Float32frombits(s.ipdBits.Load())
}

// OnStateChange implements remote.Callbacks.
func (s *Session) OnStateChange(state remote.ClientState, err error) {
	s.machine.Notify(state, err)
}

func (s *Session) onConnected() {
	slog.Info("session: streaming", "server", s.cfg.ServerAddress)
}

func (s *Session) onDisconnected() {
	s.trackMu.Lock()
	s.controllersAdded = false
	s.handles = [input.NumControllers]remote.ControllerHandle{}
	s.rawGrip = [input.NumControllers]float32{}
	s.player.Clear()
	s.trackMu.Unlock()
}

func (s *Session) recv() remote.Receiver {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiver
}

// updateIPD recomputes the IPD from the runtime's eye views. A degenerate
// result keeps the previous value.
func (s *Session) updateIPD() float32 {
	l := s.rt.View(xr.LeftEye).Pose.Position
	r := s.rt.View(xr.RightEye).Pose.Position
	ipd := pose.ComputeIPD(pose.Vec3{X: l.X, Y: l.Y, Z: l.Z}, pose.Vec3{X: r.X, Y: r.Y, Z: r.Z})
	if ipd > 0 {
		s.ipdBits.Store(math.Float32bits(ipd))
	}
	return s.IPD()
}

func (s *Session) deviceDesc() remote.DeviceDesc {
	stream := remote.StreamDesc{
		Width:  uint32(s.cfg.PerEyeWidth),
		Height: uint32(s.cfg.PerEyeHeight),
		FPS:    float32(s.cfg.RefreshRate),
	}
	desc := remote.DeviceDesc{
		IPD:          s.IPD(),
		Streams:      []remote.StreamDesc{stream, stream},
		PredOffset:   float32(float64(s.cfg.PredictionOffsetNS) / 1e9),
		PosePollHz:   uint32(s.cfg.PosePollHz()),
		Foveation:    uint32(s.cfg.Foveation),
		MaxResFactor: float32(s.cfg.MaxResFactor),
		ReceiveAudio: s.cfg.EnableAudioPlayback && s.audio != nil,
		SendAudio:    s.cfg.EnableAudioRecording,
		RenderTarget: s.target,
	}
	for eye := xr.LeftEye; eye < xr.NumEyes; eye++ {
		fov := s.rt.View(eye).Fov
		desc.ProjTangents[eye] = [4]float32{
			tan32(fov.AngleLeft),
			tan32(fov.AngleRight),
			tan32(fov.AngleUp),
			tan32(fov.AngleDown),
		}
	}
	return desc
}

func tan32(a float32) float32 {
	return float32(math.Tan(float64(a)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
