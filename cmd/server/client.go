package main

import (
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/junsooki/AirXR/internal/capture"
	"github.com/junsooki/AirXR/internal/config"
	"github.com/junsooki/AirXR/internal/encoder"
	"github.com/junsooki/AirXR/internal/remote"
	"github.com/junsooki/AirXR/internal/transport"
	"github.com/junsooki/AirXR/internal/wire"
)

const (
	triggerClickPath = "/input/trigger/click"

	pulseAmplitude  = 0.8
	pulseFrequency  = 160
	pulseDurationMS = 40

	minQuality      = 20
	qualityStepDown = 10
	qualityStepUp   = 5

	toneSampleRate = 48000
	toneFrequency  = 880
	toneDurationMS = 60
)

type clientSink interface {
	transport.FrameSender
	transport.InputSender
}

// remoteClient is the server's view of one streaming client: the device it
// announced, its controllers and its latest head pose.
type remoteClient struct {
	id  string
	cfg *config.Server
	out clientSink
	enc encoder.Encoder

	mu          sync.Mutex
	device      *remote.DeviceDesc
	controllers map[remote.ControllerHandle]remote.ControllerDesc
	triggers    map[remote.ControllerHandle]bool
	head        remote.DevicePose
	poseID      uint64
	capturer    *capture.PatternCapturer
	stopped     bool

	frames, events, tracking uint64
}

func newRemoteClient(id string, cfg *config.Server, out clientSink) *remoteClient {
	return &remoteClient{
		id:          id,
		cfg:         cfg,
		out:         out,
		enc:         encoder.NewJPEGEncoder(cfg.Quality),
		controllers: make(map[remote.ControllerHandle]remote.ControllerDesc),
		triggers:    make(map[remote.ControllerHandle]bool),
		head:        remote.DevicePose{Position: remote.Vector3{0, 1.6, 0}, Rotation: remote.Quaternion{W: 1}},
	}
}

// latestHead feeds the capturer.
func (c *remoteClient) latestHead() (remote.DevicePose, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, c.poseID
}

func (c *remoteClient) handleInput(data []byte) {
	env, err := wire.ParseEnvelope(data)
	if err != nil {
		slog.Warn("server: bad input envelope", "client", c.id, "error", err)
		return
	}

	switch env.Type {
	case wire.TypeHello:
		if env.Device != nil {
			c.start(*env.Device)
		}
	case wire.TypeAddController:
		if env.Desc == nil {
			return
		}
		c.mu.Lock()
		c.controllers[env.Handle] = *env.Desc
		c.mu.Unlock()
		slog.Info("server: controller added", "client", c.id, "handle", env.Handle, "role", env.Desc.Role, "inputs", len(env.Desc.InputPaths))
	case wire.TypeRemoveController:
		c.mu.Lock()
		delete(c.controllers, env.Handle)
		delete(c.triggers, env.Handle)
		c.mu.Unlock()
		slog.Info("server: controller removed", "client", c.id, "handle", env.Handle)
	case wire.TypeEvents:
		c.handleEvents(env.Handle, env.Events)
	default:
		slog.Debug("server: ignoring envelope", "type", env.Type)
	}
}

func (c *remoteClient) handleEvents(h remote.ControllerHandle, events []remote.ControllerEvent) {
	c.mu.Lock()
	desc, ok := c.controllers[h]
	c.events += uint64(len(events))
	c.mu.Unlock()
	if !ok {
		slog.Warn("server: events for unknown controller", "client", c.id, "handle", h)
		return
	}

	for _, ev := range events {
		path := "?"
		if int(ev.InputIndex) < len(desc.InputPaths) {
			path = desc.InputPaths[ev.InputIndex]
		}
		slog.Debug("server: input", "client", c.id, "role", desc.Role, "path", path, "bool", ev.Value.Bool, "float", ev.Value.Float)

		if path != triggerClickPath {
			continue
		}
		c.mu.Lock()
		rising := ev.Value.Bool && !c.triggers[h]
		c.triggers[h] = ev.Value.Bool
		c.mu.Unlock()
		if rising {
			c.pulse(desc)
		}
	}
}

// pulse sends a short haptic to the controller whose trigger was pressed.
func (c *remoteClient) pulse(desc remote.ControllerDesc) {
	controller := 0
	if strings.HasSuffix(desc.Role, "/right") {
		controller = 1
	}
	env := &wire.Envelope{Type: wire.TypeHaptic, Haptic: &remote.HapticFeedback{
		Controller: controller,
		Frequency:  pulseFrequency,
		Amplitude:  pulseAmplitude,
		DurationMS: pulseDurationMS,
	}}
	data, err := env.Marshal()
	if err != nil {
		return
	}
	if err := c.out.SendInput(data); err != nil {
		slog.Warn("server: send haptic", "client", c.id, "error", err)
	}

	c.mu.Lock()
	audio := c.device != nil && c.device.ReceiveAudio
	c.mu.Unlock()
	if !audio {
		return
	}
	data, err = (&wire.Envelope{Type: wire.TypeAudio, Audio: tone(toneFrequency, toneDurationMS)}).Marshal()
	if err != nil {
		return
	}
	if err := c.out.SendInput(data); err != nil {
		slog.Warn("server: send audio", "client", c.id, "error", err)
	}
}

// tone renders a faded stereo sine click.
func tone(freq float64, ms int) []int16 {
	n := toneSampleRate * ms / 1000
	out := make([]int16, 2*n)
	for i := range n {
		fade := 1 - float64(i)/float64(n)
		v := int16(math.Sin(2*math.Pi*freq*float64(i)/toneSampleRate) * fade * 0.3 * math.MaxInt16)
		out[2*i], out[2*i+1] = v, v
	}
	return out
}

func (c *remoteClient) handleTracking(data []byte) {
	env, err := wire.ParseEnvelope(data)
	if err != nil {
		return
	}
	switch env.Type {
	case wire.TypeTracking:
		if env.State == nil {
			return
		}
		c.mu.Lock()
		c.tracking++
		c.head = env.State.HMD.Pose
		c.poseID = env.State.HMD.PoseID
		c.mu.Unlock()
	case wire.TypePoses:
		slog.Debug("server: controller poses", "client", c.id, "count", len(env.Poses))
	}
}

// start begins streaming once the client announced its device.
func (c *remoteClient) start(device remote.DeviceDesc) {
	w, h := c.cfg.Width, c.cfg.Height
	if len(device.Streams) > 0 {
		if w <= 0 {
			w = int(device.Streams[0].Width)
		}
		if h <= 0 {
			h = int(device.Streams[0].Height)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped || c.capturer != nil {
		return
	}
	c.device = &device

	capt, err := capture.NewPatternCapturer(w, h, c.cfg.FPS, c.latestHead)
	if err != nil {
		slog.Error("server: capture init", "client", c.id, "error", err)
		return
	}
	if err := capt.Start(); err != nil {
		slog.Error("server: capture start", "client", c.id, "error", err)
		return
	}
	c.capturer = capt
	slog.Info("server: streaming", "client", c.id, "eye", [2]int{w, h}, "fps", c.cfg.FPS, "ipd", device.IPD, "pollHz", device.PosePollHz)
	go c.streamFrames(capt.Frames())
}

func (c *remoteClient) streamFrames(frames <-chan *capture.Frame) {
	for f := range frames {
		msg, err := c.encodeFrame(f)
		if err != nil {
			slog.Warn("server: encode frame", "client", c.id, "error", err)
			continue
		}
		if err := c.out.SendFrame(msg); err != nil {
			continue
		}
		c.mu.Lock()
		c.frames++
		c.mu.Unlock()
	}
}

func (c *remoteClient) encodeFrame(f *capture.Frame) ([]byte, error) {
	data, err := c.enc.Encode(f.Image)
	if err != nil {
		return nil, err
	}
	c.adaptQuality(len(data))
	return wire.EncodeFrame(nil, wire.FrameHeader{
		PoseID:   f.PoseID,
		Width:    uint32(f.Width),
		Height:   uint32(f.Height),
		Position: f.Head.Position,
		Rotation: f.Head.Rotation,
	}, data), nil
}

// adaptQuality steps the encoder quality down while frames exceed the
// budget and back up to the configured quality once they fit in half of it.
func (c *remoteClient) adaptQuality(size int) {
	budget := c.cfg.MaxFrameBytes
	if budget <= 0 {
		return
	}
	q := c.enc.Quality()
	switch {
	case size > budget && q > minQuality:
		c.enc.SetQuality(max(q-qualityStepDown, minQuality))
		slog.Debug("server: frame over budget", "client", c.id, "bytes", size, "quality", c.enc.Quality())
	case size < budget/2 && q < c.cfg.Quality:
		c.enc.SetQuality(min(q+qualityStepUp, c.cfg.Quality))
	}
}

func (c *remoteClient) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	if c.capturer != nil {
		c.capturer.Stop()
	}
	slog.Info("server: client stopped", "client", c.id, "frames", c.frames, "events", c.events, "tracking", c.tracking)
}
