package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/AirXR/internal/decoder"
	"github.com/junsooki/AirXR/internal/peer"
	"github.com/junsooki/AirXR/internal/remote"
	"github.com/junsooki/AirXR/internal/signaling"
	"github.com/junsooki/AirXR/internal/transport"
	"github.com/junsooki/AirXR/internal/wire"
)

const defaultConnectTimeout = 10 * time.Second

var errDestroyed = errors.New("stream: receiver destroyed")

type sender interface {
	transport.InputSender
	transport.TrackingSender
}

// Stats counts frame traffic on a receiver.
type Stats struct {
	Received     uint64
	DecodeErrors uint64
	Published    uint64
	Dropped      uint64
	Latched      uint64
}

// Receiver is a remote.Receiver backed by a WebRTC peer connection.
type Receiver struct {
	clientID string
	peerCfg  peer.Config
	desc     remote.DeviceDesc
	cb       remote.Callbacks

	state     atomic.Int32
	destroyed atomic.Bool

	frames       *mailbox
	decoder      *decoder.JPEGDecoder
	received     atomic.Uint64
	decodeErrors atomic.Uint64

	mu         sync.Mutex
	sig        *signaling.Client
	pc         *peer.Client
	out        sender
	cancel     context.CancelFunc
	inflight   map[*remote.FrameBundle]struct{}
	handles    map[remote.ControllerHandle]struct{}
	nextHandle remote.ControllerHandle

	wg sync.WaitGroup
}

func newReceiver(clientID string, cfg peer.Config, desc remote.DeviceDesc, cb remote.Callbacks) *Receiver {
	r := &Receiver{
		clientID: clientID,
		peerCfg:  cfg,
		desc:     desc,
		cb:       cb,
		frames:   newMailbox(),
		decoder:  decoder.NewJPEGDecoder(),
		inflight: make(map[*remote.FrameBundle]struct{}),
		handles:  make(map[remote.ControllerHandle]struct{}),
	}
	r.decoder.Expect(int(desc.Streams[0].Width)*remote.NumEyes, int(desc.Streams[0].Height))
	return r
}

// State returns the last reported connection state.
func (r *Receiver) State() remote.ClientState {
	return remote.ClientState(r.state.Load())
}

func (r *Receiver) streaming() bool {
	return r.State() == remote.StreamingSessionInProgress
}

// Stats returns frame counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Received:     r.received.Load(),
		DecodeErrors: r.decodeErrors.Load(),
		Published:    r.frames.published.Load(),
		Dropped:      r.frames.dropped.Load(),
		Latched:      r.frames.consumed.Load(),
	}
}

// Connect registers with the signaling server at url and negotiates the data
// channels. With opts.Async the outcome is reported through OnStateChange
// only.
func (r *Receiver) Connect(ctx context.Context, url string, opts remote.ConnectOptions) error {
	if r.destroyed.Load() {
		return errDestroyed
	}
	switch s := r.State(); s {
	case remote.ConnectionAttemptInProgress, remote.StreamingSessionInProgress:
		return fmt.Errorf("stream: connect while %s", s)
	}
	r.state.Store(int32(remote.ConnectionAttemptInProgress))
	r.cb.OnStateChange(remote.ConnectionAttemptInProgress, nil)

	connCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	if !opts.Async {
		return r.attempt(connCtx, url, timeout)
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = r.attempt(connCtx, url, timeout)
	}()
	return nil
}

func (r *Receiver) attempt(ctx context.Context, url string, timeout time.Duration) error {
	err := r.establish(ctx, url, timeout)
	if err == nil && r.destroyed.Load() {
		err = errDestroyed
	}
	if err != nil {
		r.teardown()
		if r.destroyed.Load() {
			return err
		}
		r.state.Store(int32(remote.ConnectionAttemptFailed))
		slog.Warn("stream: connection attempt failed", "url", url, "error", err)
		r.cb.OnStateChange(remote.ConnectionAttemptFailed, err)
		return err
	}

	r.state.Store(int32(remote.StreamingSessionInProgress))
	slog.Info("stream: streaming", "url", url, "pollHz", r.desc.PosePollHz)

	r.wg.Add(1)
	go r.pollTracking(ctx)

	r.cb.OnStateChange(remote.StreamingSessionInProgress, nil)
	return nil
}

func (r *Receiver) establish(ctx context.Context, url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	registered := make(chan string, 1)
	sig := signaling.NewClient(url, r.clientID, signaling.Handler{
		OnRegistered: func(serverID string) {
			select {
			case registered <- serverID:
			default:
			}
		},
		OnAnswer: func(_ string, payload json.RawMessage) {
			if pc := r.peer(); pc != nil {
				if err := pc.HandleAnswer(payload); err != nil {
					slog.Warn("stream: handle answer", "error", err)
				}
			}
		},
		OnICECandidate: func(_ string, payload json.RawMessage) {
			if pc := r.peer(); pc != nil {
				if err := pc.HandleICECandidate(payload); err != nil {
					slog.Warn("stream: handle ICE candidate", "error", err)
				}
			}
		},
		OnError: func(msg string) {
			slog.Warn("stream: signaling error", "message", msg)
		},
	})
	r.mu.Lock()
	r.sig = sig
	r.mu.Unlock()

	if err := sig.Connect(ctx); err != nil {
		return err
	}

	var serverID string
	select {
	case serverID = <-registered:
	case <-ctx.Done():
		return fmt.Errorf("stream: waiting for registration: %w", ctx.Err())
	}

	failed := make(chan error, 1)
	pc, err := peer.NewClient(r.peerCfg, sig, serverID, func(s webrtc.PeerConnectionState) {
		r.onPeerState(s, failed)
	})
	if err != nil {
		return err
	}

	ready := make(chan struct{}, 1)
	tr := pc.Transport()
	tr.OnFrame(r.onFrame)
	tr.OnInput(r.onInput)
	tr.OnReady(func() {
		select {
		case ready <- struct{}{}:
		default:
		}
	})
	tr.OnClosed(func() {
		r.lost(errors.New("stream: data channel closed"))
	})

	r.mu.Lock()
	r.pc = pc
	r.out = tr
	r.mu.Unlock()

	if err := pc.Connect(); err != nil {
		return err
	}

	select {
	case <-ready:
	case err := <-failed:
		return err
	case <-ctx.Done():
		return fmt.Errorf("stream: waiting for data channels: %w", ctx.Err())
	}

	desc := r.desc
	return r.send(transport.LabelInput, &wire.Envelope{Type: wire.TypeHello, Device: &desc})
}

func (r *Receiver) peer() *peer.Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pc
}

func (r *Receiver) onPeerState(s webrtc.PeerConnectionState, failed chan<- error) {
	switch s {
	case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
		err := fmt.Errorf("stream: peer connection %s", s)
		select {
		case failed <- err:
		default:
		}
		r.lost(err)
	}
}

// lost moves a streaming receiver to Disconnected and tears it down.
func (r *Receiver) lost(err error) {
	if !r.state.CompareAndSwap(int32(remote.StreamingSessionInProgress), int32(remote.Disconnected)) {
		return
	}
	slog.Warn("stream: connection lost", "error", err)
	go func() {
		r.teardown()
		if !r.destroyed.Load() {
			r.cb.OnStateChange(remote.Disconnected, err)
		}
	}()
}

func (r *Receiver) teardown() {
	r.mu.Lock()
	sig, pc, cancel := r.sig, r.pc, r.cancel
	r.sig, r.pc, r.out, r.cancel = nil, nil, nil, nil
	clear(r.handles)
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if pc != nil {
		pc.Close()
	}
	if sig != nil {
		sig.Close()
	}
	r.frames.reset()
}

// Destroy closes the connection and waits for background work. No state
// change is reported.
func (r *Receiver) Destroy() {
	if !r.destroyed.CompareAndSwap(false, true) {
		return
	}
	r.teardown()
	r.wg.Wait()
	r.state.Store(int32(remote.Exiting))
	slog.Debug("stream: receiver destroyed", "received", r.received.Load())
}

func (r *Receiver) onFrame(data []byte) {
	r.received.Add(1)
	h, payload, err := wire.DecodeFrame(data)
	if err == nil && (h.Width != r.desc.Streams[0].Width || h.Height != r.desc.Streams[0].Height) {
		err = fmt.Errorf("stream: frame %dx%d per eye, want %dx%d", h.Width, h.Height, r.desc.Streams[0].Width, r.desc.Streams[0].Height)
	}
	var b *remote.FrameBundle
	if err == nil {
		b, err = r.bundle(h, payload)
	}
	if err != nil {
		r.decodeErrors.Add(1)
		slog.Debug("stream: dropping frame", "error", err)
		return
	}
	r.frames.publish(b)
}

func (r *Receiver) bundle(h wire.FrameHeader, payload []byte) (*remote.FrameBundle, error) {
	img, err := r.decoder.Decode(payload)
	if err != nil {
		return nil, err
	}
	return &remote.FrameBundle{
		Image:   img,
		HMDPose: h.HeadPose(),
		PoseID:  h.PoseID,
		Width:   h.Width,
		Height:  h.Height,
	}, nil
}

func (r *Receiver) onInput(data []byte) {
	env, err := wire.ParseEnvelope(data)
	if err != nil {
		slog.Debug("stream: bad input envelope", "error", err)
		return
	}
	switch env.Type {
	case wire.TypeHaptic:
		h, ok := r.cb.(remote.HapticHandler)
		if !ok || env.Haptic == nil {
			return
		}
		h.OnHaptic(*env.Haptic)
	case wire.TypeAudio:
		a, ok := r.cb.(remote.AudioRenderer)
		if !ok || !r.desc.ReceiveAudio {
			return
		}
		if err := a.RenderAudio(remote.AudioFrame{Samples: env.Audio}); err != nil {
			slog.Debug("stream: render audio", "error", err)
		}
	default:
		slog.Debug("stream: ignoring envelope", "type", env.Type)
	}
}

// Latch takes the newest decoded frame, waiting up to timeout.
func (r *Receiver) Latch(timeout time.Duration, mask uint32) (*remote.FrameBundle, error) {
	if !r.streaming() {
		return nil, remote.ErrNotStreaming
	}
	b := r.frames.take(timeout)
	if b == nil {
		return nil, remote.ErrFrameNotReady
	}
	b.Mask = mask

	r.mu.Lock()
	r.inflight[b] = struct{}{}
	r.mu.Unlock()
	return b, nil
}

// Blit presents the eyes selected by mask to the render target.
func (r *Receiver) Blit(b *remote.FrameBundle, mask uint32) error {
	if b == nil {
		return remote.ErrFrameNotLatched
	}
	r.mu.Lock()
	_, ok := r.inflight[b]
	r.mu.Unlock()
	if !ok {
		return remote.ErrFrameNotLatched
	}

	target := r.desc.RenderTarget
	if target == nil {
		return nil
	}
	for eye := 0; eye < remote.NumEyes; eye++ {
		if mask&b.Mask&remote.EyeMask(eye) == 0 {
			continue
		}
		target.Present(eye, b.Image.SubImage(b.EyeBounds(eye)))
	}
	return nil
}

// Release returns a latched frame. Releasing twice is harmless.
func (r *Receiver) Release(b *remote.FrameBundle) {
	if b == nil {
		return
	}
	r.mu.Lock()
	delete(r.inflight, b)
	r.mu.Unlock()
}

// AddController registers a controller with the server.
func (r *Receiver) AddController(desc remote.ControllerDesc) (remote.ControllerHandle, error) {
	if !r.streaming() {
		return 0, remote.ErrNotStreaming
	}
	r.mu.Lock()
	r.nextHandle++
	h := r.nextHandle
	r.handles[h] = struct{}{}
	r.mu.Unlock()

	if err := r.send(transport.LabelInput, &wire.Envelope{Type: wire.TypeAddController, Handle: h, Desc: &desc}); err != nil {
		r.mu.Lock()
		delete(r.handles, h)
		r.mu.Unlock()
		return 0, err
	}
	return h, nil
}

// RemoveController unregisters a controller. Once the connection is gone
// only the local handle is dropped.
func (r *Receiver) RemoveController(h remote.ControllerHandle) error {
	r.mu.Lock()
	_, ok := r.handles[h]
	delete(r.handles, h)
	r.mu.Unlock()
	if !ok {
		return remote.ErrInvalidHandle
	}
	if !r.streaming() {
		return nil
	}
	return r.send(transport.LabelInput, &wire.Envelope{Type: wire.TypeRemoveController, Handle: h})
}

// FireEvents sends a batch of input events for one controller.
func (r *Receiver) FireEvents(h remote.ControllerHandle, events []remote.ControllerEvent) error {
	if !r.streaming() {
		return remote.ErrNotStreaming
	}
	if !r.known(h) {
		return remote.ErrInvalidHandle
	}
	if len(events) == 0 {
		return nil
	}
	return r.send(transport.LabelInput, &wire.Envelope{Type: wire.TypeEvents, Handle: h, Events: events})
}

// SendPoses sends controller poses on the tracking channel.
func (r *Receiver) SendPoses(handles []remote.ControllerHandle, poses []remote.DevicePose) error {
	if !r.streaming() {
		return remote.ErrNotStreaming
	}
	if len(handles) != len(poses) {
		return fmt.Errorf("stream: %d handles for %d poses", len(handles), len(poses))
	}
	for _, h := range handles {
		if !r.known(h) {
			return remote.ErrInvalidHandle
		}
	}
	return r.send(transport.LabelTracking, &wire.Envelope{Type: wire.TypePoses, Handles: handles, Poses: poses})
}

func (r *Receiver) known(h remote.ControllerHandle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.handles[h]
	return ok
}

func (r *Receiver) send(label string, env *wire.Envelope) error {
	r.mu.Lock()
	out := r.out
	r.mu.Unlock()
	if out == nil {
		return remote.ErrNotConnected
	}

	data, err := env.Marshal()
	if err != nil {
		return err
	}
	if label == transport.LabelTracking {
		return out.SendTracking(data)
	}
	return out.SendInput(data)
}

// pollTracking asks the callbacks for a tracking state at the pose poll rate
// and streams it to the server.
func (r *Receiver) pollTracking(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(time.Second / time.Duration(r.desc.PosePollHz))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.pollOnce(); err != nil && !errors.Is(err, remote.ErrNotConnected) {
				slog.Debug("stream: send tracking", "error", err)
			}
		}
	}
}

func (r *Receiver) pollOnce() error {
	if !r.streaming() {
		return nil
	}
	var ts remote.TrackingState
	r.cb.OnTrackingStateRequest(&ts)
	return r.send(transport.LabelTracking, &wire.Envelope{
		Type:   wire.TypeTracking,
		State:  &ts,
		TimeNS: time.Now().UnixNano(),
	})
}

var _ remote.Receiver = (*Receiver)(nil)
