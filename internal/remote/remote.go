// Package remote defines the contract between the bridge and a remote
// rendering/streaming service.
package remote

import (
	"context"
	"errors"
	"image"
	"time"
)

var (
	ErrFrameNotReady     = errors.New("frame not ready")
	ErrNotConnected      = errors.New("not connected")
	ErrNotStreaming      = errors.New("not streaming")
	ErrFrameNotLatched   = errors.New("frame not latched")
	ErrAudioDisconnected = errors.New("audio stream disconnected")
	ErrInvalidHandle     = errors.New("invalid handle")
)

// Frame masks select eyes for Latch and Blit.
const (
	FrameMaskLeft  uint32 = 0x01
	FrameMaskRight uint32 = 0x02
	FrameMaskAll   uint32 = 0xFFFFFFFF

	// NumEyes is the number of views in a stereo frame.
	NumEyes = 2
)

// EyeMask returns the frame mask bit for eye index i (0 left, 1 right).
func EyeMask(i int) uint32 {
	return 1 << uint(i)
}

// ClientState is the connection state reported by the service.
type ClientState int32

const (
	ReadyToConnect ClientState = iota
	ConnectionAttemptInProgress
	ConnectionAttemptFailed
	StreamingSessionInProgress
	Disconnected
	Exiting
)

var clientStateNames = [...]string{
	"ReadyToConnect",
	"ConnectionAttemptInProgress",
	"ConnectionAttemptFailed",
	"StreamingSessionInProgress",
	"Disconnected",
	"Exiting",
}

func (s ClientState) String() string {
	if s < 0 || int(s) >= len(clientStateNames) {
		return "Unknown"
	}
	return clientStateNames[s]
}

// StreamDesc describes one video stream the client expects.
type StreamDesc struct {
	Width      uint32  `json:"width"`
	Height     uint32  `json:"height"`
	FPS        float32 `json:"fps"`
	MaxBitrate uint32  `json:"maxBitrateKbps,omitempty"`
}

// RenderTarget receives blitted eye images.
type RenderTarget interface {
	Present(eye int, img image.Image)
}

// DeviceDesc is the device descriptor passed to Service.Create.
type DeviceDesc struct {
	IPD          float32       `json:"ipd"`
	Streams      []StreamDesc  `json:"streams"`
	PredOffset   float32       `json:"predOffset"`
	ProjTangents [2][4]float32 `json:"projTangents"`
	PosePollHz   uint32        `json:"posePollFreq"`
	Foveation    uint32        `json:"foveation"`
	MaxResFactor float32       `json:"maxResFactor"`
	ReceiveAudio bool          `json:"receiveAudio"`
	SendAudio    bool          `json:"sendAudio"`
	RenderTarget RenderTarget  `json:"-"`
}

// ConnectOptions are passed to Receiver.Connect.
type ConnectOptions struct {
	Async   bool
	Timeout time.Duration
}

// Callbacks are invoked by the service. OnTrackingStateRequest runs on the
// service's polling goroutine, independent of the render loop.
type Callbacks interface {
	OnStateChange(state ClientState, err error)
	OnTrackingStateRequest(ts *TrackingState)
}

// HapticHandler is implemented by callbacks that accept haptic feedback.
type HapticHandler interface {
	OnHaptic(h HapticFeedback)
}

// AudioRenderer is implemented by callbacks that play received audio.
type AudioRenderer interface {
	RenderAudio(frame AudioFrame) error
}

// HapticFeedback asks a controller to vibrate.
type HapticFeedback struct {
	Controller int     `json:"controller"`
	Frequency  float32 `json:"frequency"`
	Amplitude  float32 `json:"amplitude"`
	DurationMS uint32  `json:"durationMs"`
}

// AudioFrame is a block of interleaved 16-bit stereo samples.
type AudioFrame struct {
	Samples []int16
}

// Service creates receivers.
type Service interface {
	Create(desc DeviceDesc, cb Callbacks) (Receiver, error)
}

// Receiver is a live handle to the streaming service.
type Receiver interface {
	Connect(ctx context.Context, addr string, opts ConnectOptions) error
	Destroy()

	Latch(timeout time.Duration, mask uint32) (*FrameBundle, error)
	Blit(bundle *FrameBundle, mask uint32) error
	Release(bundle *FrameBundle)

	AddController(desc ControllerDesc) (ControllerHandle, error)
	RemoveController(h ControllerHandle) error
	FireEvents(h ControllerHandle, events []ControllerEvent) error
	SendPoses(handles []ControllerHandle, poses []DevicePose) error
}
