// Package remotetest provides an in-memory remote.Service for tests.
package remotetest

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/junsooki/AirXR/internal/remote"
)

// Service hands out a single Receiver.
type Service struct {
	Receiver *Receiver
	Err      error

	Desc      remote.DeviceDesc
	Callbacks remote.Callbacks
	Creates   int
}

// NewService returns a service backed by a fresh Receiver.
func NewService() *Service {
	return &Service{Receiver: NewReceiver()}
}

func (s *Service) Create(desc remote.DeviceDesc, cb remote.Callbacks) (remote.Receiver, error) {
	s.Creates++
	if s.Err != nil {
		return nil, s.Err
	}
	s.Desc = desc
	s.Callbacks = cb
	s.Receiver.cb = cb
	return s.Receiver, nil
}

// Receiver records every call. Latch returns Frames in order, then
// remote.ErrFrameNotReady.
type Receiver struct {
	mu sync.Mutex

	cb remote.Callbacks

	Frames     []*remote.FrameBundle
	LatchErr   error
	BlitErr    error
	ConnectErr error

	// ConnectState, when set, is reported through OnStateChange from
	// Connect.
	ConnectState *remote.ClientState

	Connects    int
	Destroys    int
	Latches     int
	BlitMasks   []uint32
	Releases    int
	Controllers map[remote.ControllerHandle]remote.ControllerDesc
	Removed     []remote.ControllerHandle
	Events      map[remote.ControllerHandle][][]remote.ControllerEvent
	Poses       [][]remote.DevicePose

	next remote.ControllerHandle
}

// NewReceiver returns an empty Receiver.
func NewReceiver() *Receiver {
	return &Receiver{
		Controllers: make(map[remote.ControllerHandle]remote.ControllerDesc),
		Events:      make(map[remote.ControllerHandle][][]remote.ControllerEvent),
	}
}

// Frame builds a bundle with a solid side-by-side image and the given head
// pose.
func Frame(w, h int, head remote.DevicePose) *remote.FrameBundle {
	return &remote.FrameBundle{
		Image:   image.NewRGBA(image.Rect(0, 0, 2*w, h)),
		HMDPose: head,
		Width:   uint32(w),
		Height:  uint32(h),
	}
}

func (r *Receiver) Connect(ctx context.Context, addr string, opts remote.ConnectOptions) error {
	r.mu.Lock()
	r.Connects++
	err := r.ConnectErr
	state := r.ConnectState
	cb := r.cb
	r.mu.Unlock()

	if err == nil && state != nil && cb != nil {
		cb.OnStateChange(*state, nil)
	}
	return err
}

func (r *Receiver) Destroy() {
	r.mu.Lock()
	r.Destroys++
	r.mu.Unlock()
}

func (r *Receiver) Latch(timeout time.Duration, mask uint32) (*remote.FrameBundle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Latches++
	if r.LatchErr != nil {
		return nil, r.LatchErr
	}
	if len(r.Frames) == 0 {
		return nil, remote.ErrFrameNotReady
	}
	b := r.Frames[0]
	r.Frames = r.Frames[1:]
	b.Mask = mask
	return b, nil
}

func (r *Receiver) Blit(b *remote.FrameBundle, mask uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.BlitErr != nil {
		return r.BlitErr
	}
	r.BlitMasks = append(r.BlitMasks, mask)
	return nil
}

func (r *Receiver) Release(b *remote.FrameBundle) {
	r.mu.Lock()
	r.Releases++
	r.mu.Unlock()
}

func (r *Receiver) AddController(desc remote.ControllerDesc) (remote.ControllerHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.Controllers[r.next] = desc
	return r.next, nil
}

func (r *Receiver) RemoveController(h remote.ControllerHandle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Controllers[h]; !ok {
		return remote.ErrInvalidHandle
	}
	delete(r.Controllers, h)
	r.Removed = append(r.Removed, h)
	return nil
}

func (r *Receiver) FireEvents(h remote.ControllerHandle, events []remote.ControllerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Controllers[h]; !ok {
		return remote.ErrInvalidHandle
	}
	r.Events[h] = append(r.Events[h], append([]remote.ControllerEvent(nil), events...))
	return nil
}

func (r *Receiver) SendPoses(handles []remote.ControllerHandle, poses []remote.DevicePose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Poses = append(r.Poses, append([]remote.DevicePose(nil), poses...))
	return nil
}

// Snapshot runs fn with the receiver locked.
func (r *Receiver) Snapshot(fn func(r *Receiver)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r)
}
