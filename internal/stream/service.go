// Package stream implements the streaming service over WebRTC data channels
// negotiated through the signaling server.
package stream

import (
	"fmt"

	"github.com/junsooki/AirXR/internal/peer"
	"github.com/junsooki/AirXR/internal/remote"
)

// Service creates WebRTC-backed receivers.
type Service struct {
	clientID string
	peer     peer.Config
}

// NewService returns a service that registers as clientID.
func NewService(clientID string, cfg peer.Config) *Service {
	return &Service{clientID: clientID, peer: cfg}
}

// Create validates desc and returns an unconnected receiver.
func (s *Service) Create(desc remote.DeviceDesc, cb remote.Callbacks) (remote.Receiver, error) {
	if cb == nil {
		return nil, fmt.Errorf("stream: nil callbacks")
	}
	if err := ValidateDesc(desc); err != nil {
		return nil, err
	}
	return newReceiver(s.clientID, s.peer, desc, cb), nil
}

// ValidateDesc checks a device descriptor describes one stream per eye.
func ValidateDesc(desc remote.DeviceDesc) error {
	if len(desc.Streams) != remote.NumEyes {
		return fmt.Errorf("stream: want %d streams, got %d", remote.NumEyes, len(desc.Streams))
	}
	first := desc.Streams[0]
	for i, sd := range desc.Streams {
		if sd.Width == 0 || sd.Height == 0 {
			return fmt.Errorf("stream: stream %d has zero size", i)
		}
		if sd.FPS <= 0 {
			return fmt.Errorf("stream: stream %d has fps %v", i, sd.FPS)
		}
		if sd.Width != first.Width || sd.Height != first.Height {
			return fmt.Errorf("stream: eye streams differ: %dx%d vs %dx%d", first.Width, first.Height, sd.Width, sd.Height)
		}
	}
	if desc.PosePollHz == 0 {
		return fmt.Errorf("stream: pose poll rate is zero")
	}
	if desc.IPD < 0 {
		return fmt.Errorf("stream: negative ipd %v", desc.IPD)
	}
	return nil
}

var _ remote.Service = (*Service)(nil)
