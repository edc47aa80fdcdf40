package wire

import (
	"encoding/json"
	"fmt"

	"github.com/junsooki/AirXR/internal/remote"
)

// Envelope types carried on the input and tracking channels.
const (
	TypeHello            = "hello"
	TypeAddController    = "add-controller"
	TypeRemoveController = "remove-controller"
	TypeEvents           = "events"
	TypePoses            = "poses"
	TypeTracking         = "tracking"
	TypeHaptic           = "haptic"
	TypeAudio            = "audio"
)

// Envelope is the JSON message on the input and tracking channels.
type Envelope struct {
	Type    string                    `json:"type"`
	Handle  remote.ControllerHandle   `json:"handle,omitempty"`
	Device  *remote.DeviceDesc        `json:"device,omitempty"`
	Desc    *remote.ControllerDesc    `json:"desc,omitempty"`
	Events  []remote.ControllerEvent  `json:"events,omitempty"`
	Handles []remote.ControllerHandle `json:"handles,omitempty"`
	Poses   []remote.DevicePose       `json:"poses,omitempty"`
	State   *remote.TrackingState     `json:"state,omitempty"`
	Haptic  *remote.HapticFeedback    `json:"haptic,omitempty"`
	Audio   []int16                   `json:"audio,omitempty"`
	TimeNS  int64                     `json:"timeNs,omitempty"`
}

// Marshal encodes e.
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal %s: %w", e.Type, err)
	}
	return data, nil
}

// ParseEnvelope decodes an envelope and checks it has a type.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("wire: unmarshal envelope: %w", err)
	}
	if e.Type == "" {
		return nil, fmt.Errorf("wire: envelope without type")
	}
	return &e, nil
}
