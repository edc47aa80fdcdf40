package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"
)

// ICEServers is the default ICE server configuration.
var ICEServers = []webrtc.ICEServer{
	{URLs: []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"}},
}

// Config configures new peer connections.
type Config struct {
	ICEServers []webrtc.ICEServer
}

// DefaultConfig uses the public STUN servers.
func DefaultConfig() Config {
	return Config{ICEServers: ICEServers}
}

// StateFunc observes peer connection state changes.
type StateFunc func(webrtc.PeerConnectionState)

// NewPeerConnection creates a configured PeerConnection.
func NewPeerConnection(cfg Config, onState StateFunc) (*webrtc.PeerConnection, error) {
	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: cfg.ICEServers,
	})
	if err != nil {
		return nil, fmt.Errorf("peer: new connection: %w", err)
	}
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		slog.Info("peer: connection state", "state", state.String())
		if onState != nil {
			onState(state)
		}
	})
	return pc, nil
}

// candidates queues remote ICE candidates that arrive before the remote
// description is set.
type candidates struct {
	mu        sync.Mutex
	remoteSet bool
	pending   []webrtc.ICECandidateInit
}

func (c *candidates) add(pc *webrtc.PeerConnection, payload json.RawMessage) error {
	var candidate webrtc.ICECandidateInit
	if err := json.Unmarshal(payload, &candidate); err != nil {
		return fmt.Errorf("peer: decode candidate: %w", err)
	}
	c.mu.Lock()
	if !c.remoteSet {
		c.pending = append(c.pending, candidate)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()
	return pc.AddICECandidate(candidate)
}

func (c *candidates) flush(pc *webrtc.PeerConnection) error {
	c.mu.Lock()
	c.remoteSet = true
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, candidate := range pending {
		if err := pc.AddICECandidate(candidate); err != nil {
			return fmt.Errorf("peer: add candidate: %w", err)
		}
	}
	return nil
}

func localCandidate(c *webrtc.ICECandidate) (json.RawMessage, bool) {
	if c == nil {
		return nil, false
	}
	data, err := json.Marshal(c.ToJSON())
	if err != nil {
		slog.Warn("peer: marshal ICE candidate", "error", err)
		return nil, false
	}
	return data, true
}
