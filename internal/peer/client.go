package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/AirXR/internal/transport"
)

// OfferSignaler carries the offering side's signaling messages.
type OfferSignaler interface {
	SendOffer(target string, payload json.RawMessage) error
	SendICECandidate(target string, payload json.RawMessage) error
}

// Client manages the streaming client's side of the WebRTC connection. It
// creates the data channels and sends the offer.
type Client struct {
	pc        *webrtc.PeerConnection
	sig       OfferSignaler
	transport *transport.DataChannelTransport
	target    string
	remote    candidates
}

// NewClient creates a Client peer manager offering to target.
func NewClient(cfg Config, sig OfferSignaler, target string, onState StateFunc) (*Client, error) {
	pc, err := NewPeerConnection(cfg, onState)
	if err != nil {
		return nil, err
	}

	c := &Client{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(),
		target:    target,
	}

	for _, label := range transport.Labels() {
		dc, err := pc.CreateDataChannel(label, transport.ChannelInit(label))
		if err != nil {
			pc.Close()
			return nil, fmt.Errorf("peer: create %s channel: %w", label, err)
		}
		if err := c.transport.SetChannel(dc); err != nil {
			pc.Close()
			return nil, err
		}
	}

	pc.OnICECandidate(func(ice *webrtc.ICECandidate) {
		data, ok := localCandidate(ice)
		if !ok {
			return
		}
		if err := sig.SendICECandidate(target, data); err != nil {
			slog.Warn("peer: send ICE candidate", "error", err)
		}
	})

	return c, nil
}

// Transport returns the DataChannelTransport.
func (c *Client) Transport() *transport.DataChannelTransport {
	return c.transport
}

// Connect initiates the WebRTC connection by creating and sending an offer.
func (c *Client) Connect() error {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("peer: create offer: %w", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("peer: set local description: %w", err)
	}
	offerJSON, err := json.Marshal(offer)
	if err != nil {
		return err
	}
	return c.sig.SendOffer(c.target, offerJSON)
}

// HandleAnswer processes an incoming SDP answer.
func (c *Client) HandleAnswer(payload json.RawMessage) error {
	var answer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &answer); err != nil {
		return fmt.Errorf("peer: decode answer: %w", err)
	}
	if err := c.pc.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("peer: set remote description: %w", err)
	}
	return c.remote.flush(c.pc)
}

// HandleICECandidate adds a remote ICE candidate.
func (c *Client) HandleICECandidate(payload json.RawMessage) error {
	return c.remote.add(c.pc, payload)
}

// Close shuts down the peer connection.
func (c *Client) Close() {
	if c.pc != nil {
		c.pc.Close()
	}
}
