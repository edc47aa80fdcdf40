package peer

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pion/webrtc/v4"

	"github.com/junsooki/AirXR/internal/transport"
)

// AnswerSignaler carries the answering side's signaling messages to one
// client.
type AnswerSignaler interface {
	SendAnswer(payload json.RawMessage) error
	SendICECandidate(payload json.RawMessage) error
}

// Server manages the render server's side of one client connection. The
// client's data channels arrive through OnDataChannel.
type Server struct {
	pc        *webrtc.PeerConnection
	sig       AnswerSignaler
	transport *transport.DataChannelTransport
	remote    candidates
}

// NewServer creates a Server peer manager answering through sig.
func NewServer(cfg Config, sig AnswerSignaler, onState StateFunc) (*Server, error) {
	pc, err := NewPeerConnection(cfg, onState)
	if err != nil {
		return nil, err
	}

	s := &Server{
		pc:        pc,
		sig:       sig,
		transport: transport.NewDataChannelTransport(),
	}

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		slog.Info("peer: data channel received", "label", dc.Label())
		if err := s.transport.SetChannel(dc); err != nil {
			slog.Warn("peer: rejecting data channel", "error", err)
			dc.Close()
		}
	})

	pc.OnICECandidate(func(ice *webrtc.ICECandidate) {
		data, ok := localCandidate(ice)
		if !ok {
			return
		}
		if err := sig.SendICECandidate(data); err != nil {
			slog.Warn("peer: send ICE candidate", "error", err)
		}
	})

	return s, nil
}

// Transport returns the DataChannelTransport for sending frames and
// receiving input.
func (s *Server) Transport() *transport.DataChannelTransport {
	return s.transport
}

// HandleOffer answers an incoming offer.
func (s *Server) HandleOffer(payload json.RawMessage) error {
	var offer webrtc.SessionDescription
	if err := json.Unmarshal(payload, &offer); err != nil {
		return fmt.Errorf("peer: decode offer: %w", err)
	}
	if err := s.pc.SetRemoteDescription(offer); err != nil {
		return fmt.Errorf("peer: set remote description: %w", err)
	}
	if err := s.remote.flush(s.pc); err != nil {
		return err
	}

	answer, err := s.pc.CreateAnswer(nil)
	if err != nil {
		return fmt.Errorf("peer: create answer: %w", err)
	}
	if err := s.pc.SetLocalDescription(answer); err != nil {
		return fmt.Errorf("peer: set local description: %w", err)
	}
	answerJSON, err := json.Marshal(answer)
	if err != nil {
		return err
	}
	return s.sig.SendAnswer(answerJSON)
}

// HandleICECandidate adds a remote ICE candidate.
func (s *Server) HandleICECandidate(payload json.RawMessage) error {
	return s.remote.add(s.pc, payload)
}

// Close shuts down the peer connection.
func (s *Server) Close() {
	if s.pc != nil {
		s.pc.Close()
	}
}
