package signaling

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ServerHandler receives signaling traffic from connected clients. Callbacks
// for one peer run on that peer's read goroutine.
type ServerHandler struct {
	OnConnect      func(p *Peer)
	OnOffer        func(p *Peer, payload json.RawMessage)
	OnICECandidate func(p *Peer, payload json.RawMessage)
	OnDisconnect   func(p *Peer)
}

// Server accepts signaling WebSocket connections from streaming clients.
type Server struct {
	id       string
	handler  ServerHandler
	upgrader websocket.Upgrader

	mu    sync.Mutex
	peers map[string]*Peer
}

// NewServer creates a signaling server announcing id to clients.
func NewServer(id string, handler ServerHandler) *Server {
	return &Server{
		id:      id,
		handler: handler,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		peers: make(map[string]*Peer),
	}
}

// Peers returns the number of registered clients.
func (s *Server) Peers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

// Peer is one registered signaling client as seen by the server.
type Peer struct {
	ID string

	serverID string
	conn     *websocket.Conn
	mu       sync.Mutex
}

// SendAnswer sends an SDP answer to the client.
func (p *Peer) SendAnswer(payload json.RawMessage) error {
	return p.send(Message{Type: TypeAnswer, From: p.serverID, Target: p.ID, Payload: payload})
}

// SendICECandidate sends an ICE candidate to the client.
func (p *Peer) SendICECandidate(payload json.RawMessage) error {
	return p.send(Message{Type: TypeICECandidate, From: p.serverID, Target: p.ID, Payload: payload})
}

// SendError reports a problem to the client.
func (p *Peer) SendError(msg string) error {
	return p.send(Message{Type: TypeError, Msg: msg})
}

// Close ends the client's signaling connection.
func (p *Peer) Close() {
	_ = p.send(Message{Type: TypeBye})
	p.conn.Close()
}

func (p *Peer) send(msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return p.conn.WriteJSON(msg)
}

// ServeHTTP upgrades the request and runs the client's read loop.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("signaling: upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))

	var reg Message
	if err := conn.ReadJSON(&reg); err != nil {
		slog.Warn("signaling: read register failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	p := &Peer{ID: reg.ID, serverID: s.id, conn: conn}
	if reg.Type != TypeRegister || reg.ID == "" {
		_ = p.SendError("expected register with id")
		return
	}

	s.mu.Lock()
	if _, dup := s.peers[p.ID]; dup {
		s.mu.Unlock()
		_ = p.SendError("id already registered")
		return
	}
	s.peers[p.ID] = p
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.peers, p.ID)
		s.mu.Unlock()
		if s.handler.OnDisconnect != nil {
			s.handler.OnDisconnect(p)
		}
		slog.Info("signaling: client left", "id", p.ID)
	}()

	if err := p.send(Message{Type: TypeRegistered, ID: p.ID, ServerID: s.id}); err != nil {
		return
	}
	slog.Info("signaling: client registered", "id", p.ID, "role", reg.Role, "remote", r.RemoteAddr)
	if s.handler.OnConnect != nil {
		s.handler.OnConnect(p)
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			var ce *websocket.CloseError
			if !errors.As(err, &ce) {
				slog.Debug("signaling: read ended", "id", p.ID, "error", err)
			}
			return
		}

		switch msg.Type {
		case TypeOffer:
			if s.handler.OnOffer != nil {
				s.handler.OnOffer(p, msg.Payload)
			}
		case TypeICECandidate:
			if s.handler.OnICECandidate != nil {
				s.handler.OnICECandidate(p, msg.Payload)
			}
		case TypePing:
			_ = p.send(Message{Type: TypePong, Timestamp: msg.Timestamp})
		case TypeBye:
			return
		default:
			_ = p.SendError("unknown message type " + msg.Type)
		}
	}
}
