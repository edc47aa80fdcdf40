package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 25 * time.Second
	pongWait     = 2 * pingInterval
)

// ErrNotConnected is returned when sending before Connect or after Close.
var ErrNotConnected = errors.New("signaling: not connected")

// Handler callbacks for incoming signaling messages.
type Handler struct {
	OnRegistered   func(serverID string)
	OnAnswer       func(from string, payload json.RawMessage)
	OnICECandidate func(from string, payload json.RawMessage)
	OnError        func(msg string)
	OnClosed       func(err error)
}

// Client is a WebSocket signaling client.
type Client struct {
	url      string
	clientID string
	handler  Handler

	conn     *websocket.Conn
	mu       sync.Mutex
	done     chan struct{}
	closed   bool
	serverID string
	lastPong time.Time
}

// NewClient creates a signaling client.
func NewClient(url, clientID string, handler Handler) *Client {
	return &Client{
		url:      url,
		clientID: clientID,
		handler:  handler,
		done:     make(chan struct{}),
	}
}

// ID returns the client's registration id.
func (c *Client) ID() string { return c.clientID }

// ServerID returns the id announced by the server, empty until registered.
func (c *Client) ServerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverID
}

// Connect dials the signaling server and starts reading messages.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		NetDialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("signaling dial: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.lastPong = time.Now()
	c.mu.Unlock()

	err = c.send(Message{
		Type: TypeRegister,
		ID:   c.clientID,
		Role: RoleClient,
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("signaling register: %w", err)
	}

	go c.readLoop()
	go c.pingLoop()
	return nil
}

// Close says goodbye and shuts down the connection.
func (c *Client) Close() {
	_ = c.send(Message{Type: TypeBye})
	c.shutdown()
}

func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.done)
	if c.conn != nil {
		c.conn.Close()
	}
}

// SendOffer sends an SDP offer to target.
func (c *Client) SendOffer(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeOffer, From: c.clientID, Target: target, Payload: payload})
}

// SendICECandidate sends an ICE candidate to target.
func (c *Client) SendICECandidate(target string, payload json.RawMessage) error {
	return c.send(Message{Type: TypeICECandidate, From: c.clientID, Target: target, Payload: payload})
}

func (c *Client) send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.closed {
		return ErrNotConnected
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(msg)
}

func (c *Client) readLoop() {
	var readErr error
	defer func() {
		c.shutdown()
		if c.handler.OnClosed != nil {
			c.handler.OnClosed(readErr)
		}
	}()
	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			select {
			case <-c.done:
			default:
				slog.Warn("signaling: read failed", "error", err)
				readErr = err
			}
			return
		}
		if msg.Type == TypeBye {
			return
		}
		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg Message) {
	switch msg.Type {
	case TypeRegistered:
		c.mu.Lock()
		c.serverID = msg.ServerID
		c.mu.Unlock()
		if c.handler.OnRegistered != nil {
			c.handler.OnRegistered(msg.ServerID)
		}
	case TypeAnswer:
		if c.handler.OnAnswer != nil {
			c.handler.OnAnswer(msg.From, msg.Payload)
		}
	case TypeICECandidate:
		if c.handler.OnICECandidate != nil {
			c.handler.OnICECandidate(msg.From, msg.Payload)
		}
	case TypeError:
		if c.handler.OnError != nil {
			c.handler.OnError(msg.Msg)
		}
	case TypePong:
		c.mu.Lock()
		c.lastPong = time.Now()
		c.mu.Unlock()
	default:
		slog.Debug("signaling: ignoring message", "type", msg.Type)
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.Lock()
			stale := time.Since(c.lastPong) > pongWait
			c.mu.Unlock()
			if stale {
				slog.Warn("signaling: pong timeout")
				c.shutdown()
				return
			}
			_ = c.send(Message{Type: TypePing, Timestamp: time.Now().UnixMilli()})
		}
	}
}
