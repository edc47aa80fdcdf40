// Package connection tracks the lifecycle of a link to the streaming
// service.
package connection

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/junsooki/AirXR/internal/remote"
)

// State aliases the service client state.
type State = remote.ClientState

// Machine records connection state. State is written from the service's
// goroutine and read from the render loop, so it lives in one atomic word.
type Machine struct {
	state atomic.Int32

	mu             sync.Mutex
	onConnected    func()
	onDisconnected func()
}

// NewMachine returns a machine in ReadyToConnect.
func NewMachine() *Machine {
	return &Machine{}
}

// OnConnected registers a hook run when streaming starts.
func (m *Machine) OnConnected(fn func()) {
	m.mu.Lock()
	m.onConnected = fn
	m.mu.Unlock()
}

// OnDisconnected registers a hook run when streaming stops.
func (m *Machine) OnDisconnected(fn func()) {
	m.mu.Lock()
	m.onDisconnected = fn
	m.mu.Unlock()
}

// State returns the current state.
func (m *Machine) State() State {
	return State(m.state.Load())
}

func (m *Machine) IsReady() bool      { return m.State() == remote.ReadyToConnect }
func (m *Machine) IsConnected() bool  { return m.State() == remote.StreamingSessionInProgress }
func (m *Machine) IsConnecting() bool { return m.State() == remote.ConnectionAttemptInProgress }
func (m *Machine) Failed() bool       { return m.State() == remote.ConnectionAttemptFailed }

// Notify records a state reported by the service. Disconnected and Exiting
// settle back to ReadyToConnect.
func (m *Machine) Notify(state State, err error) {
	next := state
	switch state {
	case remote.Disconnected, remote.Exiting:
		next = remote.ReadyToConnect
	}

	prev := State(m.state.Swap(int32(next)))

	switch state {
	case remote.ConnectionAttemptFailed:
		if prev != remote.ConnectionAttemptFailed {
			slog.Error("connection: attempt failed", "error", err)
		}
	case remote.Disconnected:
		slog.Info("connection: disconnected", "error", err)
	case remote.Exiting:
		slog.Info("connection: exiting")
	default:
		slog.Debug("connection: state", "from", prev, "to", next)
	}

	m.fireEdge(prev, next)
}

// Connect moves to ConnectionAttemptInProgress and calls dial. It does
// nothing unless the machine is ready or, with retry set, failed.
func (m *Machine) Connect(retry bool, dial func() error) bool {
	from := int32(remote.ReadyToConnect)
	if retry && m.Failed() {
		from = int32(remote.ConnectionAttemptFailed)
	}
	if !m.state.CompareAndSwap(from, int32(remote.ConnectionAttemptInProgress)) {
		return false
	}

	if err := dial(); err != nil {
		slog.Error("connection: dial", "error", err)
		m.state.CompareAndSwap(int32(remote.ConnectionAttemptInProgress), int32(remote.ConnectionAttemptFailed))
		return false
	}
	return true
}

// Reset forces the machine back to ReadyToConnect, firing the disconnect
// hook if streaming.
func (m *Machine) Reset() {
	prev := State(m.state.Swap(int32(remote.ReadyToConnect)))
	m.fireEdge(prev, remote.ReadyToConnect)
}

func (m *Machine) fireEdge(prev, next State) {
	wasStreaming := prev == remote.StreamingSessionInProgress
	isStreaming := next == remote.StreamingSessionInProgress
	if wasStreaming == isStreaming {
		return
	}

	m.mu.Lock()
	hook := m.onDisconnected
	if isStreaming {
		hook = m.onConnected
	}
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
}
