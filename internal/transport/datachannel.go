package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pion/webrtc/v4"
)

var ErrChannelNotOpen = errors.New("transport: data channel not open")

// DataChannelTransport carries frames, input and tracking over three WebRTC
// DataChannels. It becomes ready once all three are open.
type DataChannelTransport struct {
	mu       sync.Mutex
	channels map[string]*webrtc.DataChannel
	open     map[string]bool
	ready    bool

	onFrame    func(data []byte)
	onInput    func(data []byte)
	onTracking func(data []byte)
	onReady    func()
	onClosed   func()
}

// NewDataChannelTransport returns a transport with no channels attached.
func NewDataChannelTransport() *DataChannelTransport {
	return &DataChannelTransport{
		channels: make(map[string]*webrtc.DataChannel),
		open:     make(map[string]bool),
	}
}

// ChannelInit returns the delivery options for a channel label. Frames are
// unordered without retransmits; input is reliable and ordered; tracking is
// unordered.
func ChannelInit(label string) *webrtc.DataChannelInit {
	ordered := label == LabelInput
	init := &webrtc.DataChannelInit{Ordered: &ordered}
	if label == LabelFrames {
		maxRetransmits := uint16(0)
		init.MaxRetransmits = &maxRetransmits
	}
	return init
}

// Labels lists the channels a transport needs before it is ready.
func Labels() []string {
	return []string{LabelFrames, LabelInput, LabelTracking}
}

// SetChannel attaches a channel by its label. Unknown labels are rejected.
func (t *DataChannelTransport) SetChannel(dc *webrtc.DataChannel) error {
	label := dc.Label()
	switch label {
	case LabelFrames, LabelInput, LabelTracking:
	default:
		return fmt.Errorf("transport: unknown data channel %q", label)
	}

	t.mu.Lock()
	t.channels[label] = dc
	t.mu.Unlock()

	dc.OnOpen(func() {
		slog.Debug("transport: channel open", "label", label)
		t.setOpen(label, true)
	})
	dc.OnClose(func() {
		slog.Debug("transport: channel closed", "label", label)
		t.setOpen(label, false)
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		t.deliver(label, msg.Data)
	})
	if dc.ReadyState() == webrtc.DataChannelStateOpen {
		t.setOpen(label, true)
	}
	return nil
}

// Ready reports whether all channels are open.
func (t *DataChannelTransport) Ready() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ready
}

func (t *DataChannelTransport) setOpen(label string, open bool) {
	t.mu.Lock()
	t.open[label] = open
	all := true
	for _, l := range Labels() {
		all = all && t.open[l]
	}
	var cb func()
	switch {
	case all && !t.ready:
		t.ready = true
		cb = t.onReady
	case !all && t.ready:
		t.ready = false
		cb = t.onClosed
	}
	t.mu.Unlock()

	if cb != nil {
		cb()
	}
}

func (t *DataChannelTransport) deliver(label string, data []byte) {
	t.mu.Lock()
	var cb func([]byte)
	switch label {
	case LabelFrames:
		cb = t.onFrame
	case LabelInput:
		cb = t.onInput
	case LabelTracking:
		cb = t.onTracking
	}
	t.mu.Unlock()

	if cb != nil {
		cb(data)
	}
}

func (t *DataChannelTransport) send(label string, data []byte) error {
	t.mu.Lock()
	dc := t.channels[label]
	open := t.open[label]
	t.mu.Unlock()

	if dc == nil || !open {
		return fmt.Errorf("%w: %s", ErrChannelNotOpen, label)
	}
	return dc.Send(data)
}

func (t *DataChannelTransport) SendFrame(data []byte) error    { return t.send(LabelFrames, data) }
func (t *DataChannelTransport) SendInput(data []byte) error    { return t.send(LabelInput, data) }
func (t *DataChannelTransport) SendTracking(data []byte) error { return t.send(LabelTracking, data) }

func (t *DataChannelTransport) OnFrame(cb func(data []byte)) {
	t.mu.Lock()
	t.onFrame = cb
	t.mu.Unlock()
}

func (t *DataChannelTransport) OnInput(cb func(data []byte)) {
	t.mu.Lock()
	t.onInput = cb
	t.mu.Unlock()
}

func (t *DataChannelTransport) OnTracking(cb func(data []byte)) {
	t.mu.Lock()
	t.onTracking = cb
	t.mu.Unlock()
}

// OnReady is called each time the last channel opens.
func (t *DataChannelTransport) OnReady(cb func()) {
	t.mu.Lock()
	t.onReady = cb
	t.mu.Unlock()
}

// OnClosed is called when a channel closes after the transport was ready.
func (t *DataChannelTransport) OnClosed(cb func()) {
	t.mu.Lock()
	t.onClosed = cb
	t.mu.Unlock()
}

var (
	_ FrameSender      = (*DataChannelTransport)(nil)
	_ FrameReceiver    = (*DataChannelTransport)(nil)
	_ InputSender      = (*DataChannelTransport)(nil)
	_ InputReceiver    = (*DataChannelTransport)(nil)
	_ TrackingSender   = (*DataChannelTransport)(nil)
	_ TrackingReceiver = (*DataChannelTransport)(nil)
)
