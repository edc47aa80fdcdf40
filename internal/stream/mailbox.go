package stream

import (
	"sync/atomic"
	"time"

	"github.com/junsooki/AirXR/internal/remote"
)

// mailbox holds the newest decoded frame. Publishing over an unconsumed
// frame drops the older one; frames are never queued.
type mailbox struct {
	slot chan *remote.FrameBundle

	published atomic.Uint64
	dropped   atomic.Uint64
	consumed  atomic.Uint64
}

func newMailbox() *mailbox {
	return &mailbox{slot: make(chan *remote.FrameBundle, 1)}
}

// publish must only be called from one goroutine.
func (m *mailbox) publish(b *remote.FrameBundle) {
	m.published.Add(1)
	for {
		select {
		case m.slot <- b:
			return
		default:
		}
		select {
		case <-m.slot:
			m.dropped.Add(1)
		default:
		}
	}
}

// take waits up to timeout for a frame. A zero timeout polls.
func (m *mailbox) take(timeout time.Duration) *remote.FrameBundle {
	if timeout <= 0 {
		select {
		case b := <-m.slot:
			m.consumed.Add(1)
			return b
		default:
			return nil
		}
	}

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case b := <-m.slot:
		m.consumed.Add(1)
		return b
	case <-t.C:
		return nil
	}
}

// reset discards a pending frame.
func (m *mailbox) reset() {
	select {
	case <-m.slot:
	default:
	}
}
