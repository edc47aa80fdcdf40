package transport

import (
	"errors"
	"testing"
)

func TestReadyOnceAllChannelsOpen(t *testing.T) {
	tr := NewDataChannelTransport()
	ready, closed := 0, 0
	tr.OnReady(func() { ready++ })
	tr.OnClosed(func() { closed++ })

	tr.setOpen(LabelFrames, true)
	tr.setOpen(LabelInput, true)
	if tr.Ready() || ready != 0 {
		t.Fatal("ready before tracking channel opened")
	}
	tr.setOpen(LabelTracking, true)
	if !tr.Ready() || ready != 1 {
		t.Fatalf("ready = %v, calls = %d", tr.Ready(), ready)
	}

	tr.setOpen(LabelTracking, true)
	if ready != 1 {
		t.Fatalf("ready fired again: %d", ready)
	}

	tr.setOpen(LabelInput, false)
	if tr.Ready() || closed != 1 {
		t.Fatalf("ready = %v, closed = %d", tr.Ready(), closed)
	}
	tr.setOpen(LabelFrames, false)
	if closed != 1 {
		t.Fatalf("closed fired again: %d", closed)
	}
}

func TestDeliverRoutesByLabel(t *testing.T) {
	tr := NewDataChannelTransport()
	var frames, inputs, tracking int
	tr.OnFrame(func([]byte) { frames++ })
	tr.OnInput(func([]byte) { inputs++ })
	tr.OnTracking(func([]byte) { tracking++ })

	tr.deliver(LabelFrames, nil)
	tr.deliver(LabelInput, nil)
	tr.deliver(LabelInput, nil)
	tr.deliver(LabelTracking, nil)
	tr.deliver("other", nil)

	if frames != 1 || inputs != 2 || tracking != 1 {
		t.Fatalf("frames=%d inputs=%d tracking=%d", frames, inputs, tracking)
	}
}

func TestSendWithoutChannel(t *testing.T) {
	tr := NewDataChannelTransport()
	if err := tr.SendInput([]byte("x")); !errors.Is(err, ErrChannelNotOpen) {
		t.Fatalf("err = %v", err)
	}
}

func TestChannelInit(t *testing.T) {
	f := ChannelInit(LabelFrames)
	if *f.Ordered || f.MaxRetransmits == nil || *f.MaxRetransmits != 0 {
		t.Fatalf("frames init = %+v", f)
	}
	in := ChannelInit(LabelInput)
	if !*in.Ordered || in.MaxRetransmits != nil {
		t.Fatalf("input init = %+v", in)
	}
	tr := ChannelInit(LabelTracking)
	if *tr.Ordered {
		t.Fatal("tracking should be unordered")
	}
}
