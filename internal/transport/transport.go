package transport

// Data channel labels.
const (
	LabelFrames   = "frames"
	LabelInput    = "input"
	LabelTracking = "tracking"
)

// FrameSender sends encoded stereo frames.
type FrameSender interface {
	SendFrame(data []byte) error
}

// FrameReceiver receives encoded stereo frames.
type FrameReceiver interface {
	OnFrame(callback func(data []byte))
}

// InputSender sends controller registration and event envelopes.
type InputSender interface {
	SendInput(data []byte) error
}

// InputReceiver receives controller registration and event envelopes.
type InputReceiver interface {
	OnInput(callback func(data []byte))
}

// TrackingSender sends head and controller tracking samples.
type TrackingSender interface {
	SendTracking(data []byte) error
}

// TrackingReceiver receives head and controller tracking samples.
type TrackingReceiver interface {
	OnTracking(callback func(data []byte))
}
