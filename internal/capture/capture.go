// Package capture produces the stereo frames a render server streams.
package capture

import (
	"image"
	"time"

	"github.com/junsooki/AirXR/internal/remote"
)

// Frame represents a rendered side-by-side stereo frame.
type Frame struct {
	Image     *image.RGBA
	Width     int // per eye
	Height    int
	PoseID    uint64
	Head      remote.DevicePose
	Timestamp time.Time
}

// HeadSource returns the latest head pose and pose id reported by the client.
type HeadSource func() (remote.DevicePose, uint64)

// Capturer produces frames at a fixed rate.
type Capturer interface {
	Start() error
	Stop()
	Frames() <-chan *Frame
}
