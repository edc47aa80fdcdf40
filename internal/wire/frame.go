// Package wire defines the messages exchanged over the streaming data
// channels.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/junsooki/AirXR/internal/remote"
)

// FrameMagic starts every frame message.
var FrameMagic = [4]byte{'A', 'X', 'R', 'F'}

const (
	FrameVersion = 1

	// FrameHeaderSize is the fixed header length before the JPEG payload.
	FrameHeaderSize = 4 + 1 + 1 + 2 + 8 + 4 + 4 + 7*4 + 4
)

var (
	ErrShortFrame  = errors.New("wire: short frame")
	ErrFrameMagic  = errors.New("wire: bad frame magic")
	ErrFrameLength = errors.New("wire: frame length mismatch")
)

// FrameHeader describes a side-by-side stereo JPEG.
type FrameHeader struct {
	Version uint8
	Flags   uint8
	PoseID  uint64
	Width   uint32 // per eye
	Height  uint32

	Position [3]float32
	Rotation remote.Quaternion
}

// EncodeFrame appends the header and payload to dst.
func EncodeFrame(dst []byte, h FrameHeader, jpeg []byte) []byte {
	var buf [FrameHeaderSize]byte
	le := binary.LittleEndian

	copy(buf[0:4], FrameMagic[:])
	buf[4] = FrameVersion
	buf[5] = h.Flags
	le.PutUint64(buf[8:16], h.PoseID)
	le.PutUint32(buf[16:20], h.Width)
	le.PutUint32(buf[20:24], h.Height)

	off := 24
	for _, f := range [...]float32{
		h.Position[0], h.Position[1], h.Position[2],
		h.Rotation.W, h.Rotation.X, h.Rotation.Y, h.Rotation.Z,
	} {
		le.PutUint32(buf[off:off+4], math.Float32bits(f))
		off += 4
	}
	le.PutUint32(buf[off:off+4], uint32(len(jpeg)))

	dst = append(dst, buf[:]...)
	return append(dst, jpeg...)
}

// DecodeFrame splits a frame message into its header and JPEG payload. The
// payload aliases data.
func DecodeFrame(data []byte) (FrameHeader, []byte, error) {
	var h FrameHeader
	if len(data) < FrameHeaderSize {
		return h, nil, ErrShortFrame
	}
	if [4]byte(data[0:4]) != FrameMagic {
		return h, nil, ErrFrameMagic
	}
	le := binary.LittleEndian

	h.Version = data[4]
	if h.Version != FrameVersion {
		return h, nil, fmt.Errorf("wire: unsupported frame version %d", h.Version)
	}
	h.Flags = data[5]
	h.PoseID = le.Uint64(data[8:16])
	h.Width = le.Uint32(data[16:20])
	h.Height = le.Uint32(data[20:24])

	var f [7]float32
	off := 24
	for i := range f {
		f[i] = math.Float32frombits(le.Uint32(data[off : off+4]))
		off += 4
	}
	h.Position = [3]float32{f[0], f[1], f[2]}
	h.Rotation = remote.Quaternion{W: f[3], X: f[4], Y: f[5], Z: f[6]}

	n := le.Uint32(data[off : off+4])
	payload := data[FrameHeaderSize:]
	if uint32(len(payload)) != n {
		return h, nil, ErrFrameLength
	}
	return h, payload, nil
}

// HeadPose returns the header pose as a protocol device pose.
func (h FrameHeader) HeadPose() remote.DevicePose {
	return remote.DevicePose{
		Position:        remote.Vector3(h.Position),
		Rotation:        h.Rotation,
		PoseIsValid:     true,
		DeviceConnected: true,
		TrackingResult:  remote.TrackingRunningOK,
	}
}
