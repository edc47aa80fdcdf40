package remote

import "image"

// Vector3 is a protocol vector.
type Vector3 [3]float32

// Quaternion is a protocol orientation in w, x, y, z order.
type Quaternion struct {
	W float32 `json:"w"`
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}

// TrackingResult mirrors the device tracking quality.
type TrackingResult int

const (
	TrackingUninitialized TrackingResult = iota
	TrackingCalibrating
	TrackingRunningOK
	TrackingOutOfRange
)

// DevicePose is the fixed pose structure carried by the protocol.
type DevicePose struct {
	Position        Vector3        `json:"position"`
	Rotation        Quaternion     `json:"rotation"`
	Velocity        Vector3        `json:"velocity"`
	AngularVelocity Vector3        `json:"angularVelocity"`
	PoseIsValid     bool           `json:"poseIsValid"`
	DeviceConnected bool           `json:"deviceIsConnected"`
	TrackingResult  TrackingResult `json:"trackingResult"`
}

// HMD state flags.
const (
	HMDHasIPD    uint32 = 0x2
	HMDHasPoseID uint32 = 0x8
)

// HMDState is the headset part of a tracking update.
type HMDState struct {
	Pose   DevicePose `json:"pose"`
	Flags  uint32     `json:"flags"`
	IPD    float32    `json:"ipd"`
	PoseID uint64     `json:"poseId"`
}

// TrackingState is filled by Callbacks.OnTrackingStateRequest.
type TrackingState struct {
	HMD            HMDState `json:"hmd"`
	PoseTimeOffset float32  `json:"poseTimeOffset"`
}

// ControllerHandle identifies a registered controller.
type ControllerHandle uint32

// InputValueType is the type of a controller input slot.
type InputValueType int

const (
	InputBoolean InputValueType = iota
	InputFloat32
)

// ControllerDesc registers a controller with the service.
type ControllerDesc struct {
	ID              uint64           `json:"id"`
	Role            string           `json:"role"`
	ControllerName  string           `json:"controllerName"`
	InputPaths      []string         `json:"inputPaths"`
	InputValueTypes []InputValueType `json:"inputValueTypes"`
}

// InputValue is a single input value, boolean or float.
type InputValue struct {
	Type  InputValueType `json:"type"`
	Bool  bool           `json:"bool,omitempty"`
	Float float32        `json:"float,omitempty"`
}

// ControllerEvent reports a value change on one input slot.
type ControllerEvent struct {
	ClientTimeNS uint64     `json:"clientTimeNs"`
	InputIndex   uint16     `json:"inputIndex"`
	Value        InputValue `json:"value"`
}

// FrameBundle is a latched stereo frame.
type FrameBundle struct {
	// Image holds both eyes side by side, left eye first.
	Image *image.RGBA

	HMDPose DevicePose
	PoseID  uint64
	Width   uint32
	Height  uint32
	Mask    uint32
}

// EyeBounds returns the sub-rectangle of eye i within the bundle image.
func (b *FrameBundle) EyeBounds(eye int) image.Rectangle {
	r := b.Image.Bounds()
	half := r.Dx() / 2
	if eye == 0 {
		return image.Rect(r.Min.X, r.Min.Y, r.Min.X+half, r.Max.Y)
	}
	return image.Rect(r.Min.X+half, r.Min.Y, r.Max.X, r.Max.Y)
}
