// Package pose converts tracked poses between the XR runtime and the
// streaming protocol.
package pose

import (
	"math"

	"github.com/junsooki/AirXR/internal/remote"
	"github.com/junsooki/AirXR/internal/xr"
)

// Pose is a tracked device pose.
type Pose struct {
	Position        Vec3
	Rotation        Quat
	Euler           Vec3
	Velocity        Vec3
	AngularVelocity Vec3
	Valid           bool
}

// New returns a valid pose at position with rotation normalised.
func New(position Vec3, rotation Quat) Pose {
	r := rotation.Normalize()
	return Pose{Position: position, Rotation: r, Euler: r.Euler(), Valid: true}
}

// Compose applies offset in the local frame of p.
func (p Pose) Compose(offset Pose) Pose {
	out := p
	out.Position = p.Position.Add(p.Rotation.Rotate(offset.Position))
	out.Rotation = p.Rotation.Mul(offset.Rotation).Normalize()
	out.Euler = out.Rotation.Euler()
	return out
}

// FromRuntime converts a located runtime space.
func FromRuntime(loc xr.SpaceLocation) Pose {
	o := loc.Pose.Orientation
	pp := loc.Pose.Position

	p := Pose{
		Position: Vec3{pp.X, pp.Y, pp.Z},
		Rotation: Quat{o.X, o.Y, o.Z, o.W}.Normalize(),
		Valid:    loc.Located(),
	}
	p.Euler = p.Rotation.Euler()

	if v := loc.Velocity; v != nil {
		if v.Flags&xr.LinearVelocityValid != 0 {
			p.Velocity = Vec3{v.LinearVelocity.X, v.LinearVelocity.Y, v.LinearVelocity.Z}
		}
		if v.Flags&xr.AngularVelocityValid != 0 {
			p.AngularVelocity = Vec3{v.AngularVelocity.X, v.AngularVelocity.Y, v.AngularVelocity.Z}
		}
	}
	return p
}

// ToRuntime returns the runtime pose used for layer submission.
func (p Pose) ToRuntime() xr.Posef {
	return xr.Posef{
		Orientation: xr.Quaternion{X: p.Rotation.X, Y: p.Rotation.Y, Z: p.Rotation.Z, W: p.Rotation.W},
		Position:    xr.Vector3{X: p.Position.X, Y: p.Position.Y, Z: p.Position.Z},
	}
}

// ToProtocol converts p into a protocol device pose. The device is always
// reported as connected.
func ToProtocol(p Pose) remote.DevicePose {
	return remote.DevicePose{
		Position:        remote.Vector3{p.Position.X, p.Position.Y, p.Position.Z},
		Rotation:        remote.Quaternion{W: p.Rotation.W, X: p.Rotation.X, Y: p.Rotation.Y, Z: p.Rotation.Z},
		Velocity:        remote.Vector3{p.Velocity.X, p.Velocity.Y, p.Velocity.Z},
		AngularVelocity: remote.Vector3{p.AngularVelocity.X, p.AngularVelocity.Y, p.AngularVelocity.Z},
		PoseIsValid:     p.Valid,
		DeviceConnected: true,
		TrackingResult:  remote.TrackingRunningOK,
	}
}

// FromProtocol converts a protocol device pose.
func FromProtocol(d remote.DevicePose) Pose {
	p := Pose{
		Position:        Vec3{d.Position[0], d.Position[1], d.Position[2]},
		Rotation:        Quat{d.Rotation.X, d.Rotation.Y, d.Rotation.Z, d.Rotation.W}.Normalize(),
		Velocity:        Vec3{d.Velocity[0], d.Velocity[1], d.Velocity[2]},
		AngularVelocity: Vec3{d.AngularVelocity[0], d.AngularVelocity[1], d.AngularVelocity[2]},
		Valid:           d.PoseIsValid,
	}
	p.Euler = p.Rotation.Euler()
	return p
}

// ComputeIPD is the distance between the eye positions rounded to 0.1 mm.
func ComputeIPD(left, right Vec3) float32 {
	d := float64(right.Sub(left).Length())
	return float32(math.Round(d*10000) / 10000)
}

// EyeFromHead offsets head by half the IPD along its local X axis,
// negative for the left eye.
func EyeFromHead(head Pose, ipd float32, left bool) Pose {
	half := ipd / 2
	if left {
		half = -half
	}
	eye := head
	eye.Position = head.Position.Add(head.Rotation.Rotate(Vec3{X: half}))
	return eye
}
