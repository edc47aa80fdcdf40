package pose

import "math"

// Vec3 is a 3-component vector.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

// Quat is a rotation quaternion.
type Quat struct {
	X, Y, Z, W float32
}

// Identity is the zero rotation.
var Identity = Quat{W: 1}

// Normalize returns q scaled to unit length. A zero quaternion becomes
// Identity.
func (q Quat) Normalize() Quat {
	n := math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W))
	if n == 0 {
		return Identity
	}
	inv := float32(1 / n)
	return Quat{q.X * inv, q.Y * inv, q.Z * inv, q.W * inv}
}

// Mul returns the Hamilton product q*o (apply o, then q).
func (q Quat) Mul(o Quat) Quat {
	return Quat{
		X: q.W*o.X + q.X*o.W + q.Y*o.Z - q.Z*o.Y,
		Y: q.W*o.Y - q.X*o.Z + q.Y*o.W + q.Z*o.X,
		Z: q.W*o.Z + q.X*o.Y - q.Y*o.X + q.Z*o.W,
		W: q.W*o.W - q.X*o.X - q.Y*o.Y - q.Z*o.Z,
	}
}

// Rotate applies q to v.
func (q Quat) Rotate(v Vec3) Vec3 {
	u := Vec3{q.X, q.Y, q.Z}
	t := u.Cross(v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(u.Cross(t))
}

// Euler returns pitch (X), yaw (Y) and roll (Z) in radians.
func (q Quat) Euler() Vec3 {
	x, y, z, w := float64(q.X), float64(q.Y), float64(q.Z), float64(q.W)

	pitch := math.Atan2(2*(y*z+w*x), w*w-x*x-y*y+z*z)
	s := -2 * (x*z - w*y)
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	yaw := math.Asin(s)
	roll := math.Atan2(2*(x*y+w*z), w*w+x*x-y*y-z*z)

	return Vec3{float32(pitch), float32(yaw), float32(roll)}
}

// FromAxisAngle builds a rotation of angle radians about a unit axis.
func FromAxisAngle(axis Vec3, angle float64) Quat {
	s := float32(math.Sin(angle / 2))
	return Quat{axis.X * s, axis.Y * s, axis.Z * s, float32(math.Cos(angle / 2))}
}

// FromEuler builds a rotation from pitch (X), yaw (Y) and roll (Z) in
// radians, applied roll first and yaw last.
func FromEuler(pitch, yaw, roll float64) Quat {
	qy := FromAxisAngle(Vec3{Y: 1}, yaw)
	qx := FromAxisAngle(Vec3{X: 1}, pitch)
	qz := FromAxisAngle(Vec3{Z: 1}, roll)
	return qy.Mul(qx).Mul(qz).Normalize()
}
