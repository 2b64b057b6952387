package geom

import (
	"fmt"
	"math"
)

// Vec2 is a point or size on the ground plane used by the spatial grid.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) String() string       { return fmt.Sprintf("{%.2f, %.2f}", v.X, v.Y) }

// Vec3 is a world-space position or direction. Y is up; the ground plane is X/Z.
type Vec3 struct {
	X float64
	Y float64
	Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64         { return math.Sqrt(v.Dot(v)) }

// Normalize returns the unit vector in v's direction, or the zero vector.
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// XZ projects v onto the ground plane.
func (v Vec3) XZ() Vec2 { return Vec2{X: v.X, Y: v.Z} }

func (v Vec3) String() string { return fmt.Sprintf("{%.2f, %.2f, %.2f}", v.X, v.Y, v.Z) }

// Quat is a rotation quaternion.
type Quat struct {
	X float64
	Y float64
	Z float64
	W float64
}

// Identity is the no-rotation quaternion.
func Identity() Quat { return Quat{W: 1} }

// FromAxisAngle builds a rotation of angle radians around the given axis.
func FromAxisAngle(axis Vec3, angle float64) Quat {
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return Quat{X: a.X * s, Y: a.Y * s, Z: a.Z * s, W: math.Cos(angle / 2)}
}

// Mul composes q then o.
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
	// t = 2 * cross(q.xyz, v); v' = v + w*t + cross(q.xyz, t)
	u := Vec3{q.X, q.Y, q.Z}
	t := cross(u, v).Scale(2)
	return v.Add(t.Scale(q.W)).Add(cross(u, t))
}

// Forward is +Z rotated by q.
func (q Quat) Forward() Vec3 {
	if q == (Quat{}) {
		q = Identity()
	}
	return q.Rotate(Vec3{Z: 1}).Normalize()
}

func cross(a, b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// Sat clamps x into [0, 1].
func Sat(x float64) float64 { return Clamp(x, 0, 1) }

// Clamp clamps x into [a, b].
func Clamp(x, a, b float64) float64 { return math.Min(math.Max(x, a), b) }

// InRange reports whether a <= x <= b.
func InRange(x, a, b float64) bool { return x >= a && x <= b }

// Lerp interpolates between a and b by t.
func Lerp(t, a, b float64) float64 { return t*(b-a) + a }
