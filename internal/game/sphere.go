package game

import (
	"math"
	"math/rand"
)

// upAlignmentLimit is the dot-product threshold (~25 degrees off world-up)
// beyond which world-up stops being a usable reference axis.
const upAlignmentLimit = 0.9

// RandomPointOnSphere returns a uniformly distributed point on a sphere of the
// given radius. The polar angle comes from acos(2u-1) so samples spread evenly
// by area instead of bunching at the poles. A nil rng uses the shared
// goroutine-safe source.
func RandomPointOnSphere(radius float64, rng *rand.Rand) Vec3 {
	u, v := rand.Float64(), rand.Float64()
	if rng != nil {
		u, v = rng.Float64(), rng.Float64()
	}

	theta := 2 * math.Pi * u
	phi := math.Acos(2*v - 1)

	sinPhi := math.Sin(phi)
	return Vec3{
		X: radius * sinPhi * math.Cos(theta),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Sin(theta),
	}
}

// SurfaceNormal returns the unit vector from the sphere center through p.
func SurfaceNormal(p Vec3) Vec3 {
	return normalize(p)
}

// Lift moves a surface point outward along its local normal by height.
func Lift(p Vec3, height float64) Vec3 {
	n := SurfaceNormal(p)
	return Vec3{X: p.X + n.X*height, Y: p.Y + n.Y*height, Z: p.Z + n.Z*height}
}

// SurfaceOrientation builds the quaternion that stands an entity upright on the
// sphere at the given surface point. World-up is the reference axis unless the
// surface normal is nearly parallel to it, in which case world-right takes over.
func SurfaceOrientation(p Vec3) Quat {
	normal := SurfaceNormal(p)

	ref := Vec3{X: 0, Y: 1, Z: 0}
	if math.Abs(dot(normal, ref)) > upAlignmentLimit {
		ref = Vec3{X: 1, Y: 0, Z: 0}
	}

	right := normalize(cross(ref, normal))
	forward := cross(right, normal)

	return matrixToQuat(right, normal, forward)
}

// matrixToQuat converts a rotation matrix given as three orthonormal column
// axes into a quaternion using the standard trace-based algorithm.
func matrixToQuat(x, y, z Vec3) Quat {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	trace := m00 + m11 + m22

	var q Quat
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q.W = 0.25 / s
		q.X = (m21 - m12) * s
		q.Y = (m02 - m20) * s
		q.Z = (m10 - m01) * s
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q.W = (m21 - m12) / s
		q.X = 0.25 * s
		q.Y = (m01 + m10) / s
		q.Z = (m02 + m20) / s
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q.W = (m02 - m20) / s
		q.X = (m01 + m10) / s
		q.Y = 0.25 * s
		q.Z = (m12 + m21) / s
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q.W = (m10 - m01) / s
		q.X = (m02 + m20) / s
		q.Y = (m12 + m21) / s
		q.Z = 0.25 * s
	}
	return q
}

func dot(a, b Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func cross(a, b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func normalize(v Vec3) Vec3 {
	length := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if length == 0 {
		return Vec3{}
	}
	return Vec3{X: v.X / length, Y: v.Y / length, Z: v.Z / length}
}
