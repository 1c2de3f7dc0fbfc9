package mathutil

import (
	"math"

	"github.com/golang/geo/r3"
)

// quat is a unit quaternion (x, y, z, w).
type quat struct {
	v r3.Vector
	w float64
}

// eulerQuat builds the quaternion for BMD bone angles in radians, X then Y
// then Z, the same composition the game client uses.
func eulerQuat(a r3.Vector) quat {
	cx, sx := math.Cos(a.X/2), math.Sin(a.X/2)
	cy, sy := math.Cos(a.Y/2), math.Sin(a.Y/2)
	cz, sz := math.Cos(a.Z/2), math.Sin(a.Z/2)
	return quat{
		v: r3.Vector{
			X: sx*cy*cz - cx*sy*sz,
			Y: cx*sy*cz + sx*cy*sz,
			Z: cx*cy*sz - sx*sy*cz,
		},
		w: cx*cy*cz + sx*sy*sz,
	}
}

func (q quat) mat3() Mat3 {
	x, y, z, w := q.v.X, q.v.Y, q.v.Z, q.w
	return Mat3{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}
}

// EulerRotation returns the rotation matrix for BMD bone angles.
func EulerRotation(angles r3.Vector) Mat3 {
	return eulerQuat(angles).mat3()
}
