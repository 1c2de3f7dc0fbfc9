// Package mathutil has the small bits of linear algebra the bone pose needs.
package mathutil

import "github.com/golang/geo/r3"

// Mat3 is a row-major 3×3 matrix.
type Mat3 [9]float64

func Mat3Identity() Mat3 {
	return Mat3{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// MulVector returns M × v.
func (m Mat3) MulVector(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// Mul returns M × n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = m[r*3]*n[c] + m[r*3+1]*n[3+c] + m[r*3+2]*n[6+c]
		}
	}
	return out
}
