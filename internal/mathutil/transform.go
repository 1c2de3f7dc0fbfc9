package mathutil

import "github.com/golang/geo/r3"

const identityEps = 1e-8

// Transform is a rigid bone transform: rotate by R, then move by T.
type Transform struct {
	R Mat3
	T r3.Vector
}

func Identity() Transform {
	return Transform{R: Mat3Identity()}
}

// Apply moves p into the parent space.
func (t Transform) Apply(p r3.Vector) r3.Vector {
	return t.R.MulVector(p).Add(t.T)
}

// Then returns the transform that applies child first and t second.
func (t Transform) Then(child Transform) Transform {
	return Transform{R: t.R.Mul(child.R), T: t.Apply(child.T)}
}

// IsIdentity reports whether t leaves every point where it is.
func (t Transform) IsIdentity() bool {
	id := Mat3Identity()
	for i := range t.R {
		if d := t.R[i] - id[i]; d > identityEps || d < -identityEps {
			return false
		}
	}
	return t.T.Norm() <= identityEps
}
