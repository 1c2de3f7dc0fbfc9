package mathutil_test

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"

	"mu-bmd-unroll/internal/mathutil"
)

// near allows for float rounding: cos(π/2) is 6e-17, not 0.
func near(t *testing.T, want, got r3.Vector) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-9, "x: want %v got %v", want, got)
	assert.InDelta(t, want.Y, got.Y, 1e-9, "y: want %v got %v", want, got)
	assert.InDelta(t, want.Z, got.Z, 1e-9, "z: want %v got %v", want, got)
}

func TestEulerRotation_QuarterTurns(t *testing.T) {
	x := r3.Vector{X: 1}
	rz := mathutil.EulerRotation(r3.Vector{Z: math.Pi / 2})
	near(t, r3.Vector{Y: 1}, rz.MulVector(x))

	ry := mathutil.EulerRotation(r3.Vector{Y: math.Pi / 2})
	near(t, r3.Vector{Z: -1}, ry.MulVector(x))

	assert.Equal(t, mathutil.Mat3Identity(), mathutil.EulerRotation(r3.Vector{}))
}

func TestTransform_Chain(t *testing.T) {
	rot := mathutil.EulerRotation(r3.Vector{Z: math.Pi / 2})
	parent := mathutil.Transform{R: mathutil.Mat3Identity(), T: r3.Vector{X: 10}}
	child := mathutil.Transform{R: rot, T: r3.Vector{Y: 1}}
	world := parent.Then(child)

	near(t, r3.Vector{X: 10, Y: 2}, world.Apply(r3.Vector{X: 1}))
	assert.False(t, world.IsIdentity())
	assert.False(t, parent.IsIdentity())
	assert.True(t, mathutil.Identity().Then(mathutil.Identity()).IsIdentity())
}
