// Package skeleton poses BMD vertices into model space using the bind pose
// of their bones.
package skeleton

import (
	"github.com/golang/geo/r3"

	"mu-bmd-unroll/internal/bmd"
	"mu-bmd-unroll/internal/mathutil"
)

// WorldTransforms returns the bind-pose transform of every bone, indexed like
// bones. Dummy bones stay at the identity.
func WorldTransforms(bones []bmd.Bone) []mathutil.Transform {
	worlds := make([]mathutil.Transform, len(bones))
	for i := range worlds {
		worlds[i] = mathutil.Identity()
	}

	for i, bone := range bones {
		if bone.IsDummy {
			continue
		}

		rot := r3.Vector{X: bone.BindRotation[0], Y: bone.BindRotation[1], Z: bone.BindRotation[2]}
		pos := r3.Vector{X: bone.BindPosition[0], Y: bone.BindPosition[1], Z: bone.BindPosition[2]}
		local := mathutil.Transform{R: mathutil.EulerRotation(rot), T: pos}

		// parents come first in the file
		if bone.Parent >= 0 && bone.Parent < i {
			worlds[i] = worlds[bone.Parent].Then(local)
		} else {
			worlds[i] = local
		}
	}

	return worlds
}

// Pose returns the model-space position of every vertex of mesh. Rigid
// skinning: one bone per vertex, weight 1. Vertices whose bone is out of
// range keep their stored position.
func Pose(mesh *bmd.Mesh, worlds []mathutil.Transform) []r3.Vector {
	out := make([]r3.Vector, len(mesh.Verts))
	for vi, v := range mesh.Verts {
		p := r3.Vector{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
		if b := int(mesh.Nodes[vi]); b >= 0 && b < len(worlds) {
			p = worlds[b].Apply(p)
		}
		out[vi] = p
	}
	return out
}

// ModelPose poses every mesh of m. It returns nil entries when the skeleton
// is missing or all bones sit at the identity, meaning stored positions are
// already in model space.
func ModelPose(m *bmd.Model) [][]r3.Vector {
	out := make([][]r3.Vector, len(m.Meshes))
	if len(m.Bones) == 0 {
		return out
	}
	worlds := WorldTransforms(m.Bones)

	allIdentity := true
	for _, w := range worlds {
		if !w.IsIdentity() {
			allIdentity = false
			break
		}
	}
	if allIdentity {
		return out
	}

	for i := range m.Meshes {
		out[i] = Pose(&m.Meshes[i], worlds)
	}
	return out
}
