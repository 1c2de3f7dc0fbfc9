package uvmesh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mu-bmd-unroll/internal/uvmesh"
)

func TestSelection_Helpers(t *testing.T) {
	v := twoQuads(t, false)
	sel := uvmesh.NewSelection(v)
	assert.Equal(t, 0, sel.Count())

	all := sel.Apply(sel.SelectAll())
	assert.Equal(t, 8, all.Count())
	assert.Empty(t, all.SelectAll(), "nothing left to select")

	none := all.Apply(all.DeselectAll())
	assert.Equal(t, 0, none.Count())
	assert.Equal(t, 8, all.Count(), "Apply does not mutate the receiver")

	face1 := none.Apply(none.SelectFaces(v, []int{1, 42}, false))
	assert.Equal(t, []int{4, 5, 6, 7}, face1.Corners())

	only := face1.Apply(face1.Select([]int{0}, true))
	assert.Equal(t, []int{0}, only.Corners())
	assert.True(t, only.Selected(0))
	assert.False(t, only.Selected(-1))
	assert.False(t, only.Selected(99))
}

func TestSelection_DiffIsExplicit(t *testing.T) {
	v := twoQuads(t, false)
	sel := uvmesh.NewSelection(v)
	diff := sel.Select([]int{2, 3}, false)
	assert.Equal(t, uvmesh.SelectionDiff{
		{Corner: 2, Selected: true},
		{Corner: 3, Selected: true},
	}, diff)
	assert.Equal(t, 0, sel.Count())
}
