package uvmesh

// Selection is a corner-indexed side table of selection flags.
type Selection []bool

// SelectionChange records one flag flip.
type SelectionChange struct {
	Corner   int
	Selected bool
}

// SelectionDiff is the explicit result of a selection helper. Applying it is
// left to the caller.
type SelectionDiff []SelectionChange

// NewSelection returns an empty selection sized for v.
func NewSelection(v *View) Selection {
	return make(Selection, v.NumCorners())
}

// Selected reports whether corner c is selected. Out-of-range corners are not.
func (s Selection) Selected(c int) bool {
	return c >= 0 && c < len(s) && s[c]
}

// Count returns the number of selected corners.
func (s Selection) Count() int {
	n := 0
	for _, sel := range s {
		if sel {
			n++
		}
	}
	return n
}

// Corners returns the selected corners in ascending order.
func (s Selection) Corners() []int {
	var out []int
	for c, sel := range s {
		if sel {
			out = append(out, c)
		}
	}
	return out
}

// Apply returns a copy of s with diff applied.
func (s Selection) Apply(diff SelectionDiff) Selection {
	out := append(Selection(nil), s...)
	for _, ch := range diff {
		if ch.Corner >= 0 && ch.Corner < len(out) {
			out[ch.Corner] = ch.Selected
		}
	}
	return out
}

// SelectAll returns the changes that select every corner.
func (s Selection) SelectAll() SelectionDiff {
	var diff SelectionDiff
	for c, sel := range s {
		if !sel {
			diff = append(diff, SelectionChange{Corner: c, Selected: true})
		}
	}
	return diff
}

// DeselectAll returns the changes that clear every corner.
func (s Selection) DeselectAll() SelectionDiff {
	var diff SelectionDiff
	for c, sel := range s {
		if sel {
			diff = append(diff, SelectionChange{Corner: c, Selected: false})
		}
	}
	return diff
}

// Select returns the changes that select corners. With deselectOthers every
// corner outside the set is cleared as well.
func (s Selection) Select(corners []int, deselectOthers bool) SelectionDiff {
	want := make(map[int]bool, len(corners))
	for _, c := range corners {
		want[c] = true
	}
	var diff SelectionDiff
	for c, sel := range s {
		switch {
		case want[c] && !sel:
			diff = append(diff, SelectionChange{Corner: c, Selected: true})
		case !want[c] && sel && deselectOthers:
			diff = append(diff, SelectionChange{Corner: c, Selected: false})
		}
	}
	return diff
}

// SelectFaces returns the changes that select every corner of the given faces.
func (s Selection) SelectFaces(v *View, faces []int, deselectOthers bool) SelectionDiff {
	var corners []int
	for _, f := range faces {
		if f < 0 || f >= v.NumFaces() {
			continue
		}
		corners = append(corners, v.FaceCorners(f)...)
	}
	return s.Select(corners, deselectOthers)
}
