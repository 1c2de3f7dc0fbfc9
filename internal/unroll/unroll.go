// Package unroll runs the grid unroll over the selected islands of one or
// more objects and collects a report. A failing island or object never stops
// the others.
package unroll

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mu-bmd-unroll/internal/gridmap"
	"mu-bmd-unroll/internal/island"
	"mu-bmd-unroll/internal/uvmesh"
)

// ErrNoSelection marks an object without any selected corner. Such objects
// are skipped, not failed.
var ErrNoSelection = errors.New("unroll: nothing selected")

// Object is one editable mesh: its topology snapshot, the corner selection
// and where committed UVs go.
type Object struct {
	Name      string
	View      *uvmesh.View
	Selection uvmesh.Selection
	Sink      uvmesh.Sink
}

// IslandsForSelection returns the islands owning at least one selected
// corner, in island order.
func IslandsForSelection(islands []*island.Island, sel uvmesh.Selection) []*island.Island {
	var out []*island.Island
	for _, is := range islands {
		for _, c := range is.Corners() {
			if sel.Selected(c) {
				out = append(out, is)
				break
			}
		}
	}
	return out
}

// Unroller maps islands with a gridmap.Mapper.
type Unroller struct {
	mapper *gridmap.Mapper
	log    *zap.Logger
}

// New returns an Unroller. A nil logger discards output.
func New(mapper *gridmap.Mapper, log *zap.Logger) *Unroller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Unroller{mapper: mapper, log: log}
}

// Object unrolls every island touched by obj's selection. It returns
// ErrNoSelection when nothing is selected; island failures are recorded in
// the returned results.
func (u *Unroller) Object(obj Object) ([]IslandResult, error) {
	if obj.View == nil {
		return nil, errors.Errorf("unroll: object %q has no topology", obj.Name)
	}
	if obj.Selection.Count() == 0 {
		return nil, errors.Wrapf(ErrNoSelection, "object %q", obj.Name)
	}

	targets := IslandsForSelection(island.Detect(obj.View), obj.Selection)
	results := make([]IslandResult, 0, len(targets))
	for _, is := range targets {
		res := u.island(obj, is)
		if res.Err != nil {
			u.log.Warn("island not unrolled",
				zap.String("object", obj.Name),
				zap.Int("island", is.ID),
				zap.Int("faces", res.Faces),
				zap.Error(res.Err),
			)
		} else {
			u.log.Debug("island unrolled",
				zap.String("object", obj.Name),
				zap.Int("island", is.ID),
				zap.Int("rows", res.Rows),
				zap.Int("cols", res.Cols),
				zap.Int("corners", res.Corners),
			)
		}
		results = append(results, res)
	}
	return results, nil
}

func (u *Unroller) island(obj Object, is *island.Island) (res IslandResult) {
	res = IslandResult{Object: obj.Name, Island: is.ID, Faces: len(is.Faces()), Origin: -1, Members: is.Faces()}
	defer func() {
		if r := recover(); r != nil {
			obj.View.Discard()
			res.Err = errors.Errorf("island %d: panic: %v", is.ID, r)
			res.Reason = res.Err.Error()
		}
	}()

	grid, n, err := u.mapper.Unroll(is, obj.Sink)
	if err != nil {
		res.Err = err
		res.Reason = err.Error()
		return res
	}
	res.Origin = grid.Origin
	res.Rows, res.Cols = grid.Rows, grid.Cols
	res.Corners = n
	res.Grid = grid
	return res
}

// Run unrolls every object and returns the combined report.
func (u *Unroller) Run(objs []Object) *Report {
	rep := &Report{}
	for _, obj := range objs {
		results, err := u.Object(obj)
		switch {
		case errors.Is(err, ErrNoSelection):
			rep.Skipped = append(rep.Skipped, obj.Name)
			u.log.Debug("object skipped", zap.String("object", obj.Name))
			continue
		case err != nil:
			rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", obj.Name, err))
			u.log.Warn("object failed", zap.String("object", obj.Name), zap.Error(err))
			continue
		}
		rep.add(results)
	}
	return rep
}
