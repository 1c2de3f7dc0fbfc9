package gridmap

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mu-bmd-unroll/internal/island"
	"mu-bmd-unroll/internal/uvmesh"
)

var (
	// ErrOrigin is returned when the origin corner is not part of the island.
	ErrOrigin = errors.New("gridmap: origin outside island")
	// ErrPending is returned by Apply when the view already holds uncommitted
	// writes that did not come from the grid.
	ErrPending = errors.New("gridmap: view has pending writes")
)

// Mapper recovers grids and writes them back.
type Mapper struct {
	opts Options
	log  *zap.Logger
}

// New returns a Mapper. A nil logger discards output.
func New(opts Options, log *zap.Logger) *Mapper {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = island.DefaultMaxSteps
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Mapper{opts: opts, log: log}
}

// Options returns the mapper's effective options.
func (m *Mapper) Options() Options { return m.opts }

func (m *Mapper) length(v *uvmesh.View) island.LengthFunc {
	if m.opts.Metric == MetricUV {
		return v.UVDistance
	}
	return v.EdgeLength
}

// Map walks the lattice of is starting at origin and returns the grid it
// describes. Map does not write anything; see Apply.
//
// Rows are found by walking Prev from origin, cells of each row by walking
// Next from the row's first anchor. Every face of the island must be reached
// by exactly one cell and every row must have the same number of cells,
// otherwise Map fails with island.ErrTopology.
func (m *Mapper) Map(is *island.Island, origin int) (*Grid, error) {
	if err := is.CheckQuads(); err != nil {
		return nil, err
	}
	if !is.Contains(origin) {
		return nil, errors.Wrapf(ErrOrigin, "island %d: corner %d", is.ID, origin)
	}
	v := is.View()
	length := m.length(v)

	rows, err := island.Walk(v, origin, island.Prev, length, m.opts.MaxSteps)
	if err != nil {
		return nil, errors.Wrapf(err, "island %d: row walk", is.ID)
	}
	lines := make([]island.Path, len(rows.Anchors))
	for r, a := range rows.Anchors {
		p, err := island.Walk(v, a, island.Next, length, m.opts.MaxSteps)
		if err != nil {
			return nil, errors.Wrapf(err, "island %d: row %d walk", is.ID, r)
		}
		if r > 0 && len(p.Anchors) != len(lines[0].Anchors) {
			return nil, errors.Wrapf(island.ErrTopology, "island %d: row %d has %d cells, row 0 has %d",
				is.ID, r, len(p.Anchors), len(lines[0].Anchors))
		}
		lines[r] = p
	}

	g := &Grid{
		Island:   is,
		Origin:   origin,
		OriginUV: v.UV(origin),
		Rows:     len(lines),
		Cols:     len(lines[0].Anchors),
		Scale:    1,
	}

	reached := make(map[int]struct{}, len(is.Faces()))
	for r, p := range lines {
		for c, a := range p.Anchors {
			f := v.FaceOf(a)
			if _, dup := reached[f]; dup {
				return nil, errors.Wrapf(island.ErrTopology, "island %d: face %d reached twice", is.ID, f)
			}
			reached[f] = struct{}{}
			g.Cells = append(g.Cells, Cell{Row: r, Col: c, Anchor: a, Face: f})
		}
	}
	if len(reached) != len(is.Faces()) {
		return nil, errors.Wrapf(island.ErrTopology, "island %d: lattice reaches %d of %d faces",
			is.ID, len(reached), len(is.Faces()))
	}

	heights, widths := rows.Lengths, lines[0].Lengths
	if m.opts.Widths == WidthsAverage {
		heights, widths = averages(v, lines, length)
	}

	if m.opts.ScaleToUV && m.opts.Metric == MetricSurface && v.HasPositions() {
		if surface := rows.Total() + lines[0].Total(); surface > 0 {
			uv := uvArc(v, rows.Anchors, island.Prev) + uvArc(v, lines[0].Anchors, island.Next)
			g.Scale = uv / surface
		}
	}
	g.RowOffsets = offsets(heights, g.Scale)
	g.ColOffsets = offsets(widths, g.Scale)

	m.log.Debug("grid recovered",
		zap.Int("island", is.ID),
		zap.Int("origin", origin),
		zap.Int("rows", g.Rows),
		zap.Int("cols", g.Cols),
		zap.Float64("scale", g.Scale),
	)
	return g, nil
}

// Apply buffers the grid's UVs in the island's view and commits them to sink
// in one batch. It returns the number of corners written.
func (m *Mapper) Apply(g *Grid, sink uvmesh.Sink) (int, error) {
	v := g.Island.View()
	if v.Pending() > 0 {
		return 0, errors.Wrapf(ErrPending, "island %d: %d corners", g.Island.ID, v.Pending())
	}
	targets := g.Targets()
	corners := make([]int, 0, len(targets))
	for c := range targets {
		corners = append(corners, c)
	}
	sort.Ints(corners)
	for _, c := range corners {
		v.SetUV(c, targets[c])
	}
	n := v.Commit(sink)
	m.log.Debug("grid applied", zap.Int("island", g.Island.ID), zap.Int("corners", n))
	return n, nil
}

// Unroll chooses the island's origin, maps it and applies the result. On any
// error nothing is written.
func (m *Mapper) Unroll(is *island.Island, sink uvmesh.Sink) (*Grid, int, error) {
	origin, err := is.Origin(m.opts.MaxSteps)
	if err != nil {
		return nil, 0, err
	}
	g, err := m.Map(is, origin)
	if err != nil {
		return nil, 0, err
	}
	n, err := m.Apply(g, sink)
	if err != nil {
		return nil, 0, err
	}
	return g, n, nil
}

func averages(v *uvmesh.View, lines []island.Path, length island.LengthFunc) (heights, widths []float64) {
	rows, cols := len(lines), len(lines[0].Anchors)
	heights = make([]float64, rows)
	widths = make([]float64, cols)
	for r, p := range lines {
		for c, a := range p.Anchors {
			heights[r] += length(a, v.Prev(a))
			widths[c] += p.Lengths[c]
		}
	}
	for r := range heights {
		heights[r] /= float64(cols)
	}
	for c := range widths {
		widths[c] /= float64(rows)
	}
	return heights, widths
}

func uvArc(v *uvmesh.View, anchors []int, d island.Direction) float64 {
	var sum float64
	for _, a := range anchors {
		sum += v.UVDistance(a, d.Step(v, a))
	}
	return sum
}

func offsets(lengths []float64, scale float64) []float64 {
	out := make([]float64, len(lengths)+1)
	for i, l := range lengths {
		out[i+1] = out[i] + l*scale
	}
	return out
}
