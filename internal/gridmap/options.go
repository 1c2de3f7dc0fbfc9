package gridmap

import (
	"strings"

	"github.com/pkg/errors"

	"mu-bmd-unroll/internal/island"
)

// Metric selects how a lattice step is measured.
type Metric int

const (
	// MetricSurface measures steps as 3D edge lengths between vertex
	// positions, falling back to UV distance when the view has none.
	MetricSurface Metric = iota
	// MetricUV measures steps as UV distances.
	MetricUV
)

func (m Metric) String() string {
	if m == MetricUV {
		return "uv"
	}
	return "surface"
}

// ParseMetric parses "surface" or "uv".
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "surface":
		return MetricSurface, nil
	case "uv":
		return MetricUV, nil
	}
	return 0, errors.Errorf("gridmap: unknown metric %q", s)
}

// WidthPolicy selects where row heights and column widths come from.
type WidthPolicy int

const (
	// WidthsFirstRow takes column widths from row 0 and row heights from
	// column 0. Every row must have as many cells as row 0.
	WidthsFirstRow WidthPolicy = iota
	// WidthsAverage averages each column's width over all rows and each
	// row's height over all columns.
	WidthsAverage
)

func (w WidthPolicy) String() string {
	if w == WidthsAverage {
		return "average"
	}
	return "first-row"
}

// ParseWidthPolicy parses "first-row" or "average".
func ParseWidthPolicy(s string) (WidthPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "first-row", "firstrow":
		return WidthsFirstRow, nil
	case "average", "avg":
		return WidthsAverage, nil
	}
	return 0, errors.Errorf("gridmap: unknown width policy %q", s)
}

// Options tunes a Mapper.
type Options struct {
	Metric Metric
	Widths WidthPolicy
	// ScaleToUV rescales a MetricSurface grid uniformly so its walked arc
	// length equals the UV arc length of the same walks.
	ScaleToUV bool
	// MaxSteps bounds every lattice walk; <= 0 means island.DefaultMaxSteps.
	MaxSteps int
}

// DefaultOptions returns surface lengths, first-row widths, no rescale.
func DefaultOptions() Options {
	return Options{
		Metric:   MetricSurface,
		Widths:   WidthsFirstRow,
		MaxSteps: island.DefaultMaxSteps,
	}
}
