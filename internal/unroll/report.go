package unroll

import (
	"github.com/pkg/errors"

	"mu-bmd-unroll/internal/gridmap"
	"mu-bmd-unroll/internal/island"
)

// IslandResult is the outcome for one island.
type IslandResult struct {
	Object  string `json:"object"`
	Island  int    `json:"island"`
	Faces   int    `json:"faces"`
	Origin  int    `json:"origin"`
	Rows    int    `json:"rows,omitempty"`
	Cols    int    `json:"cols,omitempty"`
	Corners int    `json:"corners_written"`
	Reason  string `json:"reason,omitempty"`

	Err     error         `json:"-"`
	Grid    *gridmap.Grid `json:"-"`
	Members []int         `json:"-"` // face indices of the island

}

// Mapped reports whether the island was rewritten.
func (r IslandResult) Mapped() bool { return r.Err == nil }

// Kind classifies a failure as "topology", "safety-limit" or "error".
func (r IslandResult) Kind() string {
	switch {
	case r.Err == nil:
		return ""
	case errors.Is(r.Err, island.ErrTopology):
		return "topology"
	case errors.Is(r.Err, island.ErrSafetyLimitExceeded):
		return "safety-limit"
	}
	return "error"
}

// Report aggregates the islands of one run.
type Report struct {
	Mapped  int            `json:"mapped"`
	Failed  int            `json:"failed"`
	Islands []IslandResult `json:"islands"`
	// Skipped lists objects without a selection.
	Skipped []string `json:"skipped,omitempty"`
	// Errors lists objects that could not be processed at all.
	Errors []string `json:"errors,omitempty"`
}

func (r *Report) add(results []IslandResult) {
	for _, res := range results {
		if res.Mapped() {
			r.Mapped++
		} else {
			r.Failed++
		}
		r.Islands = append(r.Islands, res)
	}
}

// Merge adds other's counts and entries to r.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}
	r.add(other.Islands)
	r.Skipped = append(r.Skipped, other.Skipped...)
	r.Errors = append(r.Errors, other.Errors...)
}

// Success reports whether at least one island was mapped.
func (r *Report) Success() bool { return r.Mapped > 0 }

// Failures returns the failed islands.
func (r *Report) Failures() []IslandResult {
	var out []IslandResult
	for _, res := range r.Islands {
		if !res.Mapped() {
			out = append(out, res)
		}
	}
	return out
}
