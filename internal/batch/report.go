package batch

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Totals summarises a run.
type Totals struct {
	Files          int `json:"files"`
	FailedFiles    int `json:"failed_files"`
	MappedIslands  int `json:"mapped_islands"`
	FailedIslands  int `json:"failed_islands"`
	SkippedObjects int `json:"skipped_objects"`
	TexcoordsAdded int `json:"texcoords_added"`
}

// Summarize adds up results.
func Summarize(results []Result) Totals {
	t := Totals{Files: len(results)}
	for _, r := range results {
		if !r.Success {
			t.FailedFiles++
		}
		t.TexcoordsAdded += r.Texcoords
		if r.Report != nil {
			t.MappedIslands += r.Report.Mapped
			t.FailedIslands += r.Report.Failed
			t.SkippedObjects += len(r.Report.Skipped)
		}
	}
	return t
}

// reportFile is the layout of report.json.
type reportFile struct {
	Totals Totals   `json:"totals"`
	Files  []Result `json:"files"`
}

// WriteReport writes report.json to path.
func WriteReport(path string, results []Result) error {
	data, err := json.MarshalIndent(reportFile{Totals: Summarize(results), Files: results}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "batch: encode report")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "batch: create %s", filepath.Dir(path))
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "batch: write %s", path)
}
