package core

import "time"

// Run describes one input file processed against a compiled model.
type Run struct {
	SourceFile string
	Created    time.Time
	Model      *Model
	Peaks      []string  // header order
	Weights    []float64 // aligned to Peaks
	UsedPeaks  []string
	Rank       int
	Condition  float64
}

// Result is the decomposition of one data row.
type Result struct {
	Line       int
	Observed   []float64 // aligned to Run.Peaks
	Abundances []float64 // aligned to Run.Model.Molecules
	Residuals  []float64 // aligned to Run.UsedPeaks
	Missing    []string  // peaks whose value did not parse
}
