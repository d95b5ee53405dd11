package domain

import "errors"

// Structural errors are fatal and abort the run. Data sparsity is never an
// error; it degrades to the NaN sentinel (see Smooth and PeakRatio).
var (
	// ErrMalformedRow marks an input row whose region key or date is missing
	// or unparseable after defaulting. Aborts ingestion for the whole table.
	ErrMalformedRow = errors.New("malformed row")

	// ErrRuleCoverageGap marks a recalibration rule set that leaves some date
	// without a multiplier. Raised at configuration validation time, before
	// any region is processed.
	ErrRuleCoverageGap = errors.New("rule coverage gap")
)
