package domain

import "errors"

// Four error kinds, per spec.md §7. Components wrap a sentinel with
// fmt.Errorf("...: %w", err) so callers can discriminate with errors.Is while
// still getting a descriptive message.
var (
	// ErrValidation marks a bad input: unknown portfolio, date in the future,
	// invalid force_rerun without start_date. Surfaced immediately, no side effects.
	ErrValidation = errors.New("validation error")

	// ErrUpstream marks a provider timeout or missing data. Logged at WARN,
	// recovered per-symbol; never fails a whole portfolio.
	ErrUpstream = errors.New("upstream data error")

	// ErrInsufficientData marks a sample below the minimum for a regression or
	// correlation pair. Callers should prefer a structured Skip result over
	// propagating this error where spec.md defines one.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInternal marks a database conflict or unexpected failure inside a
	// phase. Rolled back at the phase boundary; phase recorded failed; the
	// orchestrator continues with the next portfolio.
	ErrInternal = errors.New("internal error")
)

// ConflictError is returned when a second batch run is requested while one
// is already active and force=false (spec.md P8).
type ConflictError struct {
	ActiveBatchRunID string
}

func (e ConflictError) Error() string {
	return "a batch run is already active: " + e.ActiveBatchRunID
}
