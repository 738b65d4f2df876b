package payslip

import "errors"

var (
	// ErrRenderTimeout is returned when rendering exceeds the caller's
	// deadline. Safe to retry: rendering an approved run is deterministic.
	ErrRenderTimeout = errors.New("payslip rendering timed out")
)
