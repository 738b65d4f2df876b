package entity

import "errors"

// Domain errors shared across services and repositories. Callers classify
// failures with errors.Is and wrap these with request-specific detail.
var (
	// ErrValidation is returned for bad input: inverted periods, negative
	// rates or hours, empty rosters, empty rejection comments.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicatePeriod is returned when a generation request overlaps an
	// existing non-terminal run for the same canteen and period.
	ErrDuplicatePeriod = errors.New("non-terminal payroll run already exists for period")

	// ErrNotFound is returned when a run, staff item, or config version
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotApproved is returned when a payslip or export is requested for
	// a run that has not reached APPROVED.
	ErrNotApproved = errors.New("payroll run is not approved")

	// ErrPersistence is returned for storage failures. Mutating operations
	// are atomic, so callers may retry by run id.
	ErrPersistence = errors.New("persistence failure")
)
