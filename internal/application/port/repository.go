// Package port declares the interfaces the application services depend on.
// Infrastructure provides sqlite implementations; tests provide mocks.
package port

import (
	"context"
	"time"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
)

// StatusTransition describes one compare-and-set workflow transition. The
// update applies only while the run is still in FromStatus, so concurrent
// callers cannot both succeed.
type StatusTransition struct {
	RunID          string
	FromStatus     string
	ToStatus       string
	ActionType     string
	Actor          string
	Comments       string
	SetSubmittedBy bool
	SetReviewer    bool
}

// RunRepository stores payroll runs, their items, and their audit events.
type RunRepository interface {
	// CreateWithItems persists a run, all of its items, and its initial
	// audit event in one transaction.
	CreateWithItems(ctx context.Context, run *entity.PayrollRun) error

	// GetByID returns a run with its items, or entity.ErrNotFound.
	GetByID(ctx context.Context, id string) (*entity.PayrollRun, error)

	// ListByCanteen returns a canteen's runs, newest first, without items.
	ListByCanteen(ctx context.Context, canteenID string) ([]*entity.PayrollRun, error)

	// ListPending returns runs awaiting review (SUBMITTED or UNDER_REVIEW).
	ListPending(ctx context.Context) ([]*entity.PayrollRun, error)

	// HasActiveRun reports whether a non-terminal run overlaps the given
	// period for the canteen.
	HasActiveRun(ctx context.Context, canteenID string, periodStart, periodEnd time.Time) (bool, error)

	// Transition applies t and appends its audit event atomically. It
	// returns false with a nil error when the compare-and-set guard failed.
	Transition(ctx context.Context, t StatusTransition) (bool, error)

	// ListEvents returns a run's audit trail, oldest first.
	ListEvents(ctx context.Context, runID string) ([]*entity.RunEvent, error)
}

// ConfigStore stores the append-only sequence of payroll config versions.
type ConfigStore interface {
	// GetCurrent returns the latest version.
	GetCurrent(ctx context.Context) (*entity.PayrollConfig, error)

	// GetVersion returns a specific version, or entity.ErrNotFound.
	GetVersion(ctx context.Context, version int64) (*entity.PayrollConfig, error)

	// Create appends a new version and sets cfg.Version and cfg.CreatedAt.
	Create(ctx context.Context, cfg *entity.PayrollConfig) error

	// ListVersions returns all versions, newest first.
	ListVersions(ctx context.Context) ([]*entity.PayrollConfig, error)
}

// AttendanceSource supplies the roster and attendance totals for a canteen
// and period. The engine consumes it; maintaining the underlying data is the
// staffing system's concern.
type AttendanceSource interface {
	Snapshot(ctx context.Context, canteenID string, periodStart, periodEnd time.Time) (*entity.RosterSnapshot, error)
}

// PayslipStore caches rendered payslip artifacts.
type PayslipStore interface {
	// Get returns the cached payslip, or entity.ErrNotFound.
	Get(ctx context.Context, runID, staffID string) (*entity.Payslip, error)

	// Save stores a rendered payslip. If a concurrent render won the race,
	// Save returns the stored artifact instead of overwriting it.
	Save(ctx context.Context, slip *entity.Payslip) (*entity.Payslip, error)
}
