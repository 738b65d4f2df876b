package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/opencanteen/payroll-engine/internal/application/port"
	"github.com/opencanteen/payroll-engine/internal/domain/entity"
	"github.com/opencanteen/payroll-engine/pkg/database"
)

const dateLayout = "2006-01-02"

// RunRepository is the sqlite implementation of port.RunRepository
type RunRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *database.DB, logger *zap.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

// activeOverlapQuery counts non-terminal runs whose period intersects the
// requested bounds: an existing run overlaps iff it starts on or before the
// requested end and ends on or after the requested start.
const activeOverlapQuery = `
	SELECT COUNT(*) FROM payroll_runs
	WHERE canteen_id = ? AND period_start <= ? AND period_end >= ?
	  AND status NOT IN (?, ?)
`

// CreateWithItems persists the run, its items, and its initial audit event
// in one transaction. The overlap guard runs inside the same transaction,
// so two concurrent generations for intersecting periods cannot both
// commit; the partial unique index stays as a backstop for the
// identical-period case.
func (r *RunRepository) CreateWithItems(ctx context.Context, run *entity.PayrollRun) error {
	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		var overlapping int
		err := tx.QueryRowContext(ctx, activeOverlapQuery,
			run.CanteenID,
			run.PeriodEnd.Format(dateLayout), run.PeriodStart.Format(dateLayout),
			entity.StatusApproved, entity.StatusRejected).Scan(&overlapping)
		if err != nil {
			return err
		}
		if overlapping > 0 {
			return fmt.Errorf("%w: canteen %s, period %s to %s overlaps an active run",
				entity.ErrDuplicatePeriod, run.CanteenID,
				run.PeriodStart.Format(dateLayout), run.PeriodEnd.Format(dateLayout))
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO payroll_runs (
				id, canteen_id, period_start, period_end, status,
				total_staff_count, total_gross_pay, total_deductions,
				total_net_pay, total_epf_employer, total_etf_employer,
				config_version, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID, run.CanteenID,
			run.PeriodStart.Format(dateLayout), run.PeriodEnd.Format(dateLayout),
			run.Status, run.TotalStaffCount,
			run.TotalGrossPay, run.TotalDeductions, run.TotalNetPay,
			run.TotalEPFEmployer, run.TotalETFEmployer,
			run.ConfigVersion, run.CreatedAt, run.UpdatedAt,
		)
		if err != nil {
			return err
		}

		for _, item := range run.Items {
			result, err := tx.ExecContext(ctx, `
				INSERT INTO payroll_items (
					run_id, staff_id, staff_name, role, pay_type, pay_rate,
					days_worked, total_hours_worked, overtime_hours,
					basic_pay, overtime_pay, allowances, gross_pay,
					epf_employee, epf_employer, etf_employer,
					total_deductions, net_pay
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				item.RunID, item.StaffID, item.StaffName, item.Role,
				item.PayType, item.PayRate,
				item.DaysWorked, item.TotalHoursWorked, item.OvertimeHours,
				item.BasicPay, item.OvertimePay, item.Allowances, item.GrossPay,
				item.EPFEmployee, item.EPFEmployer, item.ETFEmployer,
				item.TotalDeductions, item.NetPay,
			)
			if err != nil {
				return err
			}
			if id, err := result.LastInsertId(); err == nil {
				item.ID = id
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO payroll_run_events (run_id, previous_status, new_status, action_type)
			VALUES (?, '', ?, ?)
		`, run.ID, run.Status, entity.ActionTypeGenerate)
		return err
	})

	if err != nil {
		if errors.Is(err, entity.ErrDuplicatePeriod) {
			return err
		}
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: canteen %s, period %s to %s",
				entity.ErrDuplicatePeriod, run.CanteenID,
				run.PeriodStart.Format(dateLayout), run.PeriodEnd.Format(dateLayout))
		}
		r.logger.Error("Failed to create payroll run", zap.String("run_id", run.ID), zap.Error(err))
		return fmt.Errorf("%w: create run: %v", entity.ErrPersistence, err)
	}
	return nil
}

const runColumns = `
	id, canteen_id, period_start, period_end, status,
	total_staff_count, total_gross_pay, total_deductions,
	total_net_pay, total_epf_employer, total_etf_employer,
	submitted_by, reviewed_by, review_comments,
	config_version, created_at, updated_at
`

// GetByID returns a run with its items
func (r *RunRepository) GetByID(ctx context.Context, id string) (*entity.PayrollRun, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM payroll_runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: payroll run %s", entity.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get payroll run", zap.String("run_id", id), zap.Error(err))
		return nil, fmt.Errorf("%w: get run: %v", entity.ErrPersistence, err)
	}

	items, err := r.itemsForRun(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Items = items
	return run, nil
}

// ListByCanteen returns a canteen's runs, newest first, without items
func (r *RunRepository) ListByCanteen(ctx context.Context, canteenID string) ([]*entity.PayrollRun, error) {
	return r.listRuns(ctx,
		`SELECT `+runColumns+` FROM payroll_runs WHERE canteen_id = ? ORDER BY created_at DESC`,
		canteenID)
}

// ListPending returns runs awaiting review, oldest submission first
func (r *RunRepository) ListPending(ctx context.Context) ([]*entity.PayrollRun, error) {
	return r.listRuns(ctx,
		`SELECT `+runColumns+` FROM payroll_runs
		 WHERE status IN (?, ?) ORDER BY updated_at ASC`,
		entity.StatusSubmitted, entity.StatusUnderReview)
}

// HasActiveRun reports whether a non-terminal run overlaps the given period
// for the canteen. Periods are ISO dates stored as TEXT, so lexicographic
// comparison orders them correctly.
func (r *RunRepository) HasActiveRun(ctx context.Context, canteenID string, periodStart, periodEnd time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, activeOverlapQuery,
		canteenID, periodEnd.Format(dateLayout), periodStart.Format(dateLayout),
		entity.StatusApproved, entity.StatusRejected).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("%w: check active run: %v", entity.ErrPersistence, err)
	}
	return count > 0, nil
}

// errTransitionLost aborts the transaction when the compare-and-set guard
// fails, without reporting a storage failure to the caller.
var errTransitionLost = errors.New("transition lost")

// Transition applies the status change iff the run is still in FromStatus,
// appending the audit event in the same transaction. Financial columns are
// deliberately absent from the update: from SUBMITTED onward only status,
// reviewer and comments may change.
func (r *RunRepository) Transition(ctx context.Context, t port.StatusTransition) (bool, error) {
	query := `UPDATE payroll_runs SET status = ?, updated_at = ?`
	args := []interface{}{t.ToStatus, time.Now().UTC()}
	if t.SetSubmittedBy {
		query += `, submitted_by = ?`
		args = append(args, t.Actor)
	}
	if t.SetReviewer {
		query += `, reviewed_by = ?, review_comments = ?`
		args = append(args, t.Actor, t.Comments)
	}
	query += ` WHERE id = ? AND status = ?`
	args = append(args, t.RunID, t.FromStatus)

	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return errTransitionLost
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO payroll_run_events (run_id, previous_status, new_status, action_type, actor, comments)
			VALUES (?, ?, ?, ?, ?, ?)
		`, t.RunID, t.FromStatus, t.ToStatus, t.ActionType, t.Actor, t.Comments)
		return err
	})

	if errors.Is(err, errTransitionLost) {
		return false, nil
	}
	if err != nil {
		r.logger.Error("Failed to transition payroll run",
			zap.String("run_id", t.RunID),
			zap.String("to", t.ToStatus),
			zap.Error(err))
		return false, fmt.Errorf("%w: transition run: %v", entity.ErrPersistence, err)
	}
	return true, nil
}

// ListEvents returns a run's audit trail, oldest first
func (r *RunRepository) ListEvents(ctx context.Context, runID string) ([]*entity.RunEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, previous_status, new_status, action_type, actor, comments, created_at
		FROM payroll_run_events WHERE run_id = ? ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %v", entity.ErrPersistence, err)
	}
	defer rows.Close()

	var events []*entity.RunEvent
	for rows.Next() {
		var event entity.RunEvent
		var actor, comments sql.NullString
		err := rows.Scan(&event.ID, &event.RunID, &event.PreviousStatus,
			&event.NewStatus, &event.ActionType, &actor, &comments, &event.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: scan event: %v", entity.ErrPersistence, err)
		}
		event.Actor = actor.String
		event.Comments = comments.String
		events = append(events, &event)
	}
	return events, rows.Err()
}

func (r *RunRepository) listRuns(ctx context.Context, query string, args ...interface{}) ([]*entity.PayrollRun, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list payroll runs", zap.Error(err))
		return nil, fmt.Errorf("%w: list runs: %v", entity.ErrPersistence, err)
	}
	defer rows.Close()

	var runs []*entity.PayrollRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan run: %v", entity.ErrPersistence, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *RunRepository) itemsForRun(ctx context.Context, runID string) ([]*entity.PayrollItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, staff_id, staff_name, role, pay_type, pay_rate,
			days_worked, total_hours_worked, overtime_hours,
			basic_pay, overtime_pay, allowances, gross_pay,
			epf_employee, epf_employer, etf_employer,
			total_deductions, net_pay
		FROM payroll_items WHERE run_id = ? ORDER BY staff_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("%w: list items: %v", entity.ErrPersistence, err)
	}
	defer rows.Close()

	var items []*entity.PayrollItem
	for rows.Next() {
		var item entity.PayrollItem
		err := rows.Scan(
			&item.ID, &item.RunID, &item.StaffID, &item.StaffName,
			&item.Role, &item.PayType, &item.PayRate,
			&item.DaysWorked, &item.TotalHoursWorked, &item.OvertimeHours,
			&item.BasicPay, &item.OvertimePay, &item.Allowances, &item.GrossPay,
			&item.EPFEmployee, &item.EPFEmployer, &item.ETFEmployer,
			&item.TotalDeductions, &item.NetPay,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scan item: %v", entity.ErrPersistence, err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*entity.PayrollRun, error) {
	var run entity.PayrollRun
	var periodStart, periodEnd string
	var submittedBy, reviewedBy, reviewComments sql.NullString

	err := row.Scan(
		&run.ID, &run.CanteenID, &periodStart, &periodEnd, &run.Status,
		&run.TotalStaffCount, &run.TotalGrossPay, &run.TotalDeductions,
		&run.TotalNetPay, &run.TotalEPFEmployer, &run.TotalETFEmployer,
		&submittedBy, &reviewedBy, &reviewComments,
		&run.ConfigVersion, &run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.PeriodStart, err = time.Parse(dateLayout, periodStart)
	if err != nil {
		return nil, fmt.Errorf("invalid period_start %q: %w", periodStart, err)
	}
	run.PeriodEnd, err = time.Parse(dateLayout, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("invalid period_end %q: %w", periodEnd, err)
	}

	run.SubmittedBy = submittedBy.String
	run.ReviewedBy = reviewedBy.String
	run.ReviewComments = reviewComments.String
	return &run, nil
}
