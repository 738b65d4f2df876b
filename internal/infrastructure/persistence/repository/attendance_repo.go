package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
	"github.com/opencanteen/payroll-engine/pkg/database"
)

// AttendanceRepository is the sqlite implementation of
// port.AttendanceSource. It joins the staff roster with per-period
// attendance totals maintained by the staffing side of the platform. Staff
// with no attendance row worked zero days in the period.
type AttendanceRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *database.DB, logger *zap.Logger) *AttendanceRepository {
	return &AttendanceRepository{db: db, logger: logger}
}

// Snapshot returns the canteen's active roster with attendance totals for
// the period
func (r *AttendanceRepository) Snapshot(ctx context.Context, canteenID string, periodStart, periodEnd time.Time) (*entity.RosterSnapshot, error) {
	start := periodStart.Format(dateLayout)
	end := periodEnd.Format(dateLayout)

	rows, err := r.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.role, s.pay_type, s.pay_rate,
			a.days_worked, a.total_hours_worked
		FROM staff s
		LEFT JOIN attendance_summaries a
			ON a.staff_id = s.id AND a.period_start = ? AND a.period_end = ?
		WHERE s.canteen_id = ? AND s.active = 1
		ORDER BY s.id ASC
	`, start, end, canteenID)
	if err != nil {
		r.logger.Error("Failed to load roster", zap.String("canteen_id", canteenID), zap.Error(err))
		return nil, fmt.Errorf("%w: load roster: %v", entity.ErrPersistence, err)
	}
	defer rows.Close()

	snapshot := &entity.RosterSnapshot{
		CanteenID:   canteenID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}

	for rows.Next() {
		var staff entity.StaffAttendance
		var daysWorked, hoursWorked sql.NullString
		err := rows.Scan(&staff.StaffID, &staff.StaffName, &staff.Role,
			&staff.PayType, &staff.PayRate, &daysWorked, &hoursWorked)
		if err != nil {
			return nil, fmt.Errorf("%w: scan roster row: %v", entity.ErrPersistence, err)
		}

		staff.DaysWorked = decimal.Zero
		staff.TotalHoursWorked = decimal.Zero
		if daysWorked.Valid {
			if staff.DaysWorked, err = decimal.NewFromString(daysWorked.String); err != nil {
				return nil, fmt.Errorf("%w: invalid days_worked %q: %v", entity.ErrPersistence, daysWorked.String, err)
			}
		}
		if hoursWorked.Valid {
			if staff.TotalHoursWorked, err = decimal.NewFromString(hoursWorked.String); err != nil {
				return nil, fmt.Errorf("%w: invalid total_hours_worked %q: %v", entity.ErrPersistence, hoursWorked.String, err)
			}
		}
		snapshot.Staff = append(snapshot.Staff, staff)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate roster: %v", entity.ErrPersistence, err)
	}

	expected, err := r.expectedWorkingDays(ctx, canteenID, start, end)
	if err != nil {
		return nil, err
	}
	snapshot.ExpectedWorkingDays = expected

	return snapshot, nil
}

func (r *AttendanceRepository) expectedWorkingDays(ctx context.Context, canteenID, start, end string) (decimal.Decimal, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `
		SELECT expected_working_days FROM canteen_operating_days
		WHERE canteen_id = ? AND period_start = ? AND period_end = ?
	`, canteenID, start, end).Scan(&raw)
	if err == sql.ErrNoRows {
		// No operating-days record means the canteen was closed for the
		// period; MONTHLY proration then yields zero pay.
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: operating days: %v", entity.ErrPersistence, err)
	}

	expected, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid expected_working_days %q: %v", entity.ErrPersistence, raw, err)
	}
	return expected, nil
}
