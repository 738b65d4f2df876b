package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StaffAttendance joins one staff member's roster record with their
// attendance totals for a period.
type StaffAttendance struct {
	StaffID          string          `json:"staff_id"`
	StaffName        string          `json:"staff_name"`
	Role             string          `json:"role"`
	PayType          string          `json:"pay_type"`
	PayRate          decimal.Decimal `json:"pay_rate"`
	DaysWorked       decimal.Decimal `json:"days_worked"`
	TotalHoursWorked decimal.Decimal `json:"total_hours_worked"`
}

// RosterSnapshot is everything the calculator needs about a canteen's staff
// for one period. ExpectedWorkingDays is the number of operating days of the
// canteen in the period, used to prorate MONTHLY pay.
type RosterSnapshot struct {
	CanteenID           string            `json:"canteen_id"`
	PeriodStart         time.Time         `json:"period_start"`
	PeriodEnd           time.Time         `json:"period_end"`
	ExpectedWorkingDays decimal.Decimal   `json:"expected_working_days"`
	Staff               []StaffAttendance `json:"staff"`
}

// Payslip is the rendered, immutable per-staff document for an approved run.
// Content is stamped and cached on first render.
type Payslip struct {
	RunID       string    `json:"run_id"`
	StaffID     string    `json:"staff_id"`
	FileName    string    `json:"file_name"`
	Content     []byte    `json:"-"`
	GeneratedAt time.Time `json:"generated_at"`
}
