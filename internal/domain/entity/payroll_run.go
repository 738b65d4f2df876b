package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PayrollRun is one computed payroll batch for a canteen and period,
// carrying a workflow status. Financial fields are mutable only while the
// run is in DRAFT; from SUBMITTED onward review actions may change only
// Status, ReviewedBy and ReviewComments.
type PayrollRun struct {
	ID               string          `json:"id"`
	CanteenID        string          `json:"canteen_id"`
	PeriodStart      time.Time       `json:"period_start"`
	PeriodEnd        time.Time       `json:"period_end"`
	Status           string          `json:"status"`
	TotalStaffCount  int             `json:"total_staff_count"`
	TotalGrossPay    decimal.Decimal `json:"total_gross_pay"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`
	TotalNetPay      decimal.Decimal `json:"total_net_pay"`
	TotalEPFEmployer decimal.Decimal `json:"total_epf_employer"`
	TotalETFEmployer decimal.Decimal `json:"total_etf_employer"`
	SubmittedBy      string          `json:"submitted_by,omitempty"`
	ReviewedBy       string          `json:"reviewed_by,omitempty"`
	ReviewComments   string          `json:"review_comments,omitempty"`
	ConfigVersion    int64           `json:"config_version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Items []*PayrollItem `json:"items,omitempty"`
}

// PayrollItem is one staff member's computed pay line. Items are exclusively
// owned by their run: created with it, frozen with it, deleted with it.
type PayrollItem struct {
	ID               int64           `json:"id"`
	RunID            string          `json:"run_id"`
	StaffID          string          `json:"staff_id"`
	StaffName        string          `json:"staff_name"`
	Role             string          `json:"role"`
	PayType          string          `json:"pay_type"`
	PayRate          decimal.Decimal `json:"pay_rate"`
	DaysWorked       decimal.Decimal `json:"days_worked"`
	TotalHoursWorked decimal.Decimal `json:"total_hours_worked"`
	OvertimeHours    decimal.Decimal `json:"overtime_hours"`
	BasicPay         decimal.Decimal `json:"basic_pay"`
	OvertimePay      decimal.Decimal `json:"overtime_pay"`
	Allowances       decimal.Decimal `json:"allowances"`
	GrossPay         decimal.Decimal `json:"gross_pay"`
	EPFEmployee      decimal.Decimal `json:"epf_employee"`
	EPFEmployer      decimal.Decimal `json:"epf_employer"`
	ETFEmployer      decimal.Decimal `json:"etf_employer"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`
	NetPay           decimal.Decimal `json:"net_pay"`
}

// RunEvent is one immutable audit record of a workflow transition.
type RunEvent struct {
	ID             int64     `json:"id"`
	RunID          string    `json:"run_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	ActionType     string    `json:"action_type"`
	Actor          string    `json:"actor,omitempty"`
	Comments       string    `json:"comments,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Item returns the item for the given staff id, or nil if absent.
func (r *PayrollRun) Item(staffID string) *PayrollItem {
	for _, item := range r.Items {
		if item.StaffID == staffID {
			return item
		}
	}
	return nil
}

// RecomputeAggregates sets the run totals to the exact sum of its items'
// already-rounded values. Aggregates are never edited independently.
func (r *PayrollRun) RecomputeAggregates() {
	r.TotalStaffCount = len(r.Items)
	r.TotalGrossPay = decimal.Zero
	r.TotalDeductions = decimal.Zero
	r.TotalNetPay = decimal.Zero
	r.TotalEPFEmployer = decimal.Zero
	r.TotalETFEmployer = decimal.Zero
	for _, item := range r.Items {
		r.TotalGrossPay = r.TotalGrossPay.Add(item.GrossPay)
		r.TotalDeductions = r.TotalDeductions.Add(item.TotalDeductions)
		r.TotalNetPay = r.TotalNetPay.Add(item.NetPay)
		r.TotalEPFEmployer = r.TotalEPFEmployer.Add(item.EPFEmployer)
		r.TotalETFEmployer = r.TotalETFEmployer.Add(item.ETFEmployer)
	}
}
