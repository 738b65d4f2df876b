package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PayrollConfig is one immutable version of the platform payroll
// configuration. Updating configuration appends a new version; runs keep the
// version number they were generated against and are never recomputed.
type PayrollConfig struct {
	Version                   int64           `json:"version"`
	PayPeriodType             string          `json:"pay_period_type"`
	OvertimeMultiplier        decimal.Decimal `json:"overtime_multiplier"`
	EPFEmployeeRate           decimal.Decimal `json:"epf_employee_rate"`
	EPFEmployerRate           decimal.Decimal `json:"epf_employer_rate"`
	ETFRate                   decimal.Decimal `json:"etf_rate"`
	StandardWorkHoursPerDay   decimal.Decimal `json:"standard_work_hours_per_day"`
	DefaultMealAllowance      decimal.Decimal `json:"default_meal_allowance"`
	DefaultTransportAllowance decimal.Decimal `json:"default_transport_allowance"`
	CreatedAt                 time.Time       `json:"created_at"`
}

var (
	decimalOne     = decimal.NewFromInt(1)
	decimalHundred = decimal.NewFromInt(100)
)

// Validate checks the configuration invariants: percentage rates in [0,100],
// overtime multiplier at least 1, positive standard hours, non-negative
// allowances, and a known pay period type.
func (c *PayrollConfig) Validate() error {
	if !IsValidPayPeriodType(c.PayPeriodType) {
		return fmt.Errorf("%w: unknown pay period type %q", ErrValidation, c.PayPeriodType)
	}
	if c.OvertimeMultiplier.LessThan(decimalOne) {
		return fmt.Errorf("%w: overtime multiplier %s must be >= 1", ErrValidation, c.OvertimeMultiplier)
	}
	for name, rate := range map[string]decimal.Decimal{
		"epf_employee_rate": c.EPFEmployeeRate,
		"epf_employer_rate": c.EPFEmployerRate,
		"etf_rate":          c.ETFRate,
	} {
		if rate.IsNegative() || rate.GreaterThan(decimalHundred) {
			return fmt.Errorf("%w: %s %s must be within [0,100]", ErrValidation, name, rate)
		}
	}
	if !c.StandardWorkHoursPerDay.IsPositive() {
		return fmt.Errorf("%w: standard work hours per day %s must be > 0", ErrValidation, c.StandardWorkHoursPerDay)
	}
	if c.DefaultMealAllowance.IsNegative() {
		return fmt.Errorf("%w: meal allowance %s must be >= 0", ErrValidation, c.DefaultMealAllowance)
	}
	if c.DefaultTransportAllowance.IsNegative() {
		return fmt.Errorf("%w: transport allowance %s must be >= 0", ErrValidation, c.DefaultTransportAllowance)
	}
	return nil
}
