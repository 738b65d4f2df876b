// Package calculator turns a payroll config snapshot and a roster/attendance
// snapshot into computed pay lines. Computation is pure and deterministic:
// the same inputs always produce the same items, and items for different
// staff members are independent.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
)

// currencyPlaces is the scale of stored currency values. Intermediates keep
// full precision; rounding happens once, at final output, half-up.
const currencyPlaces = 2

var percentDivisor = decimal.NewFromInt(100)

// Compute produces one PayrollItem per staff member in the roster. It fails
// with entity.ErrValidation on an inverted period, an empty roster, or
// negative rates, hours or days.
func Compute(cfg *entity.PayrollConfig, roster *entity.RosterSnapshot) ([]*entity.PayrollItem, error) {
	if err := validate(cfg, roster); err != nil {
		return nil, err
	}

	items := make([]*entity.PayrollItem, 0, len(roster.Staff))
	for i := range roster.Staff {
		items = append(items, computeItem(cfg, &roster.Staff[i], roster.ExpectedWorkingDays))
	}
	return items, nil
}

func validate(cfg *entity.PayrollConfig, roster *entity.RosterSnapshot) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if roster.PeriodEnd.Before(roster.PeriodStart) {
		return fmt.Errorf("%w: period start %s is after period end %s",
			entity.ErrValidation,
			roster.PeriodStart.Format("2006-01-02"),
			roster.PeriodEnd.Format("2006-01-02"))
	}
	if len(roster.Staff) == 0 {
		return fmt.Errorf("%w: staff roster is empty", entity.ErrValidation)
	}
	if roster.ExpectedWorkingDays.IsNegative() {
		return fmt.Errorf("%w: expected working days %s must be >= 0",
			entity.ErrValidation, roster.ExpectedWorkingDays)
	}
	for i := range roster.Staff {
		s := &roster.Staff[i]
		if !entity.IsValidPayType(s.PayType) {
			return fmt.Errorf("%w: staff %s has unknown pay type %q", entity.ErrValidation, s.StaffID, s.PayType)
		}
		if s.PayRate.IsNegative() {
			return fmt.Errorf("%w: staff %s has negative pay rate %s", entity.ErrValidation, s.StaffID, s.PayRate)
		}
		if s.DaysWorked.IsNegative() {
			return fmt.Errorf("%w: staff %s has negative days worked %s", entity.ErrValidation, s.StaffID, s.DaysWorked)
		}
		if s.TotalHoursWorked.IsNegative() {
			return fmt.Errorf("%w: staff %s has negative hours worked %s", entity.ErrValidation, s.StaffID, s.TotalHoursWorked)
		}
	}
	return nil
}

// computeItem runs the per-staff pay pipeline at full precision and rounds
// currency fields to two places only at the end, so rounding error never
// compounds across intermediate steps.
func computeItem(cfg *entity.PayrollConfig, staff *entity.StaffAttendance, expectedWorkingDays decimal.Decimal) *entity.PayrollItem {
	standardHours := cfg.StandardWorkHoursPerDay.Mul(staff.DaysWorked)

	overtimeHours := staff.TotalHoursWorked.Sub(standardHours)
	if overtimeHours.IsNegative() {
		overtimeHours = decimal.Zero
	}
	regularHours := staff.TotalHoursWorked.Sub(overtimeHours)

	var basicPay, hourlyEquivalentRate decimal.Decimal
	switch staff.PayType {
	case entity.PayTypeHourly:
		basicPay = regularHours.Mul(staff.PayRate)
		hourlyEquivalentRate = staff.PayRate
	case entity.PayTypeMonthly:
		// Proration is by the canteen's operating days in the period. A
		// canteen with zero operating days produces zero pay rather than a
		// division by zero.
		if expectedWorkingDays.IsZero() {
			basicPay = decimal.Zero
			hourlyEquivalentRate = decimal.Zero
		} else {
			basicPay = staff.PayRate.Mul(staff.DaysWorked).Div(expectedWorkingDays)
			hourlyEquivalentRate = staff.PayRate.Div(cfg.StandardWorkHoursPerDay.Mul(expectedWorkingDays))
		}
	}

	overtimePay := overtimeHours.Mul(hourlyEquivalentRate).Mul(cfg.OvertimeMultiplier)
	allowances := cfg.DefaultMealAllowance.Add(cfg.DefaultTransportAllowance).Mul(staff.DaysWorked)
	grossPay := basicPay.Add(overtimePay).Add(allowances)

	epfEmployee := grossPay.Mul(cfg.EPFEmployeeRate).Div(percentDivisor)
	epfEmployer := grossPay.Mul(cfg.EPFEmployerRate).Div(percentDivisor)
	etfEmployer := grossPay.Mul(cfg.ETFRate).Div(percentDivisor)

	// Employer-side EPF/ETF are cost lines, never withheld from net pay.
	totalDeductions := epfEmployee

	basicPay = basicPay.Round(currencyPlaces)
	overtimePay = overtimePay.Round(currencyPlaces)
	allowances = allowances.Round(currencyPlaces)
	epfEmployee = epfEmployee.Round(currencyPlaces)
	epfEmployer = epfEmployer.Round(currencyPlaces)
	etfEmployer = etfEmployer.Round(currencyPlaces)
	totalDeductions = totalDeductions.Round(currencyPlaces)
	grossPay = grossPay.Round(currencyPlaces)
	netPay := grossPay.Sub(totalDeductions)

	return &entity.PayrollItem{
		StaffID:          staff.StaffID,
		StaffName:        staff.StaffName,
		Role:             staff.Role,
		PayType:          staff.PayType,
		PayRate:          staff.PayRate,
		DaysWorked:       staff.DaysWorked,
		TotalHoursWorked: staff.TotalHoursWorked,
		OvertimeHours:    overtimeHours,
		BasicPay:         basicPay,
		OvertimePay:      overtimePay,
		Allowances:       allowances,
		GrossPay:         grossPay,
		EPFEmployee:      epfEmployee,
		EPFEmployer:      epfEmployer,
		ETFEmployer:      etfEmployer,
		TotalDeductions:  totalDeductions,
		NetPay:           netPay,
	}
}
