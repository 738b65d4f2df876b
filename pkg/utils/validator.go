package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValidatePeriod checks that a payroll period is well formed
func ValidatePeriod(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return fmt.Errorf("period start and end are required")
	}
	if end.Before(start) {
		return fmt.Errorf("period start %s is after period end %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return nil
}

// ValidatePercentage checks that a statutory rate lies within [0,100]
func ValidatePercentage(name string, rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("%s must be within [0,100], got %s", name, rate)
	}
	return nil
}

// ValidateNonEmpty checks that a required text field carries more than
// whitespace
func ValidateNonEmpty(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s must not be empty", name)
	}
	return nil
}

// SanitizeFileName strips path separators and control characters from a
// caller-supplied id before it is used in a suggested download filename
func SanitizeFileName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r < 0x20 || r == 0x7f:
		case r == '/' || r == '\\' || r == ':':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
