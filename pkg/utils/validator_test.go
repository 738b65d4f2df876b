package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidatePeriod(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2025, time.July, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr bool
	}{
		{name: "accepts a normal period", start: day(1), end: day(15)},
		{name: "accepts a single-day period", start: day(1), end: day(1)},
		{name: "rejects zero start", start: time.Time{}, end: day(15), wantErr: true},
		{name: "rejects zero end", start: day(1), end: time.Time{}, wantErr: true},
		{name: "rejects end before start", start: day(15), end: day(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePeriod(tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePercentage(t *testing.T) {
	tests := []struct {
		name    string
		rate    decimal.Decimal
		wantErr bool
	}{
		{name: "accepts zero", rate: decimal.Zero},
		{name: "accepts a statutory rate", rate: decimal.NewFromFloat(8.5)},
		{name: "accepts the upper bound", rate: decimal.NewFromInt(100)},
		{name: "rejects a negative rate", rate: decimal.NewFromInt(-1), wantErr: true},
		{name: "rejects a rate above 100", rate: decimal.NewFromInt(120), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePercentage("etf_rate", tt.rate)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "etf_rate")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNonEmpty(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "accepts a value", value: "hr-admin"},
		{name: "accepts a value with inner spaces", value: "needs rework"},
		{name: "rejects an empty string", value: "", wantErr: true},
		{name: "rejects whitespace only", value: "  \t\n", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNonEmpty("reviewed_by", tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "reviewed_by")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "passes a plain id through", input: "run-2025-07", expected: "run-2025-07"},
		{name: "maps path separators to underscores", input: "a/b\\c:d", expected: "a_b_c_d"},
		{name: "strips control characters", input: "run\x00\x1f\x7f-1", expected: "run-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeFileName(tt.input))
		})
	}
}
