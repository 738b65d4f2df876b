package payslip

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
)

func renderFixture() (*entity.PayrollRun, *entity.PayrollItem, *entity.PayrollConfig) {
	run := &entity.PayrollRun{
		ID:            "run-1",
		CanteenID:     "canteen-1",
		PeriodStart:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:     time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:        entity.StatusApproved,
		ConfigVersion: 1,
	}
	item := &entity.PayrollItem{
		RunID:            "run-1",
		StaffID:          "S-001",
		StaffName:        "Kamala Perera",
		Role:             "Chef",
		PayType:          entity.PayTypeHourly,
		PayRate:          decimal.NewFromInt(100),
		DaysWorked:       decimal.NewFromInt(20),
		TotalHoursWorked: decimal.NewFromInt(170),
		OvertimeHours:    decimal.NewFromInt(10),
		BasicPay:         decimal.RequireFromString("16000.00"),
		OvertimePay:      decimal.RequireFromString("1500.00"),
		GrossPay:         decimal.RequireFromString("17500.00"),
		EPFEmployee:      decimal.RequireFromString("1400.00"),
		EPFEmployer:      decimal.RequireFromString("2100.00"),
		ETFEmployer:      decimal.RequireFromString("525.00"),
		TotalDeductions:  decimal.RequireFromString("1400.00"),
		NetPay:           decimal.RequireFromString("16100.00"),
	}
	cfg := &entity.PayrollConfig{
		Version:                 1,
		PayPeriodType:           entity.PayPeriodMonthly,
		OvertimeMultiplier:      decimal.NewFromFloat(1.5),
		EPFEmployeeRate:         decimal.NewFromInt(8),
		EPFEmployerRate:         decimal.NewFromInt(12),
		ETFRate:                 decimal.NewFromInt(3),
		StandardWorkHoursPerDay: decimal.NewFromInt(8),
	}
	return run, item, cfg
}

func TestRenderer_Render(t *testing.T) {
	renderer := NewRenderer("Canteen Platform", zap.NewNop())
	run, item, cfg := renderFixture()
	generatedAt := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

	content, err := renderer.Render(context.Background(), run, item, cfg, generatedAt)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")), "output is not a PDF")
}

func TestRenderer_Deterministic(t *testing.T) {
	renderer := NewRenderer("Canteen Platform", zap.NewNop())
	run, item, cfg := renderFixture()
	generatedAt := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

	first, err := renderer.Render(context.Background(), run, item, cfg, generatedAt)
	require.NoError(t, err)
	second, err := renderer.Render(context.Background(), run, item, cfg, generatedAt)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same inputs and stamp must reproduce identical bytes")
}

func TestRenderer_CancelledContext(t *testing.T) {
	renderer := NewRenderer("Canteen Platform", zap.NewNop())
	run, item, cfg := renderFixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := renderer.Render(ctx, run, item, cfg, time.Now())
	assert.True(t, errors.Is(err, ErrRenderTimeout), "error = %v, want ErrRenderTimeout", err)
}
