package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/opencanteen/payroll-engine/internal/application/port"
	"github.com/opencanteen/payroll-engine/internal/domain/entity"
	"github.com/opencanteen/payroll-engine/pkg/utils"
)

// ConfigUpdate carries the fields of a configuration update. Nil fields
// keep the current version's value, so callers may patch a single rate.
type ConfigUpdate struct {
	PayPeriodType             *string          `json:"pay_period_type,omitempty"`
	OvertimeMultiplier        *decimal.Decimal `json:"overtime_multiplier,omitempty"`
	EPFEmployeeRate           *decimal.Decimal `json:"epf_employee_rate,omitempty"`
	EPFEmployerRate           *decimal.Decimal `json:"epf_employer_rate,omitempty"`
	ETFRate                   *decimal.Decimal `json:"etf_rate,omitempty"`
	StandardWorkHoursPerDay   *decimal.Decimal `json:"standard_work_hours_per_day,omitempty"`
	DefaultMealAllowance      *decimal.Decimal `json:"default_meal_allowance,omitempty"`
	DefaultTransportAllowance *decimal.Decimal `json:"default_transport_allowance,omitempty"`
}

// ConfigService manages the append-only payroll configuration.
type ConfigService interface {
	GetCurrent(ctx context.Context) (*entity.PayrollConfig, error)
	History(ctx context.Context) ([]*entity.PayrollConfig, error)
	Update(ctx context.Context, update ConfigUpdate) (*entity.PayrollConfig, error)
}

type configServiceImpl struct {
	store  port.ConfigStore
	logger Logger
}

// NewConfigService creates a new ConfigService
func NewConfigService(store port.ConfigStore, logger Logger) ConfigService {
	return &configServiceImpl{store: store, logger: logger}
}

func (s *configServiceImpl) GetCurrent(ctx context.Context) (*entity.PayrollConfig, error) {
	return s.store.GetCurrent(ctx)
}

func (s *configServiceImpl) History(ctx context.Context) ([]*entity.PayrollConfig, error) {
	return s.store.ListVersions(ctx)
}

// Update merges the patch over the current version, validates the result,
// and appends it as a new immutable version. Prior versions, and every run
// that references them, are untouched.
func (s *configServiceImpl) Update(ctx context.Context, update ConfigUpdate) (*entity.PayrollConfig, error) {
	// Rate patches are checked up front so the error names the offending
	// request field; the merged config is still validated as a whole below.
	for name, rate := range map[string]*decimal.Decimal{
		"epf_employee_rate": update.EPFEmployeeRate,
		"epf_employer_rate": update.EPFEmployerRate,
		"etf_rate":          update.ETFRate,
	} {
		if rate == nil {
			continue
		}
		if err := utils.ValidatePercentage(name, *rate); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
		}
	}

	current, err := s.store.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	next := *current
	if update.PayPeriodType != nil {
		next.PayPeriodType = *update.PayPeriodType
	}
	if update.OvertimeMultiplier != nil {
		next.OvertimeMultiplier = *update.OvertimeMultiplier
	}
	if update.EPFEmployeeRate != nil {
		next.EPFEmployeeRate = *update.EPFEmployeeRate
	}
	if update.EPFEmployerRate != nil {
		next.EPFEmployerRate = *update.EPFEmployerRate
	}
	if update.ETFRate != nil {
		next.ETFRate = *update.ETFRate
	}
	if update.StandardWorkHoursPerDay != nil {
		next.StandardWorkHoursPerDay = *update.StandardWorkHoursPerDay
	}
	if update.DefaultMealAllowance != nil {
		next.DefaultMealAllowance = *update.DefaultMealAllowance
	}
	if update.DefaultTransportAllowance != nil {
		next.DefaultTransportAllowance = *update.DefaultTransportAllowance
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, &next); err != nil {
		s.logger.Error("Failed to store config version", "error", err)
		return nil, err
	}

	s.logger.Info("Payroll config updated", "version", next.Version)
	return &next, nil
}
