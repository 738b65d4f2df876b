package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
	"github.com/opencanteen/payroll-engine/pkg/database"
)

// ConfigRepository is the sqlite implementation of port.ConfigStore. Rows
// are append-only: there is no update or delete path.
type ConfigRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db *database.DB, logger *zap.Logger) *ConfigRepository {
	return &ConfigRepository{db: db, logger: logger}
}

const configColumns = `
	version, pay_period_type, overtime_multiplier,
	epf_employee_rate, epf_employer_rate, etf_rate,
	standard_work_hours_per_day,
	default_meal_allowance, default_transport_allowance, created_at
`

// GetCurrent returns the latest config version
func (r *ConfigRepository) GetCurrent(ctx context.Context) (*entity.PayrollConfig, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM payroll_configs ORDER BY version DESC LIMIT 1`)
	cfg, err := scanConfig(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: payroll config", entity.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get current config", zap.Error(err))
		return nil, fmt.Errorf("%w: get current config: %v", entity.ErrPersistence, err)
	}
	return cfg, nil
}

// GetVersion returns a specific config version
func (r *ConfigRepository) GetVersion(ctx context.Context, version int64) (*entity.PayrollConfig, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM payroll_configs WHERE version = ?`, version)
	cfg, err := scanConfig(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: payroll config version %d", entity.ErrNotFound, version)
	}
	if err != nil {
		r.logger.Error("Failed to get config version", zap.Int64("version", version), zap.Error(err))
		return nil, fmt.Errorf("%w: get config version: %v", entity.ErrPersistence, err)
	}
	return cfg, nil
}

// Create appends a new config version
func (r *ConfigRepository) Create(ctx context.Context, cfg *entity.PayrollConfig) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO payroll_configs (
			pay_period_type, overtime_multiplier,
			epf_employee_rate, epf_employer_rate, etf_rate,
			standard_work_hours_per_day,
			default_meal_allowance, default_transport_allowance, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		cfg.PayPeriodType, cfg.OvertimeMultiplier,
		cfg.EPFEmployeeRate, cfg.EPFEmployerRate, cfg.ETFRate,
		cfg.StandardWorkHoursPerDay,
		cfg.DefaultMealAllowance, cfg.DefaultTransportAllowance, now,
	)
	if err != nil {
		r.logger.Error("Failed to create config version", zap.Error(err))
		return fmt.Errorf("%w: create config: %v", entity.ErrPersistence, err)
	}

	version, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: config version id: %v", entity.ErrPersistence, err)
	}
	cfg.Version = version
	cfg.CreatedAt = now
	return nil
}

// ListVersions returns all config versions, newest first
func (r *ConfigRepository) ListVersions(ctx context.Context) ([]*entity.PayrollConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+configColumns+` FROM payroll_configs ORDER BY version DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list config versions: %v", entity.ErrPersistence, err)
	}
	defer rows.Close()

	var configs []*entity.PayrollConfig
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan config: %v", entity.ErrPersistence, err)
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

func scanConfig(row rowScanner) (*entity.PayrollConfig, error) {
	var cfg entity.PayrollConfig
	err := row.Scan(
		&cfg.Version, &cfg.PayPeriodType, &cfg.OvertimeMultiplier,
		&cfg.EPFEmployeeRate, &cfg.EPFEmployerRate, &cfg.ETFRate,
		&cfg.StandardWorkHoursPerDay,
		&cfg.DefaultMealAllowance, &cfg.DefaultTransportAllowance, &cfg.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
