package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
	"github.com/opencanteen/payroll-engine/pkg/database"
)

// PayslipRepository is the sqlite implementation of port.PayslipStore
type PayslipRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewPayslipRepository creates a new payslip repository
func NewPayslipRepository(db *database.DB, logger *zap.Logger) *PayslipRepository {
	return &PayslipRepository{db: db, logger: logger}
}

// Get returns the cached payslip for a run and staff member
func (r *PayslipRepository) Get(ctx context.Context, runID, staffID string) (*entity.Payslip, error) {
	var slip entity.Payslip
	err := r.db.QueryRowContext(ctx, `
		SELECT run_id, staff_id, file_name, content, generated_at
		FROM payslips WHERE run_id = ? AND staff_id = ?
	`, runID, staffID).Scan(&slip.RunID, &slip.StaffID, &slip.FileName, &slip.Content, &slip.GeneratedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: payslip for staff %s in run %s", entity.ErrNotFound, staffID, runID)
	}
	if err != nil {
		r.logger.Error("Failed to get payslip",
			zap.String("run_id", runID), zap.String("staff_id", staffID), zap.Error(err))
		return nil, fmt.Errorf("%w: get payslip: %v", entity.ErrPersistence, err)
	}
	return &slip, nil
}

// Save stores a rendered payslip. The first writer wins: when a concurrent
// render already committed, Save returns that stored artifact so every
// caller sees the same document.
func (r *PayslipRepository) Save(ctx context.Context, slip *entity.Payslip) (*entity.Payslip, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payslips (run_id, staff_id, file_name, content, generated_at)
		VALUES (?, ?, ?, ?, ?)
	`, slip.RunID, slip.StaffID, slip.FileName, slip.Content, slip.GeneratedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return r.Get(ctx, slip.RunID, slip.StaffID)
		}
		r.logger.Error("Failed to save payslip",
			zap.String("run_id", slip.RunID), zap.String("staff_id", slip.StaffID), zap.Error(err))
		return nil, fmt.Errorf("%w: save payslip: %v", entity.ErrPersistence, err)
	}
	return slip, nil
}
