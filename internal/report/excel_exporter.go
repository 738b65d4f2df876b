// Package report produces spreadsheet summaries of approved payroll runs
// for accountants and canteen owners.
package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
)

const sheetName = "Payroll Run"

var headerRow = []string{
	"Staff ID", "Name", "Role", "Pay Type", "Pay Rate",
	"Days Worked", "Hours Worked", "Overtime Hours",
	"Basic Pay", "Overtime Pay", "Allowances", "Gross Pay",
	"EPF Employee", "EPF Employer", "ETF Employer",
	"Total Deductions", "Net Pay",
}

// ExcelExporter renders one approved run per workbook
type ExcelExporter struct {
	logger *zap.Logger
}

// NewExcelExporter creates a new exporter
func NewExcelExporter(logger *zap.Logger) *ExcelExporter {
	return &ExcelExporter{logger: logger}
}

// Export builds an xlsx with one row per payroll item plus an aggregate
// footer row taken from the run totals.
func (e *ExcelExporter) Export(ctx context.Context, run *entity.PayrollRun, cfg *entity.PayrollConfig) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	e.setRow(f, 1, []interface{}{"Canteen", run.CanteenID})
	e.setRow(f, 2, []interface{}{"Period", fmt.Sprintf("%s to %s",
		run.PeriodStart.Format("2006-01-02"), run.PeriodEnd.Format("2006-01-02"))})
	e.setRow(f, 3, []interface{}{"Status", run.Status})
	e.setRow(f, 4, []interface{}{"Config Version", run.ConfigVersion})
	e.setRow(f, 5, []interface{}{"Pay Period Type", cfg.PayPeriodType})

	header := make([]interface{}, len(headerRow))
	for i, h := range headerRow {
		header[i] = h
	}
	e.setRow(f, 7, header)

	row := 8
	for _, item := range run.Items {
		e.setRow(f, row, []interface{}{
			item.StaffID, item.StaffName, item.Role, item.PayType,
			item.PayRate.StringFixed(2),
			item.DaysWorked.String(), item.TotalHoursWorked.String(), item.OvertimeHours.String(),
			item.BasicPay.StringFixed(2), item.OvertimePay.StringFixed(2),
			item.Allowances.StringFixed(2), item.GrossPay.StringFixed(2),
			item.EPFEmployee.StringFixed(2), item.EPFEmployer.StringFixed(2),
			item.ETFEmployer.StringFixed(2),
			item.TotalDeductions.StringFixed(2), item.NetPay.StringFixed(2),
		})
		row++
	}

	e.setRow(f, row+1, []interface{}{
		"TOTALS", "", "", "", "", "", "", "",
		"", "", "", run.TotalGrossPay.StringFixed(2),
		"", run.TotalEPFEmployer.StringFixed(2), run.TotalETFEmployer.StringFixed(2),
		run.TotalDeductions.StringFixed(2), run.TotalNetPay.StringFixed(2),
	})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Debug("Run summary exported",
		zap.String("run_id", run.ID),
		zap.Int("items", len(run.Items)))
	return buf.Bytes(), nil
}

func (e *ExcelExporter) setRow(f *excelize.File, row int, values []interface{}) {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		e.logger.Warn("Failed to set sheet row", zap.Int("row", row), zap.Error(err))
	}
}
