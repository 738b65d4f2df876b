// Package payslip renders per-staff payslip documents from approved payroll
// runs. The document embeds the frozen run figures and the config rates the
// run was generated against; given the same inputs and generation timestamp
// the output bytes are identical.
package payslip

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
)

const dateLayout = "2006-01-02"

// Renderer produces payslip PDFs
type Renderer struct {
	platformName string
	logger       *zap.Logger
}

// NewRenderer creates a new payslip renderer
func NewRenderer(platformName string, logger *zap.Logger) *Renderer {
	return &Renderer{platformName: platformName, logger: logger}
}

// Render produces the PDF bytes for one staff member's payslip
func (r *Renderer) Render(ctx context.Context, run *entity.PayrollRun, item *entity.PayrollItem, cfg *entity.PayrollConfig, generatedAt time.Time) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderTimeout, err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	// Pin the document metadata clock so re-rendering with the same stamp
	// reproduces identical bytes.
	pdf.SetCreationDate(generatedAt)
	pdf.SetTitle(fmt.Sprintf("Payslip %s", item.StaffID), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, r.platformName, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, "PAYSLIP", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 10)
	r.keyValue(pdf, "Staff", fmt.Sprintf("%s (%s)", item.StaffName, item.StaffID))
	r.keyValue(pdf, "Role", item.Role)
	r.keyValue(pdf, "Canteen", run.CanteenID)
	r.keyValue(pdf, "Pay Period", fmt.Sprintf("%s to %s (%s)",
		run.PeriodStart.Format(dateLayout), run.PeriodEnd.Format(dateLayout), cfg.PayPeriodType))
	r.keyValue(pdf, "Pay Type", item.PayType)
	r.keyValue(pdf, "Days Worked", item.DaysWorked.String())
	r.keyValue(pdf, "Hours Worked", item.TotalHoursWorked.String())
	r.keyValue(pdf, "Overtime Hours", item.OvertimeHours.String())
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Earnings", "B", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	r.amountRow(pdf, "Basic Pay", item.BasicPay)
	r.amountRow(pdf, fmt.Sprintf("Overtime Pay (x%s)", cfg.OvertimeMultiplier.String()), item.OvertimePay)
	r.amountRow(pdf, "Allowances", item.Allowances)
	pdf.SetFont("Helvetica", "B", 10)
	r.amountRow(pdf, "Gross Pay", item.GrossPay)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Deductions", "B", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	r.amountRow(pdf, fmt.Sprintf("EPF Employee (%s%%)", cfg.EPFEmployeeRate.String()), item.EPFEmployee)
	pdf.SetFont("Helvetica", "B", 10)
	r.amountRow(pdf, "Total Deductions", item.TotalDeductions)
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	r.amountRow(pdf, "Net Pay", item.NetPay)
	pdf.Ln(5)

	// Employer contributions are cost lines, shown for transparency but
	// never withheld from net pay.
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, "Employer Contributions", "B", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	r.amountRow(pdf, fmt.Sprintf("EPF Employer (%s%%)", cfg.EPFEmployerRate.String()), item.EPFEmployer)
	r.amountRow(pdf, fmt.Sprintf("ETF (%s%%)", cfg.ETFRate.String()), item.ETFEmployer)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("Run %s, config version %d, generated %s",
		run.ID, run.ConfigVersion, generatedAt.Format(time.RFC3339)), "", 1, "", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to produce payslip PDF: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderTimeout, err)
	}

	r.logger.Debug("Payslip rendered",
		zap.String("run_id", run.ID),
		zap.String("staff_id", item.StaffID),
		zap.Int("bytes", buf.Len()))
	return buf.Bytes(), nil
}

func (r *Renderer) keyValue(pdf *gofpdf.Fpdf, key, value string) {
	pdf.CellFormat(45, 6, key, "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, value, "", 1, "", false, 0, "")
}

func (r *Renderer) amountRow(pdf *gofpdf.Fpdf, label string, amount decimal.Decimal) {
	pdf.CellFormat(120, 6, label, "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, amount.StringFixed(2), "", 1, "R", false, 0, "")
}
