package port

import (
	"context"
	"time"

	"github.com/opencanteen/payroll-engine/internal/domain/entity"
)

// PayslipRenderer produces the payslip document bytes for one staff member
// of an approved run. Rendering is deterministic given the frozen run, the
// config version it was generated against, and the generation timestamp.
type PayslipRenderer interface {
	Render(ctx context.Context, run *entity.PayrollRun, item *entity.PayrollItem, cfg *entity.PayrollConfig, generatedAt time.Time) ([]byte, error)
}

// RunExporter produces a spreadsheet summary of an approved run.
type RunExporter interface {
	Export(ctx context.Context, run *entity.PayrollRun, cfg *entity.PayrollConfig) ([]byte, error)
}

// DocumentArchive keeps on-disk copies of generated documents, grouped by
// run. Archiving is best effort; the cached copy in the database stays the
// source of truth.
type DocumentArchive interface {
	Store(runID, fileName string, content []byte) error
}
