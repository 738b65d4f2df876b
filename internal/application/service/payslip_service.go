package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opencanteen/payroll-engine/internal/application/port"
	"github.com/opencanteen/payroll-engine/internal/domain/entity"
	"github.com/opencanteen/payroll-engine/internal/payslip"
	"github.com/opencanteen/payroll-engine/pkg/utils"
)

// renderAttempts bounds timeout retries. Rendering a frozen approved run is
// deterministic, so a retry can never produce a different document.
const renderAttempts = 2

// PayslipService renders and caches payslips for approved runs, and
// produces run-level spreadsheet exports.
type PayslipService interface {
	// Download returns the payslip for one staff member of an approved
	// run, rendering and caching it on first request.
	Download(ctx context.Context, runID, staffID string) (*entity.Payslip, error)

	// Export returns an xlsx summary of an approved run and its suggested
	// filename.
	Export(ctx context.Context, runID string) ([]byte, string, error)
}

type payslipServiceImpl struct {
	runRepo       port.RunRepository
	configStore   port.ConfigStore
	slipStore     port.PayslipStore
	renderer      port.PayslipRenderer
	exporter      port.RunExporter
	archive       port.DocumentArchive
	renderTimeout time.Duration
	now           func() time.Time
	logger        Logger
}

// NewPayslipService creates a new PayslipService
func NewPayslipService(
	runRepo port.RunRepository,
	configStore port.ConfigStore,
	slipStore port.PayslipStore,
	renderer port.PayslipRenderer,
	exporter port.RunExporter,
	archive port.DocumentArchive,
	renderTimeout time.Duration,
	logger Logger,
) PayslipService {
	return &payslipServiceImpl{
		runRepo:       runRepo,
		configStore:   configStore,
		slipStore:     slipStore,
		renderer:      renderer,
		exporter:      exporter,
		archive:       archive,
		renderTimeout: renderTimeout,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logger,
	}
}

func (s *payslipServiceImpl) Download(ctx context.Context, runID, staffID string) (*entity.Payslip, error) {
	run, err := s.approvedRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	item := run.Item(staffID)
	if item == nil {
		return nil, fmt.Errorf("%w: staff %s in run %s", entity.ErrNotFound, staffID, runID)
	}

	cached, err := s.slipStore.Get(ctx, runID, staffID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return nil, err
	}

	// The config rates shown on a payslip are the ones the run was
	// generated against, never the current live configuration.
	cfg, err := s.configStore.GetVersion(ctx, run.ConfigVersion)
	if err != nil {
		return nil, err
	}

	generatedAt := s.now()
	content, err := s.render(ctx, run, item, cfg, generatedAt)
	if err != nil {
		return nil, err
	}

	slip := &entity.Payslip{
		RunID:       runID,
		StaffID:     staffID,
		FileName:    fmt.Sprintf("payslip_%s.pdf", utils.SanitizeFileName(staffID)),
		Content:     content,
		GeneratedAt: generatedAt,
	}

	stored, err := s.slipStore.Save(ctx, slip)
	if err != nil {
		return nil, err
	}
	s.archiveDocument(runID, stored.FileName, stored.Content)

	s.logger.Info("Payslip rendered",
		"run_id", runID,
		"staff_id", staffID,
		"bytes", len(stored.Content))
	return stored, nil
}

// archiveDocument is best effort; an archive failure never fails the
// request because the database copy already exists.
func (s *payslipServiceImpl) archiveDocument(runID, fileName string, content []byte) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Store(runID, fileName, content); err != nil {
		s.logger.Error("Failed to archive document",
			"run_id", runID, "file_name", fileName, "error", err)
	}
}

// render retries once on timeout; rendering is side-effect-free so the
// retry is safe.
func (s *payslipServiceImpl) render(ctx context.Context, run *entity.PayrollRun, item *entity.PayrollItem, cfg *entity.PayrollConfig, generatedAt time.Time) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < renderAttempts; attempt++ {
		content, err := s.renderOnce(ctx, run, item, cfg, generatedAt)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !errors.Is(err, payslip.ErrRenderTimeout) {
			return nil, err
		}
		s.logger.Error("Payslip render timed out, retrying",
			"run_id", run.ID, "staff_id", item.StaffID, "attempt", attempt+1)
	}
	return nil, lastErr
}

func (s *payslipServiceImpl) renderOnce(ctx context.Context, run *entity.PayrollRun, item *entity.PayrollItem, cfg *entity.PayrollConfig, generatedAt time.Time) ([]byte, error) {
	if s.renderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.renderTimeout)
		defer cancel()
	}
	return s.renderer.Render(ctx, run, item, cfg, generatedAt)
}

func (s *payslipServiceImpl) Export(ctx context.Context, runID string) ([]byte, string, error) {
	run, err := s.approvedRun(ctx, runID)
	if err != nil {
		return nil, "", err
	}

	cfg, err := s.configStore.GetVersion(ctx, run.ConfigVersion)
	if err != nil {
		return nil, "", err
	}

	content, err := s.exporter.Export(ctx, run, cfg)
	if err != nil {
		return nil, "", err
	}

	fileName := fmt.Sprintf("payroll_run_%s.xlsx", utils.SanitizeFileName(runID))
	s.archiveDocument(runID, fileName, content)
	return content, fileName, nil
}

func (s *payslipServiceImpl) approvedRun(ctx context.Context, runID string) (*entity.PayrollRun, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status != entity.StatusApproved {
		return nil, fmt.Errorf("%w: run %s is %s", entity.ErrNotApproved, runID, run.Status)
	}
	return run, nil
}
