package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/opencanteen/payroll-engine/internal/application/port"
	"github.com/opencanteen/payroll-engine/internal/calculator"
	"github.com/opencanteen/payroll-engine/internal/domain/entity"
	"github.com/opencanteen/payroll-engine/internal/domain/workflow"
	"github.com/opencanteen/payroll-engine/pkg/utils"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// PayrollService manages payroll run generation and its approval lifecycle
type PayrollService interface {
	Generate(ctx context.Context, canteenID string, periodStart, periodEnd time.Time) (*entity.PayrollRun, error)
	Submit(ctx context.Context, runID, submittedBy string) (*entity.PayrollRun, error)
	BeginReview(ctx context.Context, runID string) (*entity.PayrollRun, error)
	Approve(ctx context.Context, runID, reviewedBy, comments string) (*entity.PayrollRun, error)
	Reject(ctx context.Context, runID, reviewedBy, comments string) (*entity.PayrollRun, error)
	GetByID(ctx context.Context, runID string) (*entity.PayrollRun, error)
	ListByCanteen(ctx context.Context, canteenID string) ([]*entity.PayrollRun, error)
	ListPending(ctx context.Context) ([]*entity.PayrollRun, error)
	ListEvents(ctx context.Context, runID string) ([]*entity.RunEvent, error)
	PermittedActions(status string) []string
}

type payrollServiceImpl struct {
	runRepo     port.RunRepository
	configStore port.ConfigStore
	attendance  port.AttendanceSource
	machine     *workflow.Machine
	logger      Logger
}

// NewPayrollService creates a new PayrollService
func NewPayrollService(
	runRepo port.RunRepository,
	configStore port.ConfigStore,
	attendance port.AttendanceSource,
	logger Logger,
) PayrollService {
	return &payrollServiceImpl{
		runRepo:     runRepo,
		configStore: configStore,
		attendance:  attendance,
		machine:     workflow.NewPayrollMachine(),
		logger:      logger,
	}
}

// Generate computes a DRAFT run for the canteen and period against the
// current config version and persists it atomically with its items.
func (s *payrollServiceImpl) Generate(ctx context.Context, canteenID string, periodStart, periodEnd time.Time) (*entity.PayrollRun, error) {
	if err := utils.ValidateNonEmpty("canteen_id", canteenID); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	if err := utils.ValidatePeriod(periodStart, periodEnd); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}

	active, err := s.runRepo.HasActiveRun(ctx, canteenID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, fmt.Errorf("%w: canteen %s, period %s to %s",
			entity.ErrDuplicatePeriod, canteenID,
			periodStart.Format("2006-01-02"), periodEnd.Format("2006-01-02"))
	}

	cfg, err := s.configStore.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.attendance.Snapshot(ctx, canteenID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}

	items, err := calculator.Compute(cfg, snapshot)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	run := &entity.PayrollRun{
		ID:            uuid.NewString(),
		CanteenID:     canteenID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		Status:        entity.StatusDraft,
		ConfigVersion: cfg.Version,
		CreatedAt:     now,
		UpdatedAt:     now,
		Items:         items,
	}
	for _, item := range items {
		item.RunID = run.ID
	}
	run.RecomputeAggregates()

	if err := s.runRepo.CreateWithItems(ctx, run); err != nil {
		s.logger.Error("Failed to persist payroll run", "error", err, "canteen_id", canteenID)
		return nil, err
	}

	s.logger.Info("Payroll run generated",
		"run_id", run.ID,
		"canteen_id", canteenID,
		"staff_count", run.TotalStaffCount,
		"config_version", cfg.Version)
	return run, nil
}

// Submit moves a DRAFT run to SUBMITTED
func (s *payrollServiceImpl) Submit(ctx context.Context, runID, submittedBy string) (*entity.PayrollRun, error) {
	if err := utils.ValidateNonEmpty("submitted_by", submittedBy); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	return s.transition(ctx, runID, workflow.TriggerSubmit, port.StatusTransition{
		ActionType:     entity.ActionTypeSubmit,
		Actor:          submittedBy,
		SetSubmittedBy: true,
	})
}

// BeginReview moves a SUBMITTED run to UNDER_REVIEW
func (s *payrollServiceImpl) BeginReview(ctx context.Context, runID string) (*entity.PayrollRun, error) {
	return s.transition(ctx, runID, workflow.TriggerBeginReview, port.StatusTransition{
		ActionType: entity.ActionTypeBeginReview,
	})
}

// Approve moves a SUBMITTED or UNDER_REVIEW run to APPROVED, freezing all
// financial fields permanently.
func (s *payrollServiceImpl) Approve(ctx context.Context, runID, reviewedBy, comments string) (*entity.PayrollRun, error) {
	if err := utils.ValidateNonEmpty("reviewed_by", reviewedBy); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	return s.transition(ctx, runID, workflow.TriggerApprove, port.StatusTransition{
		ActionType:  entity.ActionTypeApprove,
		Actor:       reviewedBy,
		Comments:    comments,
		SetReviewer: true,
	})
}

// Reject moves a SUBMITTED or UNDER_REVIEW run to REJECTED. Comments are
// mandatory: a rejected run is a terminal audit record and must say why.
func (s *payrollServiceImpl) Reject(ctx context.Context, runID, reviewedBy, comments string) (*entity.PayrollRun, error) {
	if err := utils.ValidateNonEmpty("reviewed_by", reviewedBy); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	if err := utils.ValidateNonEmpty("rejection comments", comments); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	return s.transition(ctx, runID, workflow.TriggerReject, port.StatusTransition{
		ActionType:  entity.ActionTypeReject,
		Actor:       reviewedBy,
		Comments:    comments,
		SetReviewer: true,
	})
}

// transition validates the trigger against the transition table, then
// applies it with a compare-and-set on the current status. A concurrent
// transition that wins the race surfaces as ErrInvalidTransition.
func (s *payrollServiceImpl) transition(ctx context.Context, runID string, trigger workflow.Trigger, t port.StatusTransition) (*entity.PayrollRun, error) {
	run, err := s.runRepo.GetByID(ctx, runID)
	if err != nil {
		return nil, err
	}

	next, err := s.machine.Next(workflow.State(run.Status), trigger)
	if err != nil {
		return nil, err
	}

	t.RunID = runID
	t.FromStatus = run.Status
	t.ToStatus = next.String()

	applied, err := s.runRepo.Transition(ctx, t)
	if err != nil {
		s.logger.Error("Failed to apply transition", "error", err, "run_id", runID, "trigger", trigger.String())
		return nil, err
	}
	if !applied {
		return nil, fmt.Errorf("%w: run %s left %s before %s could apply",
			workflow.ErrInvalidTransition, runID, run.Status, trigger)
	}

	s.logger.Info("Payroll run transitioned",
		"run_id", runID,
		"from", run.Status,
		"to", next.String(),
		"actor", t.Actor)

	return s.runRepo.GetByID(ctx, runID)
}

// GetByID returns a run with its items
func (s *payrollServiceImpl) GetByID(ctx context.Context, runID string) (*entity.PayrollRun, error) {
	return s.runRepo.GetByID(ctx, runID)
}

// ListByCanteen returns a canteen's runs, newest first
func (s *payrollServiceImpl) ListByCanteen(ctx context.Context, canteenID string) ([]*entity.PayrollRun, error) {
	return s.runRepo.ListByCanteen(ctx, canteenID)
}

// ListPending returns runs awaiting review
func (s *payrollServiceImpl) ListPending(ctx context.Context) ([]*entity.PayrollRun, error) {
	return s.runRepo.ListPending(ctx)
}

// ListEvents returns a run's audit trail
func (s *payrollServiceImpl) ListEvents(ctx context.Context, runID string) ([]*entity.RunEvent, error) {
	if _, err := s.runRepo.GetByID(ctx, runID); err != nil {
		return nil, err
	}
	return s.runRepo.ListEvents(ctx, runID)
}

// PermittedActions reports which triggers the server would currently accept
// for a run in the given status. The UI reflects these instead of deciding
// legality on its own.
func (s *payrollServiceImpl) PermittedActions(status string) []string {
	triggers := s.machine.PermittedTriggers(workflow.State(status))
	actions := make([]string, 0, len(triggers))
	for _, t := range triggers {
		actions = append(actions, t.String())
	}
	return actions
}
