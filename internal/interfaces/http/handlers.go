package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opencanteen/payroll-engine/internal/application/service"
	"github.com/opencanteen/payroll-engine/internal/domain/entity"
	"github.com/opencanteen/payroll-engine/internal/domain/workflow"
	"github.com/opencanteen/payroll-engine/internal/payslip"
)

const dateLayout = "2006-01-02"

// Handlers contains all HTTP request handlers
type Handlers struct {
	payrollService service.PayrollService
	configService  service.ConfigService
	payslipService service.PayslipService
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	payrollService service.PayrollService,
	configService service.ConfigService,
	payslipService service.PayslipService,
	logger Logger,
) *Handlers {
	return &Handlers{
		payrollService: payrollService,
		configService:  configService,
		payslipService: payslipService,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// RunResponse wraps a payroll run with the transitions the server would
// currently accept for it
type RunResponse struct {
	*entity.PayrollRun
	PermittedActions []string `json:"permitted_actions"`
}

// GenerateRunRequest is the body of POST /api/payroll/runs
type GenerateRunRequest struct {
	CanteenID   string `json:"canteen_id" binding:"required"`
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

// SubmitRunRequest is the body of POST /api/payroll/runs/:id/submit
type SubmitRunRequest struct {
	SubmittedBy string `json:"submitted_by" binding:"required"`
}

// ReviewRunRequest is the body of approve and reject requests
type ReviewRunRequest struct {
	ReviewedBy string `json:"reviewed_by" binding:"required"`
	Comments   string `json:"comments"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// GenerateRun handles POST /api/payroll/runs
func (h *Handlers) GenerateRun(c *gin.Context) {
	var req GenerateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	periodStart, err := time.Parse(dateLayout, req.PeriodStart)
	if err != nil {
		h.badRequest(c, fmt.Sprintf("invalid period_start %q, expected YYYY-MM-DD", req.PeriodStart))
		return
	}
	periodEnd, err := time.Parse(dateLayout, req.PeriodEnd)
	if err != nil {
		h.badRequest(c, fmt.Sprintf("invalid period_end %q, expected YYYY-MM-DD", req.PeriodEnd))
		return
	}

	run, err := h.payrollService.Generate(c.Request.Context(), req.CanteenID, periodStart, periodEnd)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: h.runResponse(run)})
}

// GetRun handles GET /api/payroll/runs/:id
func (h *Handlers) GetRun(c *gin.Context) {
	run, err := h.payrollService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.runResponse(run)})
}

// ListRunEvents handles GET /api/payroll/runs/:id/events
func (h *Handlers) ListRunEvents(c *gin.Context) {
	events, err := h.payrollService.ListEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: events})
}

// SubmitRun handles POST /api/payroll/runs/:id/submit
func (h *Handlers) SubmitRun(c *gin.Context) {
	var req SubmitRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "submitted_by is required")
		return
	}

	run, err := h.payrollService.Submit(c.Request.Context(), c.Param("id"), req.SubmittedBy)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.runResponse(run)})
}

// BeginReview handles POST /api/payroll/runs/:id/review
func (h *Handlers) BeginReview(c *gin.Context) {
	run, err := h.payrollService.BeginReview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.runResponse(run)})
}

// ApproveRun handles POST /api/payroll/runs/:id/approve
func (h *Handlers) ApproveRun(c *gin.Context) {
	var req ReviewRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "reviewed_by is required")
		return
	}

	run, err := h.payrollService.Approve(c.Request.Context(), c.Param("id"), req.ReviewedBy, req.Comments)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.runResponse(run)})
}

// RejectRun handles POST /api/payroll/runs/:id/reject
func (h *Handlers) RejectRun(c *gin.Context) {
	var req ReviewRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "reviewed_by is required")
		return
	}

	run, err := h.payrollService.Reject(c.Request.Context(), c.Param("id"), req.ReviewedBy, req.Comments)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.runResponse(run)})
}

// ListCanteenRuns handles GET /api/canteens/:canteenId/payroll/runs
func (h *Handlers) ListCanteenRuns(c *gin.Context) {
	runs, err := h.payrollService.ListByCanteen(c.Request.Context(), c.Param("canteenId"))
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.runResponses(runs)})
}

// ListPendingRuns handles GET /api/payroll/runs/pending
func (h *Handlers) ListPendingRuns(c *gin.Context) {
	runs, err := h.payrollService.ListPending(c.Request.Context())
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.runResponses(runs)})
}

// DownloadPayslip handles GET /api/payroll/runs/:id/payslips/:staffId
func (h *Handlers) DownloadPayslip(c *gin.Context) {
	slip, err := h.payslipService.Download(c.Request.Context(), c.Param("id"), c.Param("staffId"))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", slip.FileName))
	c.Data(http.StatusOK, "application/pdf", slip.Content)
}

// ExportRun handles GET /api/payroll/runs/:id/export
func (h *Handlers) ExportRun(c *gin.Context) {
	content, fileName, err := h.payslipService.Export(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

// GetConfig handles GET /api/payroll/config
func (h *Handlers) GetConfig(c *gin.Context) {
	cfg, err := h.configService.GetCurrent(c.Request.Context())
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: cfg})
}

// GetConfigHistory handles GET /api/payroll/config/history
func (h *Handlers) GetConfigHistory(c *gin.Context) {
	configs, err := h.configService.History(c.Request.Context())
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: configs})
}

// UpdateConfig handles PUT /api/payroll/config
func (h *Handlers) UpdateConfig(c *gin.Context) {
	var update service.ConfigUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	cfg, err := h.configService.Update(c.Request.Context(), update)
	if err != nil {
		h.serviceError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: cfg})
}

func (h *Handlers) runResponse(run *entity.PayrollRun) RunResponse {
	return RunResponse{
		PayrollRun:       run,
		PermittedActions: h.payrollService.PermittedActions(run.Status),
	}
}

func (h *Handlers) runResponses(runs []*entity.PayrollRun) []RunResponse {
	responses := make([]RunResponse, 0, len(runs))
	for _, run := range runs {
		responses = append(responses, h.runResponse(run))
	}
	return responses
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// serviceError maps domain error kinds to HTTP status codes
func (h *Handlers) serviceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entity.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entity.ErrDuplicatePeriod),
		errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, entity.ErrNotApproved):
		status = http.StatusConflict
	case errors.Is(err, payslip.ErrRenderTimeout):
		status = http.StatusGatewayTimeout
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}
