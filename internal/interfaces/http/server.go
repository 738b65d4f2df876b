// Package http provides the HTTP adapter over the application services. It
// translates requests to service calls and error kinds to status codes; it
// never decides workflow legality itself.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opencanteen/payroll-engine/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config         ServerConfig
	httpServer     *http.Server
	router         *gin.Engine
	payrollService service.PayrollService
	configService  service.ConfigService
	payslipService service.PayslipService
	logger         Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(
	config ServerConfig,
	payrollService service.PayrollService,
	configService service.ConfigService,
	payslipService service.PayslipService,
	logger Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:         config,
		router:         gin.New(),
		payrollService: payrollService,
		configService:  configService,
		payslipService: payslipService,
		logger:         logger,
	}

	server.setupMiddleware()
	server.setupRoutes()
	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.payrollService, s.configService, s.payslipService, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		api.POST("/payroll/runs", handlers.GenerateRun)
		api.GET("/payroll/runs/pending", handlers.ListPendingRuns)
		api.GET("/payroll/runs/:id", handlers.GetRun)
		api.GET("/payroll/runs/:id/events", handlers.ListRunEvents)
		api.POST("/payroll/runs/:id/submit", handlers.SubmitRun)
		api.POST("/payroll/runs/:id/review", handlers.BeginReview)
		api.POST("/payroll/runs/:id/approve", handlers.ApproveRun)
		api.POST("/payroll/runs/:id/reject", handlers.RejectRun)
		api.GET("/payroll/runs/:id/export", handlers.ExportRun)
		api.GET("/payroll/runs/:id/payslips/:staffId", handlers.DownloadPayslip)

		api.GET("/canteens/:canteenId/payroll/runs", handlers.ListCanteenRuns)

		api.GET("/payroll/config", handlers.GetConfig)
		api.GET("/payroll/config/history", handlers.GetConfigHistory)
		api.PUT("/payroll/config", handlers.UpdateConfig)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
