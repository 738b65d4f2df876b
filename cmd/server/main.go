package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opencanteen/payroll-engine/internal/application/service"
	"github.com/opencanteen/payroll-engine/internal/config"
	"github.com/opencanteen/payroll-engine/internal/infrastructure/persistence/repository"
	httpiface "github.com/opencanteen/payroll-engine/internal/interfaces/http"
	"github.com/opencanteen/payroll-engine/internal/payslip"
	"github.com/opencanteen/payroll-engine/internal/report"
	"github.com/opencanteen/payroll-engine/internal/storage"
	"github.com/opencanteen/payroll-engine/migrations"
	"github.com/opencanteen/payroll-engine/pkg/database"
	"github.com/opencanteen/payroll-engine/pkg/utils"
)

func main() {
	configPath := os.Getenv("PAYROLL_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting canteen payroll engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)
	if err := migrator.Run(context.Background(), migrations.FS); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	runRepo := repository.NewRunRepository(db, logger)
	configRepo := repository.NewConfigRepository(db, logger)
	payslipRepo := repository.NewPayslipRepository(db, logger)
	attendanceRepo := repository.NewAttendanceRepository(db, logger)

	// Services
	svcLogger := utils.NewZapAdapter(logger)
	payrollService := service.NewPayrollService(runRepo, configRepo, attendanceRepo, svcLogger)
	configService := service.NewConfigService(configRepo, svcLogger)
	payslipService := service.NewPayslipService(
		runRepo,
		configRepo,
		payslipRepo,
		payslip.NewRenderer(cfg.Payslip.PlatformName, logger),
		report.NewExcelExporter(logger),
		storage.NewArchive(cfg.Payslip.ArchiveDir, logger),
		cfg.Payslip.RenderTimeout,
		svcLogger,
	)

	server := httpiface.NewServer(httpiface.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, payrollService, configService, payslipService, svcLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}
