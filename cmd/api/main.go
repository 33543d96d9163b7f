package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmlabs-hris/timebank-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/timebank-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/erp"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/timebank-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/timebank-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/timebank-backend-go/internal/service/attendance"
	bulkService "github.com/cmlabs-hris/timebank-backend-go/internal/service/bulk"
	hoursBankService "github.com/cmlabs-hris/timebank-backend-go/internal/service/hoursbank"
	"github.com/go-chi/httplog/v3"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.App)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		slog.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	loc := cfg.Location()

	punchRepo := postgresql.NewPunchRepository(db)
	employeeDirectory := postgresql.NewEmployeeDirectory(db)
	scheduleRepo := postgresql.NewScheduleRepository(db)
	snapshotRepo := postgresql.NewHoursBankSnapshotRepository(db)

	erpClient := erp.NewClient(cfg.ERP.BaseURL, cfg.ERP.APIKey, cfg.ERP.Timeout)
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	hub := sse.NewHub()

	gridSvc := attendanceService.NewGridService(punchRepo, employeeDirectory, erpClient, cfg.Attendance, loc)
	hoursBankSvc := hoursBankService.NewHoursBankService(
		punchRepo,
		scheduleRepo,
		employeeDirectory,
		erpClient,
		cfg.HoursBank,
		cfg.Attendance.GridBatchSize,
		loc,
	)
	bulkSvc := bulkService.NewBulkService(
		punchRepo,
		employeeDirectory,
		erpClient,
		postgresql.InTx(db),
		hub,
		cfg.Bulk,
		loc,
	)

	scheduler := cron.NewScheduler()
	snapshotJob := hoursBankService.NewSnapshotJob(hoursBankSvc, snapshotRepo)
	if err := cron.RegisterHoursBankJobs(scheduler, snapshotJob, cfg.HoursBank.SnapshotInterval); err != nil {
		slog.Error("Failed to register cron jobs", "error", err)
		os.Exit(1)
	}

	router := appHTTP.NewRouter(logger, cfg.App.FrontendURL, JWTService, appHTTP.Handlers{
		Attendance: appHTTP.NewAttendanceHandler(gridSvc),
		HoursBank:  appHTTP.NewHoursBankHandler(hoursBankSvc, snapshotRepo),
		Bulk:       appHTTP.NewBulkHandler(bulkSvc),
		Events:     appHTTP.NewEventsHandler(hub, JWTService),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	scheduler.Start()

	go func() {
		slog.Info("Server running", "addr", srv.Addr, "env", cfg.App.Env, "timezone", loc.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()
}

func newLogger(app config.AppConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(app.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	logFormat := httplog.SchemaECS.Concise(app.Env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "timebank-backend"),
		slog.String("env", app.Env),
	)
}
