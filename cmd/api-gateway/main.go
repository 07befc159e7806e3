package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/clinic-agenda-api/api/swagger"
	"github.com/noah-isme/clinic-agenda-api/internal/agenda"
	"github.com/noah-isme/clinic-agenda-api/internal/availability"
	"github.com/noah-isme/clinic-agenda-api/internal/repository"
	"github.com/noah-isme/clinic-agenda-api/internal/service"
	"github.com/noah-isme/clinic-agenda-api/pkg/cache"
	"github.com/noah-isme/clinic-agenda-api/pkg/config"
	"github.com/noah-isme/clinic-agenda-api/pkg/database"
	"github.com/noah-isme/clinic-agenda-api/pkg/logger"
)

// @title Clinic Agenda API
// @version 1.0.0
// @description Scheduling for a multi-professional clinic: availability, bookings and agenda views.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	grid, err := availability.NewGrid(cfg.Scheduling.DayStart, cfg.Scheduling.DayEnd, cfg.Scheduling.SlotStepMinutes)
	if err != nil {
		log.Fatalf("invalid scheduling window: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, continuing without cache", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := service.NewValidator()
	metrics := service.NewMetricsService()
	if !cfg.Metrics.Enabled {
		metrics = nil
	}

	professionals := repository.NewProfessionalRepository(db)
	clients := repository.NewClientRepository(db)
	services := repository.NewServiceRepository(db)
	locations := repository.NewLocationRepository(db)
	appointments := repository.NewAppointmentRepository(db)
	users := repository.NewUserRepository(db)

	auditSvc := service.NewAuditService(repository.NewAuditRepository(db), metrics, logr, service.AuditConfig{
		Workers:    cfg.Audit.Workers,
		BufferSize: cfg.Audit.BufferSize,
		MaxRetries: 2,
	})
	auditSvc.Start(context.Background())
	defer auditSvc.Stop()

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(rdb, logr), metrics, cfg.Agenda.CacheTTL, logr, cfg.Agenda.CacheEnabled && rdb != nil)
	agendaSvc := service.NewAgendaService(service.AgendaSources{
		Professionals: professionals,
		Clients:       clients,
		Services:      services,
		Locations:     locations,
		Appointments:  appointments,
	}, cacheSvc, metrics, logr, service.AgendaConfig{
		LoadTimeout: cfg.Agenda.LoadTimeout,
		CacheTTL:    cfg.Agenda.CacheTTL,
	})

	granularity := cfg.Scheduling.DurationGranularity
	deps := &dependencies{
		cfg:     cfg,
		logger:  logr,
		db:      db,
		redis:   rdb,
		metrics: metrics,
		audit:   auditSvc,
		auth: service.NewAuthService(users, auditSvc, validate, logr, service.AuthConfig{
			AccessTokenSecret:  cfg.JWT.Secret,
			AccessTokenExpiry:  cfg.JWT.Expiration,
			RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
			Issuer:             cfg.JWT.Issuer,
			AdminEmail:         cfg.Auth.AdminEmail,
			SessionTimeout:     cfg.Auth.SessionTimeout,
		}),
		users:         service.NewUserService(users, professionals, validate, logr),
		professionals: service.NewProfessionalService(professionals, agendaSvc, validate, logr),
		clients:       service.NewClientService(clients, agendaSvc, validate, logr),
		catalog:       service.NewCatalogService(services, professionals, agendaSvc, granularity, validate, logr),
		locations:     service.NewLocationService(locations, agendaSvc, validate, logr),
		appointments: service.NewAppointmentService(appointments, service.AppointmentDeps{
			Clients:       clients,
			Professionals: professionals,
			Services:      services,
			Locations:     locations,
		}, agendaSvc, granularity, validate, logr),
		calendar: service.NewCalendarService(agendaSvc, metrics, logr, service.CalendarConfig{
			Grid:   grid,
			Policy: availability.Policy{CancelledBlocksSlot: cfg.Scheduling.CancelledBlocksSlot},
			Caps: agenda.Caps{
				Professionals: cfg.Scheduling.MonthProfessionalCap,
				Markers:       cfg.Scheduling.MonthMarkerCap,
			},
			Granularity: granularity,
		}),
		dashboard: service.NewDashboardService(service.DashboardServiceParams{Agenda: agendaSvc, Logger: logr}),
		export:    service.NewExportService(agendaSvc, logr),
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
