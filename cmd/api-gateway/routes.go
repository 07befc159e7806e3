package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-agenda-api/internal/handler"
	"github.com/noah-isme/clinic-agenda-api/internal/middleware"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	"github.com/noah-isme/clinic-agenda-api/internal/service"
	"github.com/noah-isme/clinic-agenda-api/pkg/config"
	"github.com/noah-isme/clinic-agenda-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/clinic-agenda-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/clinic-agenda-api/pkg/middleware/requestid"
)

type dependencies struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *sqlx.DB
	redis   *redis.Client
	metrics *service.MetricsService
	audit   *service.AuditService

	auth          *service.AuthService
	users         *service.UserService
	professionals *service.ProfessionalService
	clients       *service.ClientService
	catalog       *service.CatalogService
	locations     *service.LocationService
	appointments  *service.AppointmentService
	calendar      *service.CalendarService
	dashboard     *service.DashboardService
	export        *service.ExportService
}

func newRouter(d *dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))
	r.Use(corsmiddleware.SecurityHeaders())
	if d.metrics != nil {
		r.Use(middleware.Metrics(d.metrics))
	}

	checks := map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error { return d.db.PingContext(ctx) },
	}
	if d.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return d.redis.Ping(ctx).Err() }
	}
	metricsHandler := handler.NewMetricsHandler(d.metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if d.metrics != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(d.auth)
	userHandler := handler.NewUserHandler(d.users)
	professionalHandler := handler.NewProfessionalHandler(d.professionals)
	clientHandler := handler.NewClientHandler(d.clients)
	serviceHandler := handler.NewServiceHandler(d.catalog)
	locationHandler := handler.NewLocationHandler(d.locations)
	appointmentHandler := handler.NewAppointmentHandler(d.appointments)
	calendarHandler := handler.NewCalendarHandler(d.calendar)
	dashboardHandler := handler.NewDashboardHandler(d.dashboard)
	exportHandler := handler.NewExportHandler(d.export)

	var limiterMetrics interface{ RecordRateLimited() }
	if d.metrics != nil {
		limiterMetrics = d.metrics
	}
	loginLimiter := middleware.NewRateLimiter(d.redis, d.cfg.Auth.LoginRateLimit, d.cfg.Auth.LoginRateWindow, "ratelimit:login", limiterMetrics, d.logger)
	authn := middleware.JWT(d.auth)
	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleProfessional)

	api := r.Group(d.cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	auth := api.Group("/auth")
	auth.POST("/login", loginLimiter.Middleware(), authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/session", authn, authHandler.Session)
	auth.POST("/logout", authn, authHandler.Logout)
	auth.POST("/change-password", authn, authHandler.ChangePassword)

	secured := api.Group("")
	secured.Use(authn)

	users := secured.Group("/users", admin)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.POST("", audited(d.audit, models.AuditActionCreate, "user"), userHandler.Create)
	users.DELETE("/:id", audited(d.audit, models.AuditActionDelete, "user"), userHandler.Delete)

	professionals := secured.Group("/professionals")
	professionals.GET("", staff, professionalHandler.List)
	professionals.GET("/:id", staff, professionalHandler.Get)
	professionals.POST("", admin, audited(d.audit, models.AuditActionCreate, "professional"), professionalHandler.Create)
	professionals.PUT("/:id", admin, audited(d.audit, models.AuditActionUpdate, "professional"), professionalHandler.Update)
	professionals.DELETE("/:id", admin, audited(d.audit, models.AuditActionDelete, "professional"), professionalHandler.Delete)

	clients := secured.Group("/clients", staff)
	clients.GET("", clientHandler.List)
	clients.GET("/:id", clientHandler.Get)
	clients.POST("", audited(d.audit, models.AuditActionCreate, "client"), clientHandler.Create)
	clients.PUT("/:id", audited(d.audit, models.AuditActionUpdate, "client"), clientHandler.Update)
	clients.DELETE("/:id", admin, audited(d.audit, models.AuditActionDelete, "client"), clientHandler.Delete)

	catalog := secured.Group("/services")
	catalog.GET("", staff, serviceHandler.List)
	catalog.GET("/:id", staff, serviceHandler.Get)
	catalog.POST("", admin, audited(d.audit, models.AuditActionCreate, "service"), serviceHandler.Create)
	catalog.PUT("/:id", admin, audited(d.audit, models.AuditActionUpdate, "service"), serviceHandler.Update)
	catalog.DELETE("/:id", admin, audited(d.audit, models.AuditActionDelete, "service"), serviceHandler.Delete)

	locations := secured.Group("/locations")
	locations.GET("", staff, locationHandler.List)
	locations.GET("/:id", staff, locationHandler.Get)
	locations.POST("", admin, audited(d.audit, models.AuditActionCreate, "location"), locationHandler.Create)
	locations.PUT("/:id", admin, audited(d.audit, models.AuditActionUpdate, "location"), locationHandler.Update)
	locations.DELETE("/:id", admin, audited(d.audit, models.AuditActionDelete, "location"), locationHandler.Delete)

	appointments := secured.Group("/appointments", staff)
	appointments.GET("", appointmentHandler.List)
	appointments.GET("/:id", appointmentHandler.Get)
	appointments.POST("", audited(d.audit, models.AuditActionCreate, "appointment"), appointmentHandler.Create)
	appointments.PUT("/:id", audited(d.audit, models.AuditActionUpdate, "appointment"), appointmentHandler.Update)
	appointments.PATCH("/:id/status", audited(d.audit, models.AuditActionStatus, "appointment"), appointmentHandler.UpdateStatus)
	appointments.PATCH("/:id/reschedule", audited(d.audit, models.AuditActionMove, "appointment"), appointmentHandler.Reschedule)
	appointments.DELETE("/:id", admin, audited(d.audit, models.AuditActionDelete, "appointment"), appointmentHandler.Delete)

	calendar := secured.Group("/calendar", staff)
	calendar.GET("/day", calendarHandler.Day)
	calendar.GET("/week", calendarHandler.Week)
	calendar.GET("/month", calendarHandler.Month)
	calendar.GET("/slots", calendarHandler.Slots)

	secured.GET("/dashboard", staff, dashboardHandler.Summary)
	secured.GET("/agenda/export", staff, exportHandler.Agenda)
	secured.GET("/metrics/summary", admin, metricsHandler.Summary)

	return r
}

func audited(recorder *service.AuditService, action, resource string) gin.HandlerFunc {
	return middleware.Audit(recorder, action, resource)
}
