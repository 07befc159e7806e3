package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Auth       AuthConfig
	Scheduling SchedulingConfig
	Agenda     AgendaConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Issuer            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AuthConfig governs role resolution, session checks and login throttling.
type AuthConfig struct {
	AdminEmail      string
	SessionTimeout  time.Duration
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// SchedulingConfig describes the day grid and availability policies.
type SchedulingConfig struct {
	DayStart             string
	DayEnd               string
	SlotStepMinutes      int
	DurationGranularity  int
	CancelledBlocksSlot  bool
	MonthProfessionalCap int
	MonthMarkerCap       int
}

// AgendaConfig tunes snapshot loading and caching.
type AgendaConfig struct {
	LoadTimeout  time.Duration
	CacheEnabled bool
	CacheTTL     time.Duration
}

// AuditConfig sizes the asynchronous audit writer.
type AuditConfig struct {
	Workers    int
	BufferSize int
}

type MetricsConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Issuer:            v.GetString("JWT_ISSUER"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Auth = AuthConfig{
		AdminEmail:      strings.ToLower(strings.TrimSpace(v.GetString("AUTH_ADMIN_EMAIL"))),
		SessionTimeout:  parseDuration(v.GetString("AUTH_SESSION_TIMEOUT"), 3*time.Second),
		LoginRateLimit:  v.GetInt("AUTH_LOGIN_RATE_LIMIT"),
		LoginRateWindow: parseDuration(v.GetString("AUTH_LOGIN_RATE_WINDOW"), 15*time.Minute),
	}

	cfg.Scheduling = SchedulingConfig{
		DayStart:             v.GetString("SCHEDULING_DAY_START"),
		DayEnd:               v.GetString("SCHEDULING_DAY_END"),
		SlotStepMinutes:      v.GetInt("SCHEDULING_SLOT_STEP_MINUTES"),
		DurationGranularity:  v.GetInt("SCHEDULING_DURATION_GRANULARITY"),
		CancelledBlocksSlot:  v.GetBool("SCHEDULING_CANCELLED_BLOCKS_SLOT"),
		MonthProfessionalCap: v.GetInt("SCHEDULING_MONTH_PROFESSIONAL_CAP"),
		MonthMarkerCap:       v.GetInt("SCHEDULING_MONTH_MARKER_CAP"),
	}

	cfg.Agenda = AgendaConfig{
		LoadTimeout:  parseDuration(v.GetString("AGENDA_LOAD_TIMEOUT"), 10*time.Second),
		CacheEnabled: v.GetBool("AGENDA_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("AGENDA_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Audit = AuditConfig{
		Workers:    v.GetInt("AUDIT_WORKERS"),
		BufferSize: v.GetInt("AUDIT_BUFFER_SIZE"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg
}

// Validate reports configuration errors that must stop the process at startup.
func (c *Config) Validate() error {
	if c.Env == EnvProduction && (c.JWT.Secret == "" || c.JWT.Secret == "dev_secret") {
		return fmt.Errorf("config: JWT_SECRET must be set in production")
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		return fmt.Errorf("config: database host and name are required")
	}
	if c.Scheduling.SlotStepMinutes <= 0 {
		return fmt.Errorf("config: SCHEDULING_SLOT_STEP_MINUTES must be positive")
	}
	if c.Scheduling.DurationGranularity <= 0 {
		return fmt.Errorf("config: SCHEDULING_DURATION_GRANULARITY must be positive")
	}
	if c.Scheduling.DayStart == "" || c.Scheduling.DayEnd == "" {
		return fmt.Errorf("config: scheduling day window is required")
	}
	if c.Scheduling.DayStart >= c.Scheduling.DayEnd {
		return fmt.Errorf("config: SCHEDULING_DAY_START must be before SCHEDULING_DAY_END")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "clinic_agenda")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "clinic-agenda-api")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AUTH_ADMIN_EMAIL", "admin@clinic.com")
	v.SetDefault("AUTH_SESSION_TIMEOUT", "3s")
	v.SetDefault("AUTH_LOGIN_RATE_LIMIT", 5)
	v.SetDefault("AUTH_LOGIN_RATE_WINDOW", "15m")

	v.SetDefault("SCHEDULING_DAY_START", "06:00")
	v.SetDefault("SCHEDULING_DAY_END", "22:00")
	v.SetDefault("SCHEDULING_SLOT_STEP_MINUTES", 30)
	v.SetDefault("SCHEDULING_DURATION_GRANULARITY", 15)
	v.SetDefault("SCHEDULING_CANCELLED_BLOCKS_SLOT", true)
	v.SetDefault("SCHEDULING_MONTH_PROFESSIONAL_CAP", 3)
	v.SetDefault("SCHEDULING_MONTH_MARKER_CAP", 2)

	v.SetDefault("AGENDA_LOAD_TIMEOUT", "10s")
	v.SetDefault("AGENDA_CACHE_ENABLED", true)
	v.SetDefault("AGENDA_CACHE_TTL", "5m")

	v.SetDefault("AUDIT_WORKERS", 1)
	v.SetDefault("AUDIT_BUFFER_SIZE", 64)

	v.SetDefault("ENABLE_METRICS", true)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
