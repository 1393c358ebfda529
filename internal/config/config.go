package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Scheduler    SchedulerConfig
	Worker       WorkerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level  string
	Format string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret              string
	AccessTokenTTLMinutes  int
	BcryptCost             int
	BootstrapAdminUsername string
	BootstrapAdminPassword string
}

// NotificationConfig holds outbound delivery settings.
type NotificationConfig struct {
	EmailFrom    string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

// SchedulerConfig tunes the shift allocation engine.
type SchedulerConfig struct {
	ShiftStart          string
	ShiftEnd            string
	RandomSeed          int64
	SeedRestFromHistory bool
	LockBackend         string
	LockTTLSeconds      int
	NotificationChannel string
	MaxRangeDays        int
}

// WorkerConfig tunes the notification delivery worker.
type WorkerConfig struct {
	Enabled             bool
	PollIntervalSeconds int
	BatchSize           int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	seed, err := strconv.ParseInt(getEnv("SCHEDULER_RANDOM_SEED", "0"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_RANDOM_SEED: %w", err)
	}

	lockBackend := strings.ToLower(getEnv("SCHEDULER_LOCK_BACKEND", "local"))
	if lockBackend != "local" && lockBackend != "redis" {
		return nil, fmt.Errorf("invalid SCHEDULER_LOCK_BACKEND %q: want local or redis", lockBackend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "oncall-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Auth: AuthConfig{
			JWTSecret:              getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:  getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:             getEnvAsInt("AUTH_BCRYPT_COST", 12),
			BootstrapAdminUsername: os.Getenv("AUTH_BOOTSTRAP_ADMIN_USERNAME"),
			BootstrapAdminPassword: os.Getenv("AUTH_BOOTSTRAP_ADMIN_PASSWORD"),
		},
		Notification: NotificationConfig{
			EmailFrom:    getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			SMTPHost:     os.Getenv("NOTIFY_SMTP_HOST"),
			SMTPPort:     getEnvAsInt("NOTIFY_SMTP_PORT", 587),
			SMTPUsername: os.Getenv("NOTIFY_SMTP_USERNAME"),
			SMTPPassword: os.Getenv("NOTIFY_SMTP_PASSWORD"),
		},
		Scheduler: SchedulerConfig{
			ShiftStart:          getEnv("SCHEDULER_SHIFT_START", "15:00"),
			ShiftEnd:            getEnv("SCHEDULER_SHIFT_END", "09:00"),
			RandomSeed:          seed,
			SeedRestFromHistory: getEnvAsBool("SCHEDULER_SEED_REST_FROM_HISTORY", true),
			LockBackend:         lockBackend,
			LockTTLSeconds:      getEnvAsInt("SCHEDULER_LOCK_TTL_SECONDS", 10),
			NotificationChannel: getEnv("SCHEDULER_NOTIFICATION_CHANNEL", "email"),
			MaxRangeDays:        getEnvAsInt("SCHEDULER_MAX_RANGE_DAYS", 366),
		},
		Worker: WorkerConfig{
			Enabled:             getEnvAsBool("WORKER_ENABLED", true),
			PollIntervalSeconds: getEnvAsInt("WORKER_POLL_INTERVAL_SECONDS", 30),
			BatchSize:           getEnvAsInt("WORKER_BATCH_SIZE", 50),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LockTTL returns how long a person lock may be held before it expires.
func (s SchedulerConfig) LockTTL() time.Duration {
	if s.LockTTLSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(s.LockTTLSeconds) * time.Second
}

// PollInterval returns the delivery worker tick.
func (w WorkerConfig) PollInterval() time.Duration {
	if w.PollIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(w.PollIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
