package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Google      GoogleConfig
	Planner     PlannerConfig
	Sync        SyncConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
}

type GoogleConfig struct {
	ServiceAccountFile string
	Timezone           string
	EventDuration      time.Duration
	ReminderMinutes    []int
}

type PlannerConfig struct {
	LookaheadDays     int
	EstimatorEndpoint string
	EstimatorAPIKey   string
	EstimatorTimeout  time.Duration
	EstimateCacheTTL  time.Duration
}

type SyncConfig struct {
	DataDir          string
	JournalPath      string
	JournalRetention time.Duration
	PassTimeout      time.Duration
	MirrorInterval   time.Duration
	StudyPlanSpec    string
	ChainStudyPlan   bool
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "campushub-backend"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "campushub_db"),
			User:            getString("DB_USER", "campushub_user"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:     os.Getenv("JWT_SECRET"),
			Issuer:     getString("JWT_ISSUER", "campushub-backend"),
			SessionTTL: getDuration("JWT_SESSION_TTL", 24*time.Hour),
		},
		Google: GoogleConfig{
			ServiceAccountFile: getString("GOOGLE_SERVICE_ACCOUNT_FILE", "./service_account.json"),
			Timezone:           getString("GOOGLE_CALENDAR_TIMEZONE", "UTC"),
			EventDuration:      getDuration("GOOGLE_EVENT_DURATION", time.Hour),
			ReminderMinutes:    getIntList("GOOGLE_REMINDER_MINUTES", []int{60, 1440}),
		},
		Planner: PlannerConfig{
			LookaheadDays:     getInt("PLANNER_LOOKAHEAD_DAYS", 30),
			EstimatorEndpoint: os.Getenv("ESTIMATOR_ENDPOINT"),
			EstimatorAPIKey:   os.Getenv("ESTIMATOR_API_KEY"),
			EstimatorTimeout:  getDuration("ESTIMATOR_TIMEOUT", 60*time.Second),
			EstimateCacheTTL:  getDuration("ESTIMATE_CACHE_TTL", 7*24*time.Hour),
		},
		Sync: SyncConfig{
			DataDir:          getString("SYNC_DATA_DIR", "./data/meta"),
			JournalPath:      getString("SYNC_JOURNAL_PATH", "./data/journal.db"),
			JournalRetention: getDuration("SYNC_JOURNAL_RETENTION", 30*24*time.Hour),
			PassTimeout:      getDuration("SYNC_PASS_TIMEOUT", 10*time.Minute),
			MirrorInterval:   getDuration("SYNC_MIRROR_INTERVAL", 0),
			StudyPlanSpec:    getString("SYNC_STUDY_PLAN_SPEC", "0 18 * * 0"),
			ChainStudyPlan:   getBool("SYNC_CHAIN_STUDY_PLAN", true),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Location resolves the configured calendar timezone.
func (g GoogleConfig) Location() (*time.Location, error) {
	if g.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(g.Timezone)
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getIntList(key string, fallback []int) []int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []int
	for _, field := range strings.Split(val, ",") {
		if parsed, err := strconv.Atoi(strings.TrimSpace(field)); err == nil {
			out = append(out, parsed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
