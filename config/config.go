package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Booking   BookingConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// BookingConfig holds the tunables of the booking state machine and the
// refund policy evaluator.
type BookingConfig struct {
	// VerificationSecret signs ticket verification tokens.
	VerificationSecret string
	// RefundPolicy selects the fee model: "tiered" (default) or "flat".
	RefundPolicy string
	// FlatFeeCapCents caps the flat 10% cancellation fee.
	FlatFeeCapCents int64
	// MinCancelHours refuses cancellation of confirmed bookings closer to
	// the event start than this many hours. 0 disables the window.
	MinCancelHours int
	// StatsCacheTTL bounds staleness of the organizer stats read model.
	StatsCacheTTL time.Duration
}

// SchedulerConfig holds intervals and thresholds of the reconciliation jobs.
type SchedulerConfig struct {
	// Enabled turns all background jobs off for read replicas and tests.
	Enabled bool

	PendingTimeout   time.Duration
	ExpireInterval   time.Duration
	RefundInterval   time.Duration
	NotifyInterval   time.Duration
	ReminderInterval time.Duration
	ArchiveInterval  time.Duration
	// RetentionWindow is how long terminal records stay unarchived.
	RetentionWindow time.Duration
	// BatchSize bounds a single scan-and-act pass.
	BatchSize int
}

var AppConfig *Config

func LoadConfig() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	AppConfig = &Config{
		Server:    GetServerConfig(),
		Database:  GetDatabaseConfig(),
		Redis:     GetRedisConfig(),
		Booking:   GetBookingConfig(),
		Scheduler: GetSchedulerConfig(),
	}

	return AppConfig
}

func LoadTestConfig() *Config {
	testConfig := DatabaseConfig{
		Host:     "localhost",
		Port:     "5433", // test DB runs on 5433
		User:     "postgres",
		Password: "postgres",
		DBName:   "test_db",
		SSLMode:  "disable",
	}

	testRedisConfig := RedisConfig{
		Host:     "localhost",
		Port:     "6380", // test Redis runs on 6380
		Password: "",
		DB:       1,
	}

	booking := GetBookingConfig()
	booking.VerificationSecret = "test-verification-secret"

	scheduler := GetSchedulerConfig()
	scheduler.Enabled = false

	return &Config{
		Server:    ServerConfig{Port: "8081"},
		Database:  testConfig,
		Redis:     testRedisConfig,
		Booking:   booking,
		Scheduler: scheduler,
	}
}

func GetServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnv("SERVER_PORT", "8080"),
	}
}

func GetDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "postgres"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
	}
}

func GetRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}
}

func GetBookingConfig() BookingConfig {
	return BookingConfig{
		VerificationSecret: getEnv("BOOKING_VERIFICATION_SECRET", "change-me-in-production"),
		RefundPolicy:       getEnv("REFUND_POLICY", "tiered"),
		FlatFeeCapCents:    int64(getEnvInt("REFUND_FLAT_FEE_CAP_CENTS", 2000)),
		MinCancelHours:     getEnvInt("BOOKING_MIN_CANCEL_HOURS", 0),
		StatsCacheTTL:      getEnvDuration("STATS_CACHE_TTL", time.Minute),
	}
}

func GetSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:          getEnvBool("SCHEDULER_ENABLED", true),
		PendingTimeout:   getEnvDuration("SCHEDULER_PENDING_TIMEOUT", 10*time.Minute),
		ExpireInterval:   getEnvDuration("SCHEDULER_EXPIRE_INTERVAL", 5*time.Minute),
		RefundInterval:   getEnvDuration("SCHEDULER_REFUND_INTERVAL", time.Hour),
		NotifyInterval:   getEnvDuration("SCHEDULER_NOTIFY_INTERVAL", 5*time.Minute),
		ReminderInterval: getEnvDuration("SCHEDULER_REMINDER_INTERVAL", 24*time.Hour),
		ArchiveInterval:  getEnvDuration("SCHEDULER_ARCHIVE_INTERVAL", 24*time.Hour),
		RetentionWindow:  getEnvDuration("SCHEDULER_RETENTION_WINDOW", 90*24*time.Hour),
		BatchSize:        getEnvInt("SCHEDULER_BATCH_SIZE", 100),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		panic(err)
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		panic(err)
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		panic(err)
	}
	return d
}
