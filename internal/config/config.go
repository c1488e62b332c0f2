package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the server.
type Config struct {
	// Environment
	RunMode  string // Set via flag, not env
	LogLevel string

	// Server
	ApiPort           string
	ServiceApiPort    string
	AllowedOrigins    []string
	WorkerConcurrency int

	// Simulated latency
	LatencyEnabled bool
	LatencyMin     time.Duration
	LatencyMax     time.Duration

	// Redis (optional in api mode, required in bg mode)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Fixture sources, checked in order: Mongo, S3, file, embedded
	FixturesPath     string
	MongoURI         string
	MongoDbName      string
	FixturesS3Bucket string
	FixturesS3Key    string

	// AWS S3
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string

	// Email
	SmtpHost        string
	SmtpPort        int
	SmtpUsername    string
	SmtpPassword    string
	SmtpFromAddress string
	LogEmailsPath   string
	MockServices    bool

	// Verification codes
	VerificationCodeTTL     time.Duration
	VerificationMaxAttempts int
	ExposeVerificationCodes bool
	BcryptCost              int

	// Campaigns and checkout
	TaxRate        float64
	DefaultUserID  string
	SessionTTL     time.Duration
	IdempotencyTTL time.Duration

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode,
	}

	var err error

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.ApiPort = getEnv("PORT", "3001")
	cfg.ServiceApiPort = getEnv("SERVICE_PORT", "3002")
	cfg.AllowedOrigins = splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000"))
	cfg.RedisAddr = getEnv("REDIS_ADDR", "")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.FixturesPath = getEnv("FIXTURES_PATH", "")
	cfg.MongoURI = getEnv("MONGO_URI", "")
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "blast")
	cfg.FixturesS3Bucket = getEnv("FIXTURES_S3_BUCKET", "")
	cfg.FixturesS3Key = getEnv("FIXTURES_S3_KEY", "db.json")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "us-east-1")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@blast.example.com")
	cfg.LogEmailsPath = getEnv("LOG_EMAILS", "")
	cfg.DefaultUserID = getEnv("DEFAULT_USER_ID", "user_001")

	if runMode == "bg" && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("missing required environment variable: REDIS_ADDR (needed by run mode %q)", runMode)
	}

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg.WorkerConcurrency, err = strconv.Atoi(getEnv("WORKER_CONCURRENCY", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKER_CONCURRENCY: %w", err)
	}

	cfg.SmtpPort, err = strconv.Atoi(getEnv("SMTP_PORT", "587"))
	if err != nil {
		return nil, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}

	cfg.MockServices, err = strconv.ParseBool(getEnv("MOCK_SERVICES", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid MOCK_SERVICES: %w", err)
	}

	cfg.LatencyEnabled, err = strconv.ParseBool(getEnv("LATENCY_ENABLED", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid LATENCY_ENABLED: %w", err)
	}

	latencyMinMs, err := strconv.ParseInt(getEnv("LATENCY_MIN_MS", "100"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LATENCY_MIN_MS: %w", err)
	}
	cfg.LatencyMin = time.Duration(latencyMinMs) * time.Millisecond

	latencyMaxMs, err := strconv.ParseInt(getEnv("LATENCY_MAX_MS", "600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid LATENCY_MAX_MS: %w", err)
	}
	cfg.LatencyMax = time.Duration(latencyMaxMs) * time.Millisecond
	if cfg.LatencyMax < cfg.LatencyMin {
		return nil, fmt.Errorf("invalid LATENCY_MAX_MS: %d is below LATENCY_MIN_MS %d", latencyMaxMs, latencyMinMs)
	}

	codeTTLSeconds, err := strconv.ParseInt(getEnv("VERIFICATION_CODE_TTL_SECONDS", "600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFICATION_CODE_TTL_SECONDS: %w", err)
	}
	cfg.VerificationCodeTTL = time.Duration(codeTTLSeconds) * time.Second

	cfg.VerificationMaxAttempts, err = strconv.Atoi(getEnv("VERIFICATION_MAX_ATTEMPTS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid VERIFICATION_MAX_ATTEMPTS: %w", err)
	}

	cfg.ExposeVerificationCodes, err = strconv.ParseBool(getEnv("EXPOSE_VERIFICATION_CODES", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid EXPOSE_VERIFICATION_CODES: %w", err)
	}

	cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	cfg.TaxRate, err = strconv.ParseFloat(getEnv("TAX_RATE", "0.0859"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid TAX_RATE: %w", err)
	}

	sessionTTLMinutes, err := strconv.ParseInt(getEnv("SESSION_TTL_MINUTES", "1440"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL_MINUTES: %w", err)
	}
	cfg.SessionTTL = time.Duration(sessionTTLMinutes) * time.Minute

	idempotencyTTLMinutes, err := strconv.ParseInt(getEnv("IDEMPOTENCY_TTL_MINUTES", "60"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid IDEMPOTENCY_TTL_MINUTES: %w", err)
	}
	cfg.IdempotencyTTL = time.Duration(idempotencyTTLMinutes) * time.Minute

	// Rate Limiting
	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}

// ClientConfig configures the API client and the wizard CLI.
type ClientConfig struct {
	APIBaseURL string
	Timeout    time.Duration
	StateFile  string
}

// LoadClient reads client settings from the environment.
func LoadClient() (*ClientConfig, error) {
	godotenv.Load()

	cfg := &ClientConfig{
		APIBaseURL: strings.TrimRight(getEnv("BLAST_API_URL", "http://localhost:3001/api"), "/"),
		StateFile:  getEnv("BLAST_STATE_FILE", defaultStateFile()),
	}

	timeout, err := time.ParseDuration(getEnv("BLAST_API_TIMEOUT", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid BLAST_API_TIMEOUT: %w", err)
	}
	cfg.Timeout = timeout

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultStateFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".blast-wizard.json"
	}
	return filepath.Join(dir, "blast", "wizard.json")
}
