package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port  string
	GoEnv string

	MongoURI          string
	MongoDatabase     string
	MongoTimeout      time.Duration
	CasesCollection   string
	HistoryCollection string

	RedisAddress  string
	RedisPassword string
	RedisDB       int

	AnalyticsCacheTTL   time.Duration
	ReconcileInterval   time.Duration
	EnforceUniqueCaseID bool

	JWTSecret       string
	WriteRateLimit  int
	WriteRateWindow time.Duration

	UploadDir      string
	MaxUploadBytes int64
	CORSOrigins    []string

	LogLevel  string
	LogFormat string
}

// IsProduction reports whether GO_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddress != ""
}

// Load builds a Config from environment variables. Callers load any .env
// file beforehand.
func Load() (*Config, error) {
	var errs []string
	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		GoEnv:             getEnv("GO_ENV", "development"),
		MongoURI:          os.Getenv("MONGODB_URI"),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "human_rights_db"),
		CasesCollection:   getEnv("CASES_COLLECTION", "cases"),
		HistoryCollection: getEnv("HISTORY_COLLECTION", "case_status_history"),
		RedisAddress:      os.Getenv("REDIS_ADDRESS"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		UploadDir:         getEnv("UPLOAD_DIR", "uploads"),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "*")),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}

	cfg.MongoTimeout = durationEnv("MONGODB_TIMEOUT", 10*time.Second, &errs)
	cfg.AnalyticsCacheTTL = durationEnv("ANALYTICS_CACHE_TTL", time.Minute, &errs)
	cfg.ReconcileInterval = durationEnv("RECONCILE_INTERVAL", time.Minute, &errs)
	cfg.WriteRateWindow = durationEnv("WRITE_RATE_WINDOW", time.Minute, &errs)
	cfg.RedisDB = intEnv("REDIS_DB", 0, &errs)
	cfg.WriteRateLimit = intEnv("WRITE_RATE_LIMIT", 120, &errs)
	cfg.MaxUploadBytes = int64(intEnv("MAX_UPLOAD_BYTES", 20<<20, &errs))
	cfg.EnforceUniqueCaseID = boolEnv("ENFORCE_UNIQUE_CASE_ID", false, &errs)

	if cfg.MongoURI == "" {
		errs = append(errs, "MONGODB_URI is required")
	}
	if cfg.ReconcileInterval <= 0 {
		errs = append(errs, "RECONCILE_INTERVAL must be positive")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration, errs *[]string) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return d
}

func intEnv(key string, fallback int, errs *[]string) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return n
}

func boolEnv(key string, fallback bool, errs *[]string) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: %v", key, err))
		return fallback
	}
	return b
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
