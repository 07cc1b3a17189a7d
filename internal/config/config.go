package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Typed service configuration, read from the environment after an optional
// .env file.
type Config struct {
	Port     string
	DBDriver string
	// DatabaseURL is a Postgres DSN for the pgx driver or a file path for sqlite.
	DatabaseURL string
	SeedPath    string

	RedisURL    string
	SnapshotTTL time.Duration

	ORSAPIKey       string
	ORSBaseURL      string
	GeocodeCountry  string
	GeocodeCacheTTL time.Duration

	JWTSecret      string
	RateLimitRPS   float64
	RateLimitBurst int

	MinDeliveryMinutes int
	MinutesPerKm       float64

	LogLevel           string
	LogFormat          string
	TracingEnabled     bool
	TracingServiceName string
}

// Load reads .env (a missing file is fine) and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load config: read .env: %w", err)
	}

	cfg := Config{
		Port:               Get("PORT", "8080"),
		DBDriver:           strings.ToLower(Get("DB_DRIVER", "sqlite")),
		DatabaseURL:        Get("DATABASE_URL", "data/app.db"),
		SeedPath:           Get("SEED_PATH", ""),
		RedisURL:           Get("REDIS_URL", ""),
		SnapshotTTL:        GetDuration("SNAPSHOT_TTL", time.Minute),
		ORSAPIKey:          Get("ORS_API_KEY", ""),
		ORSBaseURL:         Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		GeocodeCountry:     Get("GEOCODE_COUNTRY", ""),
		GeocodeCacheTTL:    GetDuration("GEOCODE_CACHE_TTL", 30*24*time.Hour),
		JWTSecret:          Get("JWT_SECRET", ""),
		RateLimitRPS:       GetFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     GetInt("RATE_LIMIT_BURST", 20),
		MinDeliveryMinutes: GetInt("MIN_DELIVERY_MINUTES", 30),
		MinutesPerKm:       GetFloat("DELIVERY_MINUTES_PER_KM", 3),
		LogLevel:           Get("LOG_LEVEL", "info"),
		LogFormat:          Get("LOG_FORMAT", "text"),
		TracingEnabled:     GetBool("TRACING_ENABLED", false),
		TracingServiceName: Get("TRACING_SERVICE_NAME", "market-delivery-service"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "pgx", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be pgx or sqlite, got %q", c.DBDriver)
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.SnapshotTTL <= 0 {
		return fmt.Errorf("SNAPSHOT_TTL must be positive, got %s", c.SnapshotTTL)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func GetInt(key string, fallback int) int {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func GetFloat(key string, fallback float64) float64 {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

func GetBool(key string, fallback bool) bool {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}

// GetDuration parses Go duration strings such as "90s" or "5m".
func GetDuration(key string, fallback time.Duration) time.Duration {
	raw := Get(key, "")
	if raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", raw, "default", fallback)
		return fallback
	}
	return v
}
