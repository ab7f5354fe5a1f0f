package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const (
	defaultDSN     = "host=localhost user=postgres password=postgres dbname=hotel_pms port=5432 sslmode=disable"
	defaultOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort       string
	DatabaseDriver string // postgres | sqlite
	DatabaseDSN    string
	JWTSecret      string
	JWTTTL         time.Duration
	CORSOrigins    string
	RedisAddress   string
	RedisPassword  string
	LogLevel       string
	TaxRate        decimal.Decimal
	SeedDemo       bool
	ServiceName    string
	PhoneRegion    string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "postgres")),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", defaultOrigins),
		RedisAddress:   getEnv("REDIS_ADDRESS", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "hotel-pms"),
		PhoneRegion:    getEnv("PHONE_REGION", "US"),
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		return nil, errors.New("JWT_SECRET must be at least 32 characters")
	}
	if cfg.DatabaseDriver != "postgres" && cfg.DatabaseDriver != "sqlite" {
		return nil, fmt.Errorf("DATABASE_DRIVER %q is not supported", cfg.DatabaseDriver)
	}

	hours, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "24"))
	if err != nil || hours <= 0 {
		return nil, fmt.Errorf("JWT_TTL_HOURS must be a positive integer")
	}
	cfg.JWTTTL = time.Duration(hours) * time.Hour

	cfg.TaxRate, err = decimal.NewFromString(getEnv("TAX_RATE", "0.10"))
	if err != nil || cfg.TaxRate.IsNegative() || cfg.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("TAX_RATE must be a decimal in [0, 1)")
	}

	cfg.SeedDemo, err = strconv.ParseBool(getEnv("SEED_DEMO", "false"))
	if err != nil {
		return nil, fmt.Errorf("SEED_DEMO: %w", err)
	}

	return cfg, nil
}

// Warnings lists settings still at development defaults.
func (c *Config) Warnings() []string {
	var w []string
	if c.DatabaseDriver == "postgres" && c.DatabaseDSN == defaultDSN {
		w = append(w, "DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if c.CORSOrigins == defaultOrigins {
		w = append(w, "CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}
	if c.RedisAddress == "" {
		w = append(w, "REDIS_ADDRESS is empty, booking locks are local to this process")
	}
	return w
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
