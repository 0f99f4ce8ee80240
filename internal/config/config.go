// Package config assembles runtime settings from a .env file, environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/database"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Store backends selectable with --store.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config is the full service configuration.
type Config struct {
	Addr          string
	Store         string
	Migrate       bool
	DB            database.Config
	JWTSecret     string
	JWTTTL        time.Duration
	RedisURL      string
	CORSOrigins   []string
	AuthRateLimit float64
	AuthBurst     int
	SweepInterval time.Duration
	LogLevel      string

	// Optional bootstrap admin, created at startup when the email is free.
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// Load reads .env (if present), then the environment, then parses args.
// args excludes the program name.
func Load(args []string) (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	ttl, err := durationEnv("JWT_EXPIRES_IN", 7*24*time.Hour)
	if err != nil {
		return Config{}, err
	}
	sweep, err := durationEnv("SWEEP_INTERVAL", 15*time.Minute)
	if err != nil {
		return Config{}, err
	}
	rate, err := strconv.ParseFloat(getEnv("AUTH_RATE_LIMIT", "5"), 64)
	if err != nil {
		return Config{}, fmt.Errorf("AUTH_RATE_LIMIT: %w", err)
	}
	burst, err := strconv.Atoi(getEnv("AUTH_RATE_BURST", "10"))
	if err != nil {
		return Config{}, fmt.Errorf("AUTH_RATE_BURST: %w", err)
	}

	cfg := Config{
		Addr:  ":" + getEnv("PORT", "8080"),
		Store: getEnv("STORE", StorePostgres),
		DB: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "eventbooking"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			URL:      os.Getenv("DATABASE_URL"),
		},
		JWTSecret:     os.Getenv("JWT_SECRET"),
		JWTTTL:        ttl,
		RedisURL:      os.Getenv("REDIS_URL"),
		CORSOrigins:   splitList(getEnv("CORS_ORIGIN", "*")),
		AuthRateLimit: rate,
		AuthBurst:     burst,
		SweepInterval: sweep,
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	flags := pflag.NewFlagSet("eventhub", pflag.ContinueOnError)
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flags.StringVar(&cfg.Store, "store", cfg.Store, "record store: postgres or memory")
	flags.BoolVar(&cfg.Migrate, "migrate", false, "apply the database schema before serving")
	flags.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "how often past events are marked completed (0 disables)")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRES_IN must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationEnv accepts Go durations ("36h") and whole days ("7d").
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if days, ok := strings.CutSuffix(v, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
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
