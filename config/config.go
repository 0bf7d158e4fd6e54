package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds the application configuration
type AppConfig struct {
	ServerAddr     string
	Env            string
	ServiceName    string
	DBURL          string
	RedisAddress   string
	BearerToken    string
	SymmetricKey   string
	ClinicTimezone string
	CorsOrigins    []string
	RateLimit      RateLimitConfig
	SMTP           SMTPConfig
}

// RateLimitConfig holds the global request limiter settings
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// SMTPConfig holds outgoing mail settings
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// GetBearerToken returns the BearerToken from the config
func (c *AppConfig) GetBearerToken() string {
	return c.BearerToken
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// Location resolves the clinic time zone used to interpret doctor time slots.
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return nil, fmt.Errorf("invalid CLINIC_TIMEZONE %q: %w", c.ClinicTimezone, err)
	}
	return loc, nil
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*AppConfig, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the configuration from an arbitrary lookup function.
func FromLookup(lookup func(string) (string, bool)) (*AppConfig, error) {
	get := func(name, def string) string {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	var missing []string
	require := func(name string) string {
		v := get(name, "")
		if v == "" {
			missing = append(missing, name)
		}
		return v
	}

	cfg := &AppConfig{
		ServerAddr:     get("SERVER_ADDR", ":8930"),
		Env:            get("ENV", "production"),
		ServiceName:    get("SERVICE_NAME", "medicore"),
		DBURL:          require("DB_URL"),
		RedisAddress:   require("REDIS_URL"),
		BearerToken:    require("BEARER_TOKEN"),
		SymmetricKey:   require("SYMMETRIC_KEY"),
		ClinicTimezone: get("CLINIC_TIMEZONE", "UTC"),
		CorsOrigins:    splitList(get("CORS_ORIGINS", "http://localhost:3000")),
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloat(get("RATE_LIMIT_RPS", ""), 15),
			Burst:             getInt(get("RATE_LIMIT_BURST", ""), 30),
		},
		SMTP: SMTPConfig{
			Host:     get("SMTP_HOST", "localhost"),
			Port:     getInt(get("SMTP_PORT", ""), 587),
			User:     get("SMTP_USER", ""),
			Password: get("SMTP_PASS", ""),
		},
	}
	cfg.SMTP.From = get("SMTP_FROM", cfg.SMTP.User)

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	if len(cfg.SymmetricKey) != 32 {
		return nil, errors.New("SYMMETRIC_KEY must be 32 bytes long")
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func getFloat(raw string, def float64) float64 {
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}
