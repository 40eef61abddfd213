package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL  string
	HTTPAddr     string
	LogLevel     string
	Env          string // dev|prod
	SentryDSN    string
	Location     *time.Location
	CooldownDays int // minimum spacing since last primary assignment

	// plan-generation oracle
	OracleURL     string
	OracleAPIKey  string
	OracleTimeout time.Duration
	OracleRetries int
}

func Load() (*Config, error) {
	tz := getenv("TZ", "Asia/Seoul")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.Local
	}

	cooldown, err := parseInt(getenv("COOLDOWN_DAYS", "14"))
	if err != nil {
		return nil, fmt.Errorf("COOLDOWN_DAYS: %w", err)
	}
	oracleTimeout, err := time.ParseDuration(getenv("ORACLE_TIMEOUT", "90s"))
	if err != nil {
		return nil, fmt.Errorf("ORACLE_TIMEOUT: %w", err)
	}
	retries, err := parseInt(getenv("ORACLE_RETRIES", "1"))
	if err != nil {
		return nil, fmt.Errorf("ORACLE_RETRIES: %w", err)
	}

	cfg := &Config{
		DatabaseURL:   mustEnv("DATABASE_URL"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		Env:           getenv("ENV", "dev"),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Location:      loc,
		CooldownDays:  cooldown,
		OracleURL:     os.Getenv("ORACLE_URL"),
		OracleAPIKey:  os.Getenv("ORACLE_API_KEY"),
		OracleTimeout: oracleTimeout,
		OracleRetries: retries,
	}
	return cfg, nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("required env " + k + " is empty")
	}
	return v
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad number %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}
