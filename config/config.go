// Package config loads process-level configuration from environment
// variables: bus connection settings, pipeline config location, symbol
// list, aggregation timeframes, and warm-start backend selection.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Bus
	NATSServers    string
	ReconnectWait  time.Duration
	RequestTimeout time.Duration

	// Pipeline
	ConfigDir string
	Symbols   string // comma-separated symbols this process handles

	// Aggregation
	EnabledTFs    string // comma-separated name:seconds pairs, e.g. "1m:60,5m:300"
	SweepInterval time.Duration

	// Warm start
	WarmStartBackend string // "redis", "sqlite", or "none"
	RedisAddr        string
	RedisPassword    string
	SQLitePath       string

	MetricsAddr string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		NATSServers:    getEnv("NATS_SERVERS", "nats://localhost:4222"),
		ReconnectWait:  durationEnv("BUS_RECONNECT_WAIT", 2*time.Second),
		RequestTimeout: durationEnv("BUS_REQUEST_TIMEOUT", 5*time.Second),

		ConfigDir: getEnv("CONFIG_DIR", "config"),
		Symbols:   mustEnv("SYMBOLS"),

		EnabledTFs:    getEnv("ENABLED_TFS", "1m:60,5m:300,15m:900"),
		SweepInterval: durationEnv("SWEEP_INTERVAL", time.Second),

		WarmStartBackend: getEnv("WARMSTART_BACKEND", "none"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		SQLitePath:       getEnv("SQLITE_PATH", "data/candles.db"),

		MetricsAddr: getEnv("METRICS_ADDR", ":9090"),
	}
}

// TimeframeSpec is one parsed ENABLED_TFS entry.
type TimeframeSpec struct {
	Name   string
	Window time.Duration
}

// ParseTimeframes parses EnabledTFs ("name:seconds,name:seconds,...") into
// an ordered slice of TimeframeSpec, skipping and logging any malformed
// entry rather than failing startup.
func (c *Config) ParseTimeframes() []TimeframeSpec {
	parts := strings.Split(c.EnabledTFs, ",")
	specs := make([]TimeframeSpec, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		nameSeconds := strings.SplitN(p, ":", 2)
		if len(nameSeconds) != 2 {
			log.Printf("[config] skipping invalid timeframe entry: %q", p)
			continue
		}
		seconds, err := strconv.Atoi(strings.TrimSpace(nameSeconds[1]))
		if err != nil || seconds <= 0 {
			log.Printf("[config] skipping invalid timeframe entry: %q", p)
			continue
		}
		specs = append(specs, TimeframeSpec{
			Name:   strings.TrimSpace(nameSeconds[0]),
			Window: time.Duration(seconds) * time.Second,
		})
	}
	return specs
}

// ParseSymbols splits the comma-separated Symbols field.
func (c *Config) ParseSymbols() []string {
	parts := strings.Split(c.Symbols, ",")
	symbols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			symbols = append(symbols, p)
		}
	}
	return symbols
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[config] invalid duration for %s=%q, using default %s", key, v, fallback)
		return fallback
	}
	return d
}
