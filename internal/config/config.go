package config

import (
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the nearby search service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - Port: The port of the HTTP API server.
// - ProviderType: The geocoding provider to use (google, nominatim, visicom, fixture).
// - Search: Limits of the lazy geocoding done inside a search.
// - Warmer: Settings of the background geocoding loop.
// - Database: Configuration settings for the PostgreSQL database.
// - Redis: Optional geocode cache.
type Config struct {
	Env               string         // Env is the current environment: local, development, production.
	Port              int            // Port is the HTTP API server port.
	ProviderType      string         // ProviderType specifies which geocoding provider to use.
	APIKey            string         // APIKey authenticates against paid providers.
	ProviderRateLimit int            // ProviderRateLimit is requests per second, 0 uses the provider default.
	UserAgent         string         // UserAgent is sent to Nominatim.
	MaxAttempts       int            // MaxAttempts stops retrying addresses that keep failing.
	OfflineFallback   bool           // OfflineFallback serves a placeholder match when the store is down.
	Search            SearchConfig   // Search bounds the backfill step of a search.
	Warmer            WarmerConfig   // Warmer configures background geocoding.
	Database          PostgresConfig // Database holds the postgres database configuration.
	Redis             RedisConfig    // Redis holds the geocode cache configuration.
}

// SearchConfig bounds lazy geocoding per search.
type SearchConfig struct {
	BackfillCap    int
	Workers        int
	GeocodeTimeout time.Duration
	BackfillBudget time.Duration
}

// WarmerConfig configures the background warmer. A zero interval disables it.
type WarmerConfig struct {
	Interval time.Duration
	Batch    int
	Workers  int
}

// PostgresConfig struct holds the configuration details for connecting to a PostgreSQL database.
type PostgresConfig struct {
	Host      string // Host is the database server address.
	Port      string // Port is the database server port.
	User      string // User is the database user.
	Password  string // Password is the database user's password.
	Name      string // Name is the name of the database.
	Bootstrap bool   // Bootstrap applies the schema on startup.
}

// RedisConfig enables the geocode cache when Addr is set.
type RedisConfig struct {
	Addr     string
	Password string
	TTL      time.Duration
}

var defaults = map[string]string{
	"env":                  "production",
	"http_port":            "8080",
	"provider_type":        "nominatim",
	"provider_rate_limit":  "0",
	"backfill_cap":         "5",
	"backfill_workers":     "5",
	"geocode_timeout":      "3s",
	"backfill_budget":      "8s",
	"warmer_interval":      "10m",
	"warmer_batch":         "50",
	"warmer_workers":       "2",
	"max_geocode_attempts": "5",
	"offline_fallback":     "false",
	"db_bootstrap":         "false",
	"cache_ttl":            "720h",
	"db_port":              "5432",
}

// MustLoad reads an optional .env from the working directory and the process
// environment. It panics on malformed values.
func MustLoad() *Config {
	return MustLoadFrom(".env")
}

// MustLoadFrom is MustLoad with an explicit .env path. Variables already set in the
// environment win over the file.
func MustLoadFrom(envFile string) *Config {
	_ = godotenv.Load(envFile)

	v := viper.New()
	v.SetEnvPrefix("NEARBY")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range map[string]string{
		"db_host":     "DB_HOST",
		"db_port":     "DB_PORT",
		"db_username": "DB_USERNAME",
		"db_password": "DB_PASSWORD",
		"db_name":     "DB_NAME",
	} {
		_ = v.BindEnv(key, env)
	}

	return &Config{
		Env:               v.GetString("env"),
		Port:              mustInt(v, "http_port", "failed to parse port for http server from configuration"),
		ProviderType:      v.GetString("provider_type"),
		APIKey:            v.GetString("provider_key"),
		ProviderRateLimit: mustInt(v, "provider_rate_limit", "failed to parse provider rate limit from configuration"),
		UserAgent:         v.GetString("user_agent"),
		MaxAttempts:       mustInt(v, "max_geocode_attempts", "failed to parse max geocode attempts from configuration"),
		OfflineFallback:   mustBool(v, "offline_fallback", "failed to parse offline fallback flag from configuration"),
		Search: SearchConfig{
			BackfillCap:    mustInt(v, "backfill_cap", "failed to parse backfill cap from configuration"),
			Workers:        mustInt(v, "backfill_workers", "failed to parse backfill workers from configuration"),
			GeocodeTimeout: mustDuration(v, "geocode_timeout", "failed to parse geocode timeout from configuration"),
			BackfillBudget: mustDuration(v, "backfill_budget", "failed to parse backfill budget from configuration"),
		},
		Warmer: WarmerConfig{
			Interval: mustDuration(v, "warmer_interval", "failed to parse warmer interval from configuration"),
			Batch:    mustInt(v, "warmer_batch", "failed to parse warmer batch from configuration"),
			Workers:  mustInt(v, "warmer_workers", "failed to parse warmer workers from configuration"),
		},
		Database: PostgresConfig{
			Host:      v.GetString("db_host"),
			Port:      v.GetString("db_port"),
			User:      v.GetString("db_username"),
			Password:  v.GetString("db_password"),
			Name:      v.GetString("db_name"),
			Bootstrap: mustBool(v, "db_bootstrap", "failed to parse db bootstrap flag from configuration"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			TTL:      mustDuration(v, "cache_ttl", "failed to parse cache ttl from configuration"),
		},
	}
}

// viper's typed getters fall back to zero values on bad input, so values are parsed here.
func mustInt(v *viper.Viper, key, msg string) int {
	n, err := strconv.Atoi(v.GetString(key))
	if err != nil {
		panic(msg)
	}
	return n
}

func mustBool(v *viper.Viper, key, msg string) bool {
	b, err := strconv.ParseBool(v.GetString(key))
	if err != nil {
		panic(msg)
	}
	return b
}

func mustDuration(v *viper.Viper, key, msg string) time.Duration {
	d, err := time.ParseDuration(v.GetString(key))
	if err != nil {
		panic(msg)
	}
	return d
}
