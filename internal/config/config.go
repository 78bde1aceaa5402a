package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"fintrack/internal/logger"
)

// Config holds application configuration
type Config struct {
	// Server
	Env        string
	Port       string
	CORSOrigin string

	// Database
	DBDriver         string
	DBHost           string
	DBPort           string
	DBUser           string
	DBPassword       string
	DBName           string
	DBSSLMode        string
	DBAcquireTimeout time.Duration

	// JWT
	JWTSecret        string
	JWTExpirationDur time.Duration

	// Login attempts allowed per client IP per minute
	LoginRateLimit int
}

var (
	appConfig *Config
	mu        sync.Mutex
)

// defaults are the values used when neither config.yaml nor the environment
// provide a key.
var defaults = map[string]interface{}{
	"env":                "development",
	"port":               "8080",
	"cors_origin":        "*",
	"db_driver":          "mysql",
	"db_host":            "localhost",
	"db_port":            "3306",
	"db_user":            "fintrack",
	"db_password":        "fintrack",
	"db_name":            "fintrack",
	"db_sslmode":         "disable",
	"db_acquire_timeout": "15s",
	"jwt_secret":         "fallback-secret-key-for-dev-only",
	"jwt_expires_in":     "24h",
	"login_rate_limit":   10,
}

// Load resolves configuration from defaults, an optional config.yaml and the
// environment (highest precedence). A .env file, when present, is loaded into
// the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Get().Debug(".env file not found, using process environment")
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Env:        v.GetString("env"),
		Port:       v.GetString("port"),
		CORSOrigin: v.GetString("cors_origin"),

		DBDriver:   strings.ToLower(v.GetString("db_driver")),
		DBHost:     v.GetString("db_host"),
		DBPort:     v.GetString("db_port"),
		DBUser:     v.GetString("db_user"),
		DBPassword: v.GetString("db_password"),
		DBName:     v.GetString("db_name"),
		DBSSLMode:  v.GetString("db_sslmode"),

		JWTSecret:      v.GetString("jwt_secret"),
		LoginRateLimit: v.GetInt("login_rate_limit"),
	}

	cfg.DBAcquireTimeout = parseDuration(v.GetString("db_acquire_timeout"), 15*time.Second, "DB_ACQUIRE_TIMEOUT")
	cfg.JWTExpirationDur = parseDuration(v.GetString("jwt_expires_in"), 24*time.Hour, "JWT_EXPIRES_IN")

	if cfg.DBDriver != "mysql" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (use mysql or postgres)", cfg.DBDriver)
	}
	if cfg.LoginRateLimit <= 0 {
		cfg.LoginRateLimit = 10
	}

	Set(cfg)
	return cfg, nil
}

// Get returns the application configuration, loading it on first use.
func Get() *Config {
	mu.Lock()
	cfg := appConfig
	mu.Unlock()
	if cfg != nil {
		return cfg
	}

	cfg, err := Load()
	if err != nil {
		logger.Get().Fatalf("Failed to load configuration: %v", err)
	}
	return cfg
}

// Set replaces the global configuration. Tests use it to inject a secret
// without touching the environment.
func Set(cfg *Config) {
	mu.Lock()
	appConfig = cfg
	mu.Unlock()
}

func parseDuration(raw string, fallback time.Duration, key string) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		logger.Get().Warnf("invalid %s value '%s', falling back to %s", key, raw, fallback)
		return fallback
	}
	return d
}
