package database

import (
	"fmt"
	"net/url"
	"time"

	"fintrack/internal/config"
)

// Supported drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds database configuration
type Config struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	AcquireTimeout time.Duration
}

// NewConfig derives the database configuration from the application config.
func NewConfig(cfg *config.Config) *Config {
	return &Config{
		Driver:         cfg.DBDriver,
		Host:           cfg.DBHost,
		Port:           cfg.DBPort,
		User:           cfg.DBUser,
		Password:       cfg.DBPassword,
		DBName:         cfg.DBName,
		SSLMode:        cfg.DBSSLMode,
		AcquireTimeout: cfg.DBAcquireTimeout,
	}
}

// DSN returns the driver-specific connection string used by GORM.
func (c *Config) DSN() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode, int(c.dialTimeout().Seconds()))
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.dialTimeout())
}

// MigrationURL returns the connection URL understood by golang-migrate.
func (c *Config) MigrationURL() string {
	if c.Driver == DriverPostgres {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.DBName, c.SSLMode)
	}
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// MigrationSource returns the file source holding the driver's migrations.
func (c *Config) MigrationSource() string {
	return "file://migrations/" + c.Driver
}

func (c *Config) dialTimeout() time.Duration {
	if c.AcquireTimeout <= 0 {
		return 15 * time.Second
	}
	return c.AcquireTimeout
}
