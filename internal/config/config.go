package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Clock     ClockConfig     `mapstructure:"clock" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=1"`
}

// ShutdownTimeout returns the graceful shutdown budget.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// DatabaseConfig contains all database-related configuration settings.
// URL is a Postgres connection string for the postgres driver and a file
// path or file: DSN for the sqlite driver.
type DatabaseConfig struct {
	Driver                 string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL                    string `mapstructure:"url" validate:"required"`
	MaxOpenConns           int    `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// AuthConfig contains the settings used to validate principal tokens.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"gt=0,lte=10080"`
}

// ClockConfig selects the business time zone used for deadline rules,
// date filters and sweep windows.
type ClockConfig struct {
	TimeZone string `mapstructure:"time_zone" validate:"required,timezone"`
}

// SchedulerConfig controls the periodic sweeps.
type SchedulerConfig struct {
	Enabled                 bool `mapstructure:"enabled"`
	OverdueIntervalSeconds  int  `mapstructure:"overdue_interval_seconds" validate:"gte=1"`
	UpcomingIntervalSeconds int  `mapstructure:"upcoming_interval_seconds" validate:"gte=1"`
	ArchiveIntervalSeconds  int  `mapstructure:"archive_interval_seconds" validate:"gte=1"`
	WorkerCount             int  `mapstructure:"worker_count" validate:"gte=1,lte=16"`
	QueueSize               int  `mapstructure:"queue_size" validate:"gte=1"`
}

// OverdueInterval returns the overdue sweep period.
func (c SchedulerConfig) OverdueInterval() time.Duration {
	return time.Duration(c.OverdueIntervalSeconds) * time.Second
}

// UpcomingInterval returns the upcoming-deadline sweep period.
func (c SchedulerConfig) UpcomingInterval() time.Duration {
	return time.Duration(c.UpcomingIntervalSeconds) * time.Second
}

// ArchiveInterval returns the auto-archive sweep period.
func (c SchedulerConfig) ArchiveInterval() time.Duration {
	return time.Duration(c.ArchiveIntervalSeconds) * time.Second
}
