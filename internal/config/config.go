package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Executor  ExecutorConfig  `mapstructure:"executor" validate:"required"`
	WorkList  WorkListConfig  `mapstructure:"worklist"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig contains the HTTP API settings.
type ServerConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"required,gt=0,lt=65536"`
}

// LogConfig defines logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// SchedulerConfig contains the run scheduling settings.
type SchedulerConfig struct {
	Concurrency      int           `mapstructure:"concurrency" validate:"required,gt=0"`
	MaxRetries       int           `mapstructure:"max_retries" validate:"gte=0"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"required,gt=0"`
	CompletionPolicy string        `mapstructure:"completion_policy" validate:"required,oneof=require_finished count_dropped"`
	AutoStart        bool          `mapstructure:"auto_start"`
}

// ExecutorConfig contains the simulated file loader settings.
type ExecutorConfig struct {
	SuccessRate     float64       `mapstructure:"success_rate" validate:"gte=0,lte=1"`
	MinLatency      time.Duration `mapstructure:"min_latency" validate:"gte=0"`
	MaxLatency      time.Duration `mapstructure:"max_latency" validate:"gtefield=MinLatency"`
	FailImmediately bool          `mapstructure:"fail_immediately"`
}

// WorkListConfig describes where the task ids of a run come from. A non-empty
// IDs list takes precedence over the numbered list.
type WorkListConfig struct {
	Count int           `mapstructure:"count" validate:"gte=0"`
	Delay time.Duration `mapstructure:"delay" validate:"gte=0"`
	IDs   []string      `mapstructure:"ids" validate:"omitempty,dive,required"`
}

// TelemetryConfig controls OpenTelemetry metrics export.
type TelemetryConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`
}
