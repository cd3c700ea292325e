package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable read by Load,
// e.g. LOADQ_SCHEDULER_CONCURRENCY.
const EnvPrefix = "LOADQ"

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env file is not an error
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the struct tags of cfg
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// setDefaults registers a default for every key so that AutomaticEnv can
// override each of them
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.port", 8080)

	v.SetDefault("log.level", "info")

	v.SetDefault("scheduler.concurrency", 3)
	v.SetDefault("scheduler.max_retries", 3)
	v.SetDefault("scheduler.timeout", "2500ms")
	v.SetDefault("scheduler.completion_policy", "require_finished")
	v.SetDefault("scheduler.auto_start", true)

	v.SetDefault("executor.success_rate", 0.9)
	v.SetDefault("executor.min_latency", "1s")
	v.SetDefault("executor.max_latency", "3s")
	v.SetDefault("executor.fail_immediately", false)

	v.SetDefault("worklist.count", 6)
	v.SetDefault("worklist.delay", "100ms")
	v.SetDefault("worklist.ids", []string{})

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.interval", "10s")
}
