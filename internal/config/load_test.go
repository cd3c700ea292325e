package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupEnv sets up environment variables for testing
func setupEnv(t *testing.T, envVars map[string]string) func() {
	// Save current environment values
	originalValues := make(map[string]string)
	for name := range envVars {
		originalValues[name] = os.Getenv(name)
	}

	// Set new environment variables
	for name, value := range envVars {
		err := os.Setenv(name, value)
		require.NoError(t, err, "Failed to set environment variable %s", name)
	}

	// Return cleanup function
	return func() {
		// Restore original environment
		for name, value := range originalValues {
			if value == "" {
				os.Unsetenv(name)
			} else {
				os.Setenv(name, value)
			}
		}
	}
}

// TestLoadDefaults verifies that Load returns the reference values when no
// environment variables are set.
func TestLoadDefaults(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"LOADQ_SERVER_PORT":           "",
		"LOADQ_LOG_LEVEL":             "",
		"LOADQ_SCHEDULER_CONCURRENCY": "",
		"LOADQ_SCHEDULER_TIMEOUT":     "",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with default values")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)

	assert.Equal(t, 3, cfg.Scheduler.Concurrency)
	assert.Equal(t, 3, cfg.Scheduler.MaxRetries)
	assert.Equal(t, 2500*time.Millisecond, cfg.Scheduler.Timeout)
	assert.Equal(t, "require_finished", cfg.Scheduler.CompletionPolicy)
	assert.True(t, cfg.Scheduler.AutoStart)

	assert.Equal(t, 0.9, cfg.Executor.SuccessRate)
	assert.Equal(t, time.Second, cfg.Executor.MinLatency)
	assert.Equal(t, 3*time.Second, cfg.Executor.MaxLatency)
	assert.False(t, cfg.Executor.FailImmediately)

	assert.Equal(t, 6, cfg.WorkList.Count)
	assert.Equal(t, 100*time.Millisecond, cfg.WorkList.Delay)
	assert.Empty(t, cfg.WorkList.IDs)

	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Telemetry.Interval)
}

// TestLoadFromEnv verifies that the Load function correctly reads values from environment variables.
func TestLoadFromEnv(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{
		"LOADQ_SERVER_ENABLED":              "true",
		"LOADQ_SERVER_PORT":                 "9090",
		"LOADQ_LOG_LEVEL":                   "debug",
		"LOADQ_SCHEDULER_CONCURRENCY":       "5",
		"LOADQ_SCHEDULER_MAX_RETRIES":       "1",
		"LOADQ_SCHEDULER_TIMEOUT":           "750ms",
		"LOADQ_SCHEDULER_COMPLETION_POLICY": "count_dropped",
		"LOADQ_EXECUTOR_SUCCESS_RATE":       "0.5",
		"LOADQ_EXECUTOR_FAIL_IMMEDIATELY":   "true",
		"LOADQ_WORKLIST_IDS":                "a.txt,b.txt",
	})
	defer cleanup()

	cfg, err := Load()

	require.NoError(t, err, "Load() should not return an error with valid environment variables")
	require.NotNil(t, cfg, "Load() should return a non-nil config")
	assert.True(t, cfg.Server.Enabled)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Scheduler.Concurrency)
	assert.Equal(t, 1, cfg.Scheduler.MaxRetries)
	assert.Equal(t, 750*time.Millisecond, cfg.Scheduler.Timeout)
	assert.Equal(t, "count_dropped", cfg.Scheduler.CompletionPolicy)
	assert.Equal(t, 0.5, cfg.Executor.SuccessRate)
	assert.True(t, cfg.Executor.FailImmediately)
	assert.Equal(t, []string{"a.txt", "b.txt"}, cfg.WorkList.IDs)
}

// TestLoadValidationErrors verifies that the Load function correctly validates the configuration.
func TestLoadValidationErrors(t *testing.T) {
	testCases := []struct {
		name    string
		envVars map[string]string
	}{
		{
			name:    "Invalid port number",
			envVars: map[string]string{"LOADQ_SERVER_PORT": "999999"},
		},
		{
			name:    "Invalid log level",
			envVars: map[string]string{"LOADQ_LOG_LEVEL": "invalid-level"},
		},
		{
			name:    "Negative concurrency",
			envVars: map[string]string{"LOADQ_SCHEDULER_CONCURRENCY": "-1"},
		},
		{
			name:    "Unknown completion policy",
			envVars: map[string]string{"LOADQ_SCHEDULER_COMPLETION_POLICY": "whenever"},
		},
		{
			name:    "Success rate above one",
			envVars: map[string]string{"LOADQ_EXECUTOR_SUCCESS_RATE": "1.5"},
		},
		{
			name: "Max latency below min latency",
			envVars: map[string]string{
				"LOADQ_EXECUTOR_MIN_LATENCY": "2s",
				"LOADQ_EXECUTOR_MAX_LATENCY": "1s",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cleanup := setupEnv(t, tc.envVars)
			defer cleanup()

			cfg, err := Load()

			require.Error(t, err, "Load() should return an error with invalid configuration")
			assert.Contains(t, err.Error(), "validation failed")
			assert.Nil(t, cfg, "Config should be nil when an error occurs")
		})
	}
}

func TestLoadUnparsableDuration(t *testing.T) {
	cleanup := setupEnv(t, map[string]string{"LOADQ_SCHEDULER_TIMEOUT": "soon"})
	defer cleanup()

	cfg, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config")
	assert.Nil(t, cfg)
}
