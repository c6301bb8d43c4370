package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_RetryPolicyDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "CREDIT_CHECK_MAX_ATTEMPTS")
	unsetEnvWithCleanup(t, "CREDIT_CHECK_RETRY_DELAY_SECONDS")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CheckMaxAttempts != 5 {
		t.Fatalf("expected default CheckMaxAttempts 5, got %d", cfg.CheckMaxAttempts)
	}
	if cfg.CheckRetryDelaySeconds != 60 {
		t.Fatalf("expected default CheckRetryDelaySeconds 60, got %d", cfg.CheckRetryDelaySeconds)
	}
}

func TestLoadConfig_CoercesInvalidRetryPolicy(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "CREDIT_CHECK_MAX_ATTEMPTS", "0")
	setEnvWithCleanup(t, "CREDIT_CHECK_RETRY_DELAY_SECONDS", "-10")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.CheckMaxAttempts != 5 {
		t.Fatalf("expected non-positive max attempts to fall back to 5, got %d", cfg.CheckMaxAttempts)
	}
	if cfg.CheckRetryDelaySeconds != 0 {
		t.Fatalf("expected negative retry delay to coerce to 0, got %d", cfg.CheckRetryDelaySeconds)
	}
}

func TestLoadConfig_UsesPaylaterServiceInternalAPIKeyAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "INTERNAL_API_KEY")
	setEnvWithCleanup(t, "PAYLATER_SERVICE_INTERNAL_API_KEY", "alias-only-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "alias-only-key" {
		t.Fatalf("expected InternalAPIKey from alias env var, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_InternalAPIKeyTakesPrecedenceOverAlias(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "INTERNAL_API_KEY", "primary-key")
	setEnvWithCleanup(t, "PAYLATER_SERVICE_INTERNAL_API_KEY", "alias-key")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.InternalAPIKey != "primary-key" {
		t.Fatalf("expected InternalAPIKey to prioritize INTERNAL_API_KEY, got %q", cfg.InternalAPIKey)
	}
}

func TestLoadConfig_PortOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	setEnvWithCleanup(t, "SERVER_PORT", "8086")
	setEnvWithCleanup(t, "PORT", "9001")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "9001" {
		t.Fatalf("expected PORT to override SERVER_PORT, got %q", cfg.ServerPort)
	}
}

func TestLoadConfig_SweepDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	unsetEnvWithCleanup(t, "STUCK_SWEEP_SCHEDULE")
	unsetEnvWithCleanup(t, "STUCK_THRESHOLD_MINUTES")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.StuckSweepSchedule != "*/15 * * * *" {
		t.Fatalf("unexpected default sweep schedule %q", cfg.StuckSweepSchedule)
	}
	if cfg.StuckThresholdMinutes != 30 {
		t.Fatalf("unexpected default stuck threshold %d", cfg.StuckThresholdMinutes)
	}
}

func setEnvWithCleanup(t *testing.T, key string, value string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func unsetEnvWithCleanup(t *testing.T, key string) {
	t.Helper()
	prev, hadPrev := os.LookupEnv(key)
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset env %s: %v", key, err)
	}
	t.Cleanup(func() {
		if hadPrev {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}
