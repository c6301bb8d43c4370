/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the paylater-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	CheckQueueName       string `mapstructure:"CREDIT_CHECK_QUEUE"`
	CRCAPIBaseURL        string `mapstructure:"CRC_API_BASE_URL"`
	CRCAPIKey            string `mapstructure:"CRC_API_KEY"`
	InternalAPIKey       string `mapstructure:"INTERNAL_API_KEY"`

	CheckMaxAttempts       int    `mapstructure:"CREDIT_CHECK_MAX_ATTEMPTS"`
	CheckRetryDelaySeconds int    `mapstructure:"CREDIT_CHECK_RETRY_DELAY_SECONDS"`
	StuckSweepSchedule     string `mapstructure:"STUCK_SWEEP_SCHEDULE"`
	StuckThresholdMinutes  int    `mapstructure:"STUCK_THRESHOLD_MINUTES"`
	SubmissionLimitPerMin  int    `mapstructure:"SUBMISSION_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8086")
	viper.SetDefault("CREDIT_CHECK_QUEUE", "paylater_service.credit_checks")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "paylater:rate_limit")
	viper.SetDefault("CREDIT_CHECK_MAX_ATTEMPTS", 5)
	viper.SetDefault("CREDIT_CHECK_RETRY_DELAY_SECONDS", 60)
	viper.SetDefault("STUCK_SWEEP_SCHEDULE", "*/15 * * * *")
	viper.SetDefault("STUCK_THRESHOLD_MINUTES", 30)
	viper.SetDefault("SUBMISSION_RATE_LIMIT_PER_MINUTE", 5)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("CREDIT_CHECK_QUEUE")
	_ = viper.BindEnv("CRC_API_BASE_URL")
	_ = viper.BindEnv("CRC_API_KEY")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "PAYLATER_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("CREDIT_CHECK_MAX_ATTEMPTS")
	_ = viper.BindEnv("CREDIT_CHECK_RETRY_DELAY_SECONDS")
	_ = viper.BindEnv("STUCK_SWEEP_SCHEDULE")
	_ = viper.BindEnv("STUCK_THRESHOLD_MINUTES")
	_ = viper.BindEnv("SUBMISSION_RATE_LIMIT_PER_MINUTE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("PAYLATER_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "paylater:rate_limit"
	}

	if config.CheckMaxAttempts <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive max attempts configured; using default\" value=%d", config.CheckMaxAttempts)
		config.CheckMaxAttempts = 5
	}
	if config.CheckRetryDelaySeconds < 0 {
		log.Printf("level=warn component=config msg=\"negative retry delay configured; coercing to zero\" value=%d", config.CheckRetryDelaySeconds)
		config.CheckRetryDelaySeconds = 0
	}
	if config.StuckThresholdMinutes <= 0 {
		config.StuckThresholdMinutes = 30
	}
	if strings.TrimSpace(config.StuckSweepSchedule) == "" {
		config.StuckSweepSchedule = "*/15 * * * *"
	}
	if config.SubmissionLimitPerMin < 0 {
		config.SubmissionLimitPerMin = 0
	}

	return
}
