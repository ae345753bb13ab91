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

// Config holds all the configuration variables for the account service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort             string  `mapstructure:"SERVER_PORT"`
	DatabaseURL            string  `mapstructure:"DATABASE_URL"`
	RedisURL               string  `mapstructure:"REDIS_URL"`
	RabbitMQURL            string  `mapstructure:"RABBITMQ_URL"`
	NotificationExchange   string  `mapstructure:"NOTIFICATION_EXCHANGE"`
	JWTSecret              string  `mapstructure:"JWT_SECRET"`
	ClientURL              string  `mapstructure:"CLIENT_URL"`
	BaseRatePercent        float64 `mapstructure:"BASE_RATE_PERCENT"`
	SweepIntervalMinutes   int     `mapstructure:"SWEEP_INTERVAL_MINUTES"`
	RegistrationTTLMinutes int     `mapstructure:"REGISTRATION_TTL_MINUTES"`
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
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("NOTIFICATION_EXCHANGE", "banking.notifications")
	viper.SetDefault("CLIENT_URL", "http://localhost:3000")
	// Demand-deposit rate applied to checking balances and to the elapsed
	// months of an early-settled deposit.
	viper.SetDefault("BASE_RATE_PERCENT", 0.5)
	viper.SetDefault("SWEEP_INTERVAL_MINUTES", 60)
	viper.SetDefault("REGISTRATION_TTL_MINUTES", 15)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("NOTIFICATION_EXCHANGE")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("CLIENT_URL")
	_ = viper.BindEnv("BASE_RATE_PERCENT")
	_ = viper.BindEnv("SWEEP_INTERVAL_MINUTES")
	_ = viper.BindEnv("REGISTRATION_TTL_MINUTES")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
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
	config.RedisURL = strings.TrimSpace(config.RedisURL)

	if config.BaseRatePercent < 0 {
		log.Printf("level=warn component=config msg=\"negative base rate configured; coercing to zero\" base_rate_percent=%f", config.BaseRatePercent)
		config.BaseRatePercent = 0
	}
	if config.SweepIntervalMinutes <= 0 {
		config.SweepIntervalMinutes = 60
	}
	if config.RegistrationTTLMinutes <= 0 {
		config.RegistrationTTLMinutes = 15
	}

	return
}
