package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig
	MarketData MarketDataConfig
	Chart      ChartConfig
	Screener   ScreenerConfig
	Kafka      KafkaConfig
	Logging    LoggingConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// MarketDataConfig holds configuration for the external market data source
type MarketDataConfig struct {
	URL        string
	Timeout    time.Duration
	ServiceKey string
}

// ChartConfig holds chart assembly configuration
type ChartConfig struct {
	Windows     []int
	DefaultDays int
}

// ScreenerConfig holds screener session configuration
type ScreenerConfig struct {
	Band       float64
	PageLimit  int
	SessionTTL time.Duration
}

// KafkaConfig holds Kafka specific configuration. An empty brokers list
// disables event forwarding.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables override
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "10s")
	v.SetDefault("server.idleTimeout", "120s")

	// Market data source defaults
	v.SetDefault("marketData.url", "http://market-data:8090")
	v.SetDefault("marketData.timeout", "10s")
	v.SetDefault("marketData.serviceKey", "watchlist-service-key")

	// Chart defaults
	v.SetDefault("chart.windows", []int{20, 60, 90})
	v.SetDefault("chart.defaultDays", 365)

	// Screener defaults
	v.SetDefault("screener.band", 3.0)
	v.SetDefault("screener.pageLimit", 20)
	v.SetDefault("screener.sessionTTL", "30m")

	// Kafka defaults
	v.SetDefault("kafka.topic", "watchlist-events")
	v.SetDefault("kafka.clientID", "watchlist-service")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
