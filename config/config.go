package config

import (
	"os"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
)

// Config holds the settings of the backend service and of the listing client.
type Config struct {
	// Server configuration
	Port     string
	LogLevel string

	// RabbitMQ configuration. An empty AMQPURL disables event publishing.
	AMQPURL                 string
	ReportsExchange         string
	ReportCreatedRoutingKey string

	// Client configuration
	BackendURL        string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	PageSize          int
	RadiusMeters      float64
}

// Load reads an optional .env file and then the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debugf("No .env file loaded: %v", err)
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AMQPURL:                 getEnv("AMQP_URL", ""),
		ReportsExchange:         getEnv("REPORTS_EXCHANGE", "petboard"),
		ReportCreatedRoutingKey: getEnv("REPORT_CREATED_ROUTING_KEY", "report.created"),

		BackendURL:        getEnv("BACKEND_URL", "http://127.0.0.1:8080"),
		RequestTimeout:    getDurationEnv("REQUEST_TIMEOUT", 10*time.Second),
		RequestsPerSecond: getFloatEnv("REQUESTS_PER_SECOND", 20),
		PageSize:          getIntEnv("PAGE_SIZE", 10),
		RadiusMeters:      getFloatEnv("RADIUS_METERS", 3000),
	}
}

// ApplyLogLevel sets the apex/log level, falling back to info.
func (c *Config) ApplyLogLevel() {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", c.LogLevel)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
