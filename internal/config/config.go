package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser  string
	DBPass  string
	DBHost  string
	DBPort  string
	DBName  string
	SSLMode string

	RedisHost string
	RedisPort string

	NatsEnabled string
	NatsHost    string
	NatsPort    string

	ApiEnabled string
	ApiPort    string

	GatewayURL     string
	GatewayToken   string
	GatewaySecret  string
	GatewayTimeout time.Duration

	StartingCredits int64
	SearchCost      int64
}

// New loads and validates configuration from environment variables.
// The HTTP API and the NATS command transport are both optional: if
// CONTACTFINDER_API_ENABLED != "true", ApiAddr() returns an error and the
// HTTP server simply won't start; the same applies to NATS via NatsOn().
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:  os.Getenv("CONTACTFINDER_POSTGRES_USER"),
		DBPass:  os.Getenv("CONTACTFINDER_POSTGRES_PASSWORD"),
		DBHost:  os.Getenv("CONTACTFINDER_POSTGRES_HOST"),
		DBPort:  os.Getenv("CONTACTFINDER_POSTGRES_PORT"),
		DBName:  os.Getenv("CONTACTFINDER_POSTGRES_DB"),
		SSLMode: os.Getenv("CONTACTFINDER_POSTGRES_SSLMODE"),

		RedisHost: os.Getenv("CONTACTFINDER_REDIS_HOST"),
		RedisPort: os.Getenv("CONTACTFINDER_REDIS_PORT"),

		NatsEnabled: os.Getenv("CONTACTFINDER_NATS_ENABLED"),
		NatsHost:    os.Getenv("CONTACTFINDER_NATS_HOST"),
		NatsPort:    os.Getenv("CONTACTFINDER_NATS_PORT"),

		ApiEnabled: os.Getenv("CONTACTFINDER_API_ENABLED"),
		ApiPort:    os.Getenv("CONTACTFINDER_API_PORT"),

		GatewayURL:     os.Getenv("CONTACTFINDER_GATEWAY_URL"),
		GatewayToken:   os.Getenv("CONTACTFINDER_GATEWAY_TOKEN"),
		GatewaySecret:  os.Getenv("CONTACTFINDER_GATEWAY_SECRET"),
		GatewayTimeout: time.Duration(getEnvInt("CONTACTFINDER_GATEWAY_TIMEOUT_SECONDS", 15)) * time.Second,

		StartingCredits: int64(getEnvInt("CONTACTFINDER_STARTING_CREDITS", 10)),
		SearchCost:      int64(getEnvInt("CONTACTFINDER_SEARCH_COST", 1)),
	}

	// Required: database
	if cfg.DBUser == "" || cfg.DBHost == "" || cfg.DBName == "" || cfg.SSLMode == "" {
		return nil, fmt.Errorf("missing required env for database: CONTACTFINDER_POSTGRES_USER/HOST/DB/SSLMODE")
	}

	// Required: redis
	if cfg.RedisHost == "" || cfg.RedisPort == "" {
		return nil, fmt.Errorf("missing required env for redis: CONTACTFINDER_REDIS_HOST/PORT")
	}

	if cfg.NatsOn() && (cfg.NatsHost == "" || cfg.NatsPort == "") {
		return nil, fmt.Errorf("missing required env for nats: CONTACTFINDER_NATS_HOST/PORT")
	}

	if cfg.GatewayURL == "" {
		cfg.GatewayURL = "https://suggestions.dadata.ru"
	}

	if cfg.StartingCredits < 0 {
		return nil, fmt.Errorf("CONTACTFINDER_STARTING_CREDITS must not be negative")
	}
	if cfg.SearchCost < 1 {
		return nil, fmt.Errorf("CONTACTFINDER_SEARCH_COST must be at least 1")
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) NatsAddr() string {
	return fmt.Sprintf("nats://%s:%s", c.NatsHost, c.NatsPort)
}

func (c *Config) NatsOn() bool {
	return c.NatsEnabled == "true"
}

// ApiAddr returns the HTTP listen address if the API is enabled.
// Returns an error if CONTACTFINDER_API_ENABLED != "true" — callers should
// skip starting the HTTP server.
func (c *Config) ApiAddr() (string, error) {
	if c.ApiEnabled == "true" {
		if c.ApiPort == "" {
			return "", fmt.Errorf("CONTACTFINDER_API_PORT is required when CONTACTFINDER_API_ENABLED=true")
		}
		return ":" + c.ApiPort, nil
	}
	return "", fmt.Errorf("HTTP API is disabled (CONTACTFINDER_API_ENABLED != true)")
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var intVal int
	if _, err := fmt.Sscanf(val, "%d", &intVal); err != nil {
		return defaultVal
	}
	return intVal
}
