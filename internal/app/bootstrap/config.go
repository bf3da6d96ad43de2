package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Bus kinds accepted by newBus. The in-memory broker only makes sense when
// every service shares one process (tests, demos); real deployments pick a
// broker.
const (
	BusInMemory = "inmemory"
	BusRabbitMQ = "rabbitmq"
	BusKafka    = "kafka"
)

// Config is the resolved runtime configuration for one service binary.
// It merges file defaults and environment overrides to support both local and
// deployed runs.
type Config struct {
	ServiceID string
	HTTPPort  int

	BusKind       string
	BusURL        string
	KafkaBrokers  []string
	ConsumerGroup string
	QueueBuffer   int

	DatabaseURL string
	RedisURL    string

	BookServerURL   string
	SellerServerURL string

	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

// configFile mirrors the YAML schema used by configs/default.yaml.
type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
	} `yaml:"service"`
	Bus struct {
		Kind          string   `yaml:"kind"`
		URL           string   `yaml:"url"`
		KafkaBrokers  []string `yaml:"kafka_brokers"`
		ConsumerGroup string   `yaml:"consumer_group"`
		QueueBuffer   int      `yaml:"queue_buffer"`
	} `yaml:"bus"`
	Dependencies struct {
		PostgresURL     string `yaml:"postgres_url"`
		RedisURL        string `yaml:"redis_url"`
		BookServerURL   string `yaml:"book_server_url"`
		SellerServerURL string `yaml:"seller_server_url"`
	} `yaml:"dependencies"`
	Auth struct {
		JWTSecret     string `yaml:"jwt_secret"`
		TokenTTLHours int    `yaml:"token_ttl_hours"`
		BcryptCost    int    `yaml:"bcrypt_cost"`
	} `yaml:"auth"`
}

// LoadConfig resolves configuration in priority order: defaults -> file -> env.
func LoadConfig(path, serviceID string) (Config, error) {
	cfg := Config{
		ServiceID:     serviceID,
		HTTPPort:      8080,
		BusKind:       BusInMemory,
		ConsumerGroup: serviceID,
		QueueBuffer:   128,
		JWTSecret:     "insecure-local-secret",
		TokenTTL:      24 * time.Hour,
		BcryptCost:    12,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
			cfg.ConsumerGroup = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Bus.Kind != "" {
			cfg.BusKind = f.Bus.Kind
		}
		if f.Bus.URL != "" {
			cfg.BusURL = f.Bus.URL
		}
		if len(f.Bus.KafkaBrokers) > 0 {
			cfg.KafkaBrokers = f.Bus.KafkaBrokers
		}
		if f.Bus.ConsumerGroup != "" {
			cfg.ConsumerGroup = f.Bus.ConsumerGroup
		}
		if f.Bus.QueueBuffer > 0 {
			cfg.QueueBuffer = f.Bus.QueueBuffer
		}
		if f.Dependencies.PostgresURL != "" {
			cfg.DatabaseURL = f.Dependencies.PostgresURL
		}
		if f.Dependencies.RedisURL != "" {
			cfg.RedisURL = f.Dependencies.RedisURL
		}
		if f.Dependencies.BookServerURL != "" {
			cfg.BookServerURL = f.Dependencies.BookServerURL
		}
		if f.Dependencies.SellerServerURL != "" {
			cfg.SellerServerURL = f.Dependencies.SellerServerURL
		}
		if f.Auth.JWTSecret != "" {
			cfg.JWTSecret = f.Auth.JWTSecret
		}
		if f.Auth.TokenTTLHours > 0 {
			cfg.TokenTTL = time.Duration(f.Auth.TokenTTLHours) * time.Hour
		}
		if f.Auth.BcryptCost > 0 {
			cfg.BcryptCost = f.Auth.BcryptCost
		}
	}

	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.BusKind = strings.ToLower(strings.TrimSpace(envOrDefault("BUS_KIND", cfg.BusKind)))
	cfg.BusURL = envOrDefault("BUS_URL", envOrDefault("AMQP_URL", cfg.BusURL))
	cfg.KafkaBrokers = envCSV("KAFKA_BROKERS", cfg.KafkaBrokers)
	cfg.ConsumerGroup = envOrDefault("CONSUMER_GROUP", cfg.ConsumerGroup)
	cfg.QueueBuffer = envInt("QUEUE_BUFFER", cfg.QueueBuffer)
	cfg.DatabaseURL = envOrDefault("DB_URL", envOrDefault("POSTGRES_URL", cfg.DatabaseURL))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.BookServerURL = envOrDefault("BOOK_SERVER_URL", cfg.BookServerURL)
	cfg.SellerServerURL = envOrDefault("SELLER_SERVER_URL", cfg.SellerServerURL)
	cfg.JWTSecret = envOrDefault("JWT_SECRET", cfg.JWTSecret)
	cfg.TokenTTL = time.Duration(envInt("TOKEN_EXPIRY_HOURS", int(cfg.TokenTTL.Hours()))) * time.Hour
	cfg.BcryptCost = envInt("BCRYPT_ROUNDS", cfg.BcryptCost)

	switch cfg.BusKind {
	case BusInMemory, BusRabbitMQ, BusKafka:
	default:
		return Config{}, fmt.Errorf("unknown bus kind %q", cfg.BusKind)
	}
	if cfg.BusKind == BusRabbitMQ && cfg.BusURL == "" {
		return Config{}, fmt.Errorf("missing BUS_URL for rabbitmq bus")
	}
	if cfg.BusKind == BusKafka && len(cfg.KafkaBrokers) == 0 {
		return Config{}, fmt.Errorf("missing KAFKA_BROKERS for kafka bus")
	}

	return cfg, nil
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envCSV parses comma-separated env vars and removes empty segments.
func envCSV(name string, fallback []string) []string {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parts := make([]string, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}
	if len(parts) == 0 {
		return fallback
	}
	return parts
}
