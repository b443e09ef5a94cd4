package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

// Config holds all storefront-service configuration.
type Config struct {
	HTTPPort string `yaml:"http_port"`
	GRPCPort string `yaml:"grpc_port"`

	Storage  StorageConfig  `yaml:"storage"`
	Registry RegistryConfig `yaml:"registry"`
	Catalog  CatalogConfig  `yaml:"catalog"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`

	RequestTimeout  string `yaml:"request_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Backend       string `yaml:"backend"` // memory, redis, mongo
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`

	MongoMaxPoolSize            uint64 `yaml:"mongo_max_pool_size"`
	MongoConnectTimeout         string `yaml:"mongo_connect_timeout"`
	MongoServerSelectionTimeout string `yaml:"mongo_server_selection_timeout"`

	BreakerFailures int    `yaml:"breaker_failures"`
	BreakerTimeout  string `yaml:"breaker_timeout"`
}

// RegistryConfig bounds the in-memory client stores. Evicted clients reload
// from storage on their next request.
type RegistryConfig struct {
	MaxClients    int    `yaml:"max_clients"` // 0 disables the cap
	IdleTTL       string `yaml:"idle_ttl"`    // 0 disables idle eviction
	SweepInterval string `yaml:"sweep_interval"`
}

type CatalogConfig struct {
	DBPath string `yaml:"db_path"`
}

// KafkaConfig configures the checkout consumer. No brokers disables it.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type AuthConfig struct {
	Latency string `yaml:"latency"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		HTTPPort: "8080",
		GRPCPort: "50060",
		Storage: StorageConfig{
			Backend:                     BackendMemory,
			RedisAddr:                   "localhost:6379",
			MongoURI:                    "mongodb://localhost:27017",
			MongoDatabase:               "storefront",
			MongoMaxPoolSize:            50,
			MongoConnectTimeout:         "10s",
			MongoServerSelectionTimeout: "5s",
			BreakerFailures:             5,
			BreakerTimeout:              "30s",
		},
		Registry: RegistryConfig{
			MaxClients:    10000,
			IdleTTL:       "30m",
			SweepInterval: "1m",
		},
		Catalog: CatalogConfig{
			DBPath: "./catalog.db",
		},
		Kafka: KafkaConfig{
			Topic: "checkout-outbox",
		},
		Auth: AuthConfig{
			Latency: "1s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		RequestTimeout:  "30s",
		ShutdownTimeout: "5s",
	}
}

// Load reads path on top of the defaults and then applies environment
// overrides. An empty path or a missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.GRPCPort = getEnv("GRPC_PORT", c.GRPCPort)
	c.Storage.Backend = getEnv("STORAGE_BACKEND", c.Storage.Backend)
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.RedisPassword = getEnv("REDIS_PASSWORD", c.Storage.RedisPassword)
	c.Storage.MongoURI = getEnv("MONGO_URI", c.Storage.MongoURI)
	c.Storage.MongoDatabase = getEnv("MONGO_DATABASE", c.Storage.MongoDatabase)
	c.Catalog.DBPath = getEnv("CATALOG_DB_PATH", c.Catalog.DBPath)
	c.Kafka.Topic = getEnv("KAFKA_TOPIC", c.Kafka.Topic)
	c.Auth.Latency = getEnv("AUTH_LATENCY", c.Auth.Latency)
	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.RequestTimeout = getEnv("REQUEST_TIMEOUT", c.RequestTimeout)
	c.ShutdownTimeout = getEnv("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.Registry.IdleTTL = getEnv("REGISTRY_IDLE_TTL", c.Registry.IdleTTL)
	c.Registry.SweepInterval = getEnv("REGISTRY_SWEEP_INTERVAL", c.Registry.SweepInterval)
	if n, err := strconv.Atoi(os.Getenv("REGISTRY_MAX_CLIENTS")); err == nil {
		c.Registry.MaxClients = n
	}
	if n, err := strconv.ParseUint(os.Getenv("MONGO_MAX_POOL_SIZE"), 10, 64); err == nil {
		c.Storage.MongoMaxPoolSize = n
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		c.Kafka.Brokers = splitList(brokers)
	}
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	for name, value := range map[string]string{
		"auth.latency":            c.Auth.Latency,
		"request_timeout":         c.RequestTimeout,
		"shutdown_timeout":        c.ShutdownTimeout,
		"storage.breaker_timeout": c.Storage.BreakerTimeout,

		"storage.mongo_connect_timeout":          c.Storage.MongoConnectTimeout,
		"storage.mongo_server_selection_timeout": c.Storage.MongoServerSelectionTimeout,
		"registry.idle_ttl":                      c.Registry.IdleTTL,
		"registry.sweep_interval":                c.Registry.SweepInterval,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	if c.Registry.MaxClients < 0 {
		return fmt.Errorf("invalid registry.max_clients: %d", c.Registry.MaxClients)
	}
	if d, _ := time.ParseDuration(c.Registry.SweepInterval); d <= 0 {
		return fmt.Errorf("invalid registry.sweep_interval: must be positive")
	}
	return nil
}

func (c *Config) AuthLatency() time.Duration {
	return parseDuration(c.Auth.Latency, time.Second)
}

func (c *Config) RequestTimeoutDuration() time.Duration {
	return parseDuration(c.RequestTimeout, 30*time.Second)
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	return parseDuration(c.ShutdownTimeout, 5*time.Second)
}

func (c *Config) BreakerTimeoutDuration() time.Duration {
	return parseDuration(c.Storage.BreakerTimeout, 30*time.Second)
}

func (c *Config) MongoConnectTimeoutDuration() time.Duration {
	return parseDuration(c.Storage.MongoConnectTimeout, 10*time.Second)
}

func (c *Config) MongoServerSelectionTimeoutDuration() time.Duration {
	return parseDuration(c.Storage.MongoServerSelectionTimeout, 5*time.Second)
}

func (c *Config) RegistryIdleTTL() time.Duration {
	return parseDuration(c.Registry.IdleTTL, 30*time.Minute)
}

func (c *Config) RegistrySweepInterval() time.Duration {
	return parseDuration(c.Registry.SweepInterval, time.Minute)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
