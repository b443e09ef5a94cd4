package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "checkout-outbox", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, time.Second, cfg.AuthLatency())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http_port: "9090"
storage:
  backend: redis
  redis_addr: cache:6379
kafka:
  brokers: [kafka-1:9092, kafka-2:9092]
auth:
  latency: 250ms
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, "cache:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, "storefront", cfg.Storage.MongoDatabase)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 250*time.Millisecond, cfg.AuthLatency())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: redis\n")
	t.Setenv("STORAGE_BACKEND", "mongo")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("AUTH_LATENCY", "0s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMongo, cfg.Storage.Backend)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, time.Duration(0), cfg.AuthLatency())
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]string{
		"unknown backend":  "storage:\n  backend: etcd\n",
		"bad duration":     "auth:\n  latency: soon\n",
		"malformed yaml":   "http_port: [\n",
		"bad breaker time": "storage:\n  breaker_timeout: x\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_RegistryAndMongoSettings(t *testing.T) {
	path := writeConfig(t, `
storage:
  mongo_max_pool_size: 8
  mongo_connect_timeout: 2s
registry:
  max_clients: 500
  idle_ttl: 10m
`)
	t.Setenv("REGISTRY_MAX_CLIENTS", "250")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(8), cfg.Storage.MongoMaxPoolSize)
	assert.Equal(t, 2*time.Second, cfg.MongoConnectTimeoutDuration())
	assert.Equal(t, 5*time.Second, cfg.MongoServerSelectionTimeoutDuration())
	assert.Equal(t, 250, cfg.Registry.MaxClients)
	assert.Equal(t, 10*time.Minute, cfg.RegistryIdleTTL())
	assert.Equal(t, time.Minute, cfg.RegistrySweepInterval())
}

func TestLoad_RejectsBadRegistrySettings(t *testing.T) {
	for name, body := range map[string]string{
		"negative cap":   "registry:\n  max_clients: -1\n",
		"zero sweep":     "registry:\n  sweep_interval: 0s\n",
		"bad idle ttl":   "registry:\n  idle_ttl: forever\n",
		"bad mongo time": "storage:\n  mongo_connect_timeout: x\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
