package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, StorageMemory, cfg.StorageMode)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Equal(t, []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}, cfg.RetryBackoff)
	assert.Equal(t, "ARS", cfg.Currency)
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_MODE", "MONGO")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("CURRENCY", "usd")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StorageMongo, cfg.StorageMode)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, SessionsRedis, cfg.SessionStore)
	assert.Equal(t, "USD", cfg.Currency)
}

func TestLoad_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"mongo without uri": {"STORAGE_MODE": "mongo"},
		"unknown storage":   {"STORAGE_MODE": "postgres"},
		"bad duration":      {"SESSION_TTL": "soon"},
		"bad backoff":       {"RETRY_BACKOFF": "1s,x"},
		"kafka needs mongo": {"KAFKA_BROKERS": "k1:9092"},
		"bad currency":      {"CURRENCY": "PESO"},
		"unknown sessions":  {"SESSION_STORE": "disk"},
		"mongo sessions":    {"SESSION_STORE": "mongo"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestFallback_IsValidMemoryMode(t *testing.T) {
	t.Setenv("STORAGE_MODE", "postgres")

	cfg := Fallback()

	assert.Equal(t, StorageMemory, cfg.StorageMode)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.KafkaEnabled())
	assert.NoError(t, cfg.validate())
}
