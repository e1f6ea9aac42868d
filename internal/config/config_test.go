package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{"SERVER_PORT", "LOG_LEVEL", "BACKEND_URL", "BACKEND_TIMEOUT", "CURRENCY", "MONEY_PLACES",
	"DELIVERY_CONFIG", "METRO_CONFIG", "REDIS_ADDR", "CATALOG_TTL", "KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_GROUP",
	"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "SESSION_CAPACITY"}

// clearEnv t.Setenv запоминает и восстанавливает значение, потом переменная снимается
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.BackendTimeout)
	assert.Equal(t, "BYN", cfg.Currency)
	assert.Equal(t, int32(2), cfg.MoneyPlaces)
	assert.Equal(t, 5*time.Minute, cfg.CatalogTTL)
	assert.Equal(t, "checkout-events", cfg.KafkaTopic)
	assert.Equal(t, 1000, cfg.SessionCapacity)
	assert.False(t, cfg.JournalEnabled())
	assert.False(t, cfg.DB.Enabled())
}

func TestFromEnv_Values(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("BACKEND_URL", "https://shop.example.com/api")
	t.Setenv("BACKEND_TIMEOUT", "3s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "journal")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3*time.Second, cfg.BackendTimeout)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.JournalEnabled())
	assert.Equal(t, "postgres://app:secret@db:5432/journal?sslmode=disable", cfg.DB.DSN())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":      "eighty",
		"BACKEND_URL":      "not a url",
		"BACKEND_TIMEOUT":  "soon",
		"MONEY_PLACES":     "9",
		"SESSION_CAPACITY": "0",
		"KAFKA_BROKERS":    "kafka",
		"DB_SSLMODE":       "maybe",
		"LOG_LEVEL":        "loud",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SERVER_PORT=7070\nCURRENCY=RUB\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("SERVER_PORT")
		_ = os.Unsetenv("CURRENCY")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.ServerPort)
	assert.Equal(t, "RUB", cfg.Currency)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
