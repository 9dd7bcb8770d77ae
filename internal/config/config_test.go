package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("PUBLIC_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gorm", cfg.StoreDriver)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "http://localhost:3005", cfg.PublicBaseURL)
	assert.Empty(t, cfg.Events.Brokers)
}

func TestLoadBrokersAndDrivers(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("KAFKA_BROKERS", "kafka:9092, kafka2:9092,")
	t.Setenv("PUBLIC_BASE_URL", "https://api.example.org/")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, []string{"kafka:9092", "kafka2:9092"}, cfg.Events.Brokers)
	assert.Equal(t, "https://api.example.org", cfg.PublicBaseURL)
}

func TestLoadRejectsBadDrivers(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "redis")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("STORAGE_DRIVER", "s3")
	t.Setenv("S3_BUCKET", "")
	_, err = Load()
	require.Error(t, err)
}
