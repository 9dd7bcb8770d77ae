package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xelth-com/sisifo/internal/config"
)

func TestIsEmbedded(t *testing.T) {
	assert.True(t, IsEmbedded(config.DatabaseConfig{Host: "localhost"}))
	assert.False(t, IsEmbedded(config.DatabaseConfig{Host: "localhost", Password: "x"}))
	assert.False(t, IsEmbedded(config.DatabaseConfig{Host: "db.internal"}))
}

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host: "db", Port: "5432", Username: "sisifo", Password: "pw", Database: "partes",
	})
	assert.Equal(t, "host=db port=5432 user=sisifo password=pw dbname=partes sslmode=disable", dsn)
}

func TestCleanupStaleEmbedded_RemovesDeadPidFile(t *testing.T) {
	dir := t.TempDir()
	pidFile := filepath.Join(dir, "postmaster.pid")
	// PID far above pid_max on Linux, never running
	require.NoError(t, os.WriteFile(pidFile, []byte("99999999\n/data\n"), 0o600))

	cleanupStaleEmbedded(dir)

	_, err := os.Stat(pidFile)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanupStaleEmbedded_NoPidFile(t *testing.T) {
	cleanupStaleEmbedded(t.TempDir())
}
