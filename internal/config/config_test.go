package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FLOW_DATA_DIR", "/data/flow")
	t.Setenv("CURRENT_DATA_DIR", "/data/current")
	t.Setenv("BASINS_PATH", "/data/basins.geojson")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/data/flow", cfg.FlowDataDir)
	assert.Equal(t, "/data/current", cfg.CurrentDataDir)
	assert.Equal(t, "/data/basins.geojson", cfg.BasinsPath)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "vPUB2025", cfg.DefaultVersion)
	assert.Equal(t, 20, cfg.MaxLocations)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.IngestEnabled())
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("REFRESH_INTERVAL", "1m")
	t.Setenv("DEFAULT_VERSION", "vPUB2026")
	t.Setenv("MAX_LOCATIONS", "50")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("DATABASE_URL", "postgres://localhost/streamflow")
	t.Setenv("API_KEY", "secret")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "vPUB2026", cfg.DefaultVersion)
	assert.Equal(t, 50, cfg.MaxLocations)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.True(t, cfg.IngestEnabled())
	assert.True(t, cfg.KafkaEnabled())
}

func TestLoad_MissingDataRoots(t *testing.T) {
	tests := []struct {
		name string
		omit string
	}{
		{"flow data dir", "FLOW_DATA_DIR"},
		{"current data dir", "CURRENT_DATA_DIR"},
		{"basins path", "BASINS_PATH"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tc.omit, "")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.omit)
		})
	}
}

func TestLoad_InvalidRefreshInterval(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REFRESH_INTERVAL", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_INTERVAL")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidMaxLocations(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MAX_LOCATIONS", "0")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_LOCATIONS")
}

func TestLoad_DatabaseWithoutAPIKey(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/streamflow")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_KEY")
}
