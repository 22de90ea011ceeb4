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

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "http://localhost:8000/api", cfg.BackendBaseURL)
	assert.Equal(t, 7*24*time.Hour, cfg.AuthSnapshotTTL)
	assert.Equal(t, 24*time.Hour, cfg.CartSnapshotTTL)
	assert.False(t, cfg.KafkaEnabled(), "kafka is off unless brokers are configured")
	assert.True(t, cfg.CookieSecure)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("BACKEND_BASE_URL", "https://api.example.com/api")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com,https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_RejectsBadPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsBadBackendURL(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "not-a-url")

	_, err := Load()
	assert.Error(t, err)
}
