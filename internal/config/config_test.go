package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/grant-portal/internal/grants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"DATABASE_URL", "PORT", "GRANT_DEADLINE", "UPLOAD_DIR", "AUTO_MIGRATE",
	"LOG_LEVEL", "LOG_FORMAT", "KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_MAX_RETRIES",
	"S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY",
}

// clearEnv blanks every key Load reads; t.Setenv restores them afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, grants.DefaultDeadline, cfg.Deadline)
	assert.Equal(t, DefaultUploadDir, cfg.UploadDir)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, DefaultKafkaTopic, cfg.Kafka.Topic)
	assert.Equal(t, 3, cfg.Kafka.MaxRetries)
	assert.False(t, cfg.S3.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/grants")
	t.Setenv("PORT", "9090")
	t.Setenv("GRANT_DEADLINE", "2026-01-31T17:00:00+05:00")
	t.Setenv("AUTO_MIGRATE", "false")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,,")
	t.Setenv("S3_BUCKET", "grant-uploads")
	t.Setenv("S3_ACCESS_KEY", "key")
	t.Setenv("S3_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/grants", cfg.DatabaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC).Equal(cfg.Deadline), cfg.Deadline.String())
	assert.Equal(t, time.UTC, cfg.Deadline.Location())
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.S3.Enabled())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "non-numeric port", env: map[string]string{"PORT": "http"}},
		{name: "port out of range", env: map[string]string{"PORT": "70000"}},
		{name: "bad deadline", env: map[string]string{"GRANT_DEADLINE": "next tuesday"}},
		{name: "bad auto migrate", env: map[string]string{"AUTO_MIGRATE": "sometimes"}},
		{name: "negative retries", env: map[string]string{"KAFKA_MAX_RETRIES": "-1"}},
		{name: "half s3 credentials", env: map[string]string{"S3_ACCESS_KEY": "key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "GRANT_PORTAL_DOTENV_CHECK"
	os.Unsetenv(key)
	t.Cleanup(func() { os.Unsetenv(key) })
	t.Setenv("PORT", "6060")

	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\nPORT=7070\n"), 0o600))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv(key))
	assert.Equal(t, "6060", os.Getenv("PORT"), "real environment wins over .env")

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))
}
