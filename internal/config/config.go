// Package config loads the grant portal's runtime configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonathan/grant-portal/internal/grants"
)

// Defaults
const (
	DefaultPort       = 8080
	DefaultKafkaTopic = "grant.application.status"
	DefaultUploadDir  = "./uploads"
)

// Config is the server configuration. JWT and password settings are loaded
// separately by NewJWTConfig and NewPasswordConfig.
type Config struct {
	DatabaseURL string
	Port        int
	Deadline    time.Time
	UploadDir   string
	AutoMigrate bool
	LogLevel    string
	LogFormat   string
	Kafka       KafkaConfig
	S3          S3Config
}

// KafkaConfig selects the Kafka notifier. An empty broker list means status
// notifications are only logged.
type KafkaConfig struct {
	Brokers    []string
	Topic      string
	MaxRetries int
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// S3Config selects S3 storage for uploads. An empty bucket means uploads are
// written under UploadDir.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Enabled reports whether a bucket is configured.
func (s S3Config) Enabled() bool {
	return s.Bucket != ""
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding the real environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	port, err := envInt("PORT", DefaultPort)
	if err != nil {
		return nil, err
	}
	retries, err := envInt("KAFKA_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	autoMigrate, err := envBool("AUTO_MIGRATE", true)
	if err != nil {
		return nil, err
	}

	deadline := grants.DefaultDeadline
	if v := os.Getenv("GRANT_DEADLINE"); v != "" {
		deadline, err = time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid GRANT_DEADLINE: %w", err)
		}
		deadline = deadline.UTC()
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        port,
		Deadline:    deadline.UTC(),
		UploadDir:   envString("UPLOAD_DIR", DefaultUploadDir),
		AutoMigrate: autoMigrate,
		LogLevel:    envString("LOG_LEVEL", "info"),
		LogFormat:   envString("LOG_FORMAT", "json"),
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:      envString("KAFKA_TOPIC", DefaultKafkaTopic),
			MaxRetries: retries,
		},
		S3: S3Config{
			Bucket:    os.Getenv("S3_BUCKET"),
			Region:    os.Getenv("S3_REGION"),
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges. DATABASE_URL is checked by the commands that
// need it.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("config error: PORT out of range: %d", c.Port)
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("config error: KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.Kafka.MaxRetries < 0 {
		return fmt.Errorf("config error: KAFKA_MAX_RETRIES must be non-negative")
	}
	if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
		return fmt.Errorf("config error: S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
	}
	if !c.S3.Enabled() && c.UploadDir == "" {
		return fmt.Errorf("config error: UPLOAD_DIR is required when S3_BUCKET is not set")
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %v", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %v", key, err)
	}
	return b, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
