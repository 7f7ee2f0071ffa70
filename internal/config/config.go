package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	// Data roots for the two partitioned prediction stores and the basin
	// boundary file.
	FlowDataDir    string
	CurrentDataDir string
	BasinsPath     string

	RefreshInterval time.Duration
	DefaultVersion  string
	MaxLocations    int

	// Ingest configuration. DatabaseURL empty disables the write path;
	// APIKey guards it when enabled.
	DatabaseURL string
	APIKey      string

	// Kafka mirroring of ingested records, enabled when brokers are set.
	KafkaBrokers []string
	KafkaTopic   string

	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	refreshInterval, err := parseDuration("REFRESH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	maxLocations, err := parseMaxLocations()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:  envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),

		FlowDataDir:    os.Getenv("FLOW_DATA_DIR"),
		CurrentDataDir: os.Getenv("CURRENT_DATA_DIR"),
		BasinsPath:     os.Getenv("BASINS_PATH"),

		RefreshInterval: refreshInterval,
		DefaultVersion:  envOrDefault("DEFAULT_VERSION", "vPUB2025"),
		MaxLocations:    maxLocations,

		DatabaseURL: os.Getenv("DATABASE_URL"),
		APIKey:      os.Getenv("API_KEY"),

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "streamflow-predictions"),

		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.FlowDataDir == "" {
		return nil, errors.New("FLOW_DATA_DIR is required")
	}
	if cfg.CurrentDataDir == "" {
		return nil, errors.New("CURRENT_DATA_DIR is required")
	}
	if cfg.BasinsPath == "" {
		return nil, errors.New("BASINS_PATH is required")
	}
	if cfg.DatabaseURL != "" && cfg.APIKey == "" {
		return nil, errors.New("DATABASE_URL is set but API_KEY is not")
	}

	return cfg, nil
}

// IngestEnabled reports whether the write path is configured.
func (c *Config) IngestEnabled() bool { return c.DatabaseURL != "" }

// KafkaEnabled reports whether ingested records are mirrored to Kafka.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, errors.New("invalid " + key)
	}
	return d, nil
}

func parseMaxLocations() (int, error) {
	s := os.Getenv("MAX_LOCATIONS")
	if s == "" {
		return 20, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid MAX_LOCATIONS")
	}
	return n, nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
