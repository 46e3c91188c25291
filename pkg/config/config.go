// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Indexer, Search, Cache, Redis, Kafka, etc.).
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Indexer IndexerConfig `yaml:"indexer"`
	Search  SearchConfig  `yaml:"search"`
	Cache   CacheConfig   `yaml:"cache"`
	Redis   RedisConfig   `yaml:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// IndexerConfig controls how item trees are scanned and indexed.
type IndexerConfig struct {
	// Root is the directory scanned at startup and on rebuild. Empty means
	// the service starts with no root and every search returns nothing.
	Root            string `yaml:"root"`
	Workers         int    `yaml:"workers"`
	MaxContentBytes int64  `yaml:"maxContentBytes"`
	IncludeHidden   bool   `yaml:"includeHidden"`
}

// SearchConfig controls query execution.
type SearchConfig struct {
	DefaultLimit  int  `yaml:"defaultLimit"`
	MaxResults    int  `yaml:"maxResults"`
	ContextWindow int  `yaml:"contextWindow"`
	FallbackScan  bool `yaml:"fallbackScan"`
	ResolveLines  bool `yaml:"resolveLines"`
	QuickLimit    int  `yaml:"quickLimit"`
}

// CacheConfig controls the query result cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled"`
	LocalSize int           `yaml:"localSize"`
	TTL       time.Duration `yaml:"ttl"`
	UseRedis  bool          `yaml:"useRedis"`

	// RemoteTimeout bounds each Redis call made while serving a query.
	RemoteTimeout time.Duration `yaml:"remoteTimeout"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// KafkaConfig holds the item change feed settings.
type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled"`
	Brokers       []string `yaml:"brokers"`
	ConsumerGroup string   `yaml:"consumerGroup"`
	ItemsTopic    string   `yaml:"itemsTopic"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with defaults suitable for local development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Indexer: IndexerConfig{
			Workers:         runtime.GOMAXPROCS(0),
			MaxContentBytes: 1 << 20,
		},
		Search: SearchConfig{
			DefaultLimit:  50,
			MaxResults:    500,
			ContextWindow: 100,
			FallbackScan:  true,
			QuickLimit:    20,
		},
		Cache: CacheConfig{
			Enabled:       true,
			LocalSize:     256,
			TTL:           60 * time.Second,
			RemoteTimeout: 100 * time.Millisecond,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "docsearch-indexer",
			ItemsTopic:    "docsearch-items",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Indexer.Workers < 1 {
		errs = append(errs, fmt.Errorf("indexer.workers must be at least 1, got %d", c.Indexer.Workers))
	}
	if c.Indexer.MaxContentBytes < 0 {
		errs = append(errs, fmt.Errorf("indexer.maxContentBytes must not be negative"))
	}
	if c.Search.ContextWindow < 0 {
		errs = append(errs, fmt.Errorf("search.contextWindow must not be negative"))
	}
	if c.Search.DefaultLimit < 0 || c.Search.MaxResults < 0 {
		errs = append(errs, fmt.Errorf("search limits must not be negative"))
	}
	if c.Search.MaxResults > 0 && c.Search.DefaultLimit > c.Search.MaxResults {
		errs = append(errs, fmt.Errorf("search.defaultLimit (%d) exceeds search.maxResults (%d)",
			c.Search.DefaultLimit, c.Search.MaxResults))
	}
	if c.Cache.Enabled && c.Cache.LocalSize < 1 {
		errs = append(errs, fmt.Errorf("cache.localSize must be at least 1 when the cache is enabled"))
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.ItemsTopic == "") {
		errs = append(errs, fmt.Errorf("kafka.brokers and kafka.itemsTopic are required when kafka is enabled"))
	}
	return errors.Join(errs...)
}

// applyEnvOverrides reads DS_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DS_INDEXER_ROOT"); v != "" {
		cfg.Indexer.Root = v
	}
	if v := os.Getenv("DS_INDEXER_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.Workers = n
		}
	}
	if v := os.Getenv("DS_SEARCH_FALLBACK_SCAN"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.FallbackScan = b
		}
	}
	if v := os.Getenv("DS_SEARCH_RESOLVE_LINES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Search.ResolveLines = b
		}
	}
	if v := os.Getenv("DS_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Enabled = b
		}
	}
	if v := os.Getenv("DS_CACHE_USE_REDIS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.UseRedis = b
		}
	}
	if v := os.Getenv("DS_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("DS_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("DS_KAFKA_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Kafka.Enabled = b
		}
	}
	if v := os.Getenv("DS_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("DS_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DS_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DS_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
