package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces environment overrides. A double underscore separates
// nesting levels: FRAUDSHIELD_QUEUE__GROUP_ID sets queue.group_id.
const EnvPrefix = "FRAUDSHIELD_"

type Config struct {
	Env     string        `koanf:"env"`
	Server  ServerConfig  `koanf:"server"`
	Log     LogConfig     `koanf:"log"`
	Scorer  ScorerConfig  `koanf:"scorer"`
	Cache   CacheConfig   `koanf:"cache"`
	Storage StorageConfig `koanf:"storage"`
	Queue   QueueConfig   `koanf:"queue"`
}

type ServerConfig struct {
	Port string `koanf:"port"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type ScorerConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

type CacheConfig struct {
	Driver    string        `koanf:"driver"`
	RedisAddr string        `koanf:"redis_addr"`
	TTL       time.Duration `koanf:"ttl"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
}

type QueueConfig struct {
	Brokers         []string `koanf:"brokers"`
	InboundTopic    string   `koanf:"inbound_topic"`
	ClassifiedTopic string   `koanf:"classified_topic"`
	GroupID         string   `koanf:"group_id"`
}

// Enabled reports whether Kafka ingestion and publishing are configured.
func (q QueueConfig) Enabled() bool {
	return len(q.Brokers) > 0
}

func Default() *Config {
	return &Config{
		Env:    "development",
		Server: ServerConfig{Port: ":8080"},
		Log:    LogConfig{Level: "info"},
		Scorer: ScorerConfig{
			URL:     "http://ml-service:8000",
			Timeout: 5 * time.Second,
		},
		Cache: CacheConfig{Driver: "memory"},
		Storage: StorageConfig{
			Driver: "sqlite",
			DSN:    "fraudshield.db",
		},
		Queue: QueueConfig{
			InboundTopic:    "messages.inbound",
			ClassifiedTopic: "messages.classified",
			GroupID:         "fraudshield",
		},
	}
}

// Load layers defaults, the YAML file at path (skipped if absent), a .env
// file and FRAUDSHIELD_ environment variables.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: storage.driver %q must be postgres or sqlite", c.Storage.Driver)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn is required")
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("config: cache.redis_addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("config: cache.driver %q must be memory or redis", c.Cache.Driver)
	}

	if c.Scorer.URL == "" {
		return fmt.Errorf("config: scorer.url is required")
	}
	if c.Scorer.Timeout <= 0 {
		return fmt.Errorf("config: scorer.timeout must be positive")
	}

	if c.Queue.Enabled() && (c.Queue.InboundTopic == "" || c.Queue.GroupID == "") {
		return fmt.Errorf("config: queue.inbound_topic and queue.group_id are required when brokers are set")
	}

	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
