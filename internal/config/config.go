// Package config loads the arbor configuration file.
package config

import (
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/boundary"
	"github.com/aretw0/arbor/pkg/diff"
	"github.com/aretw0/arbor/pkg/scheduler"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration shared by every command.
type Config struct {
	Threshold        int                 `mapstructure:"threshold"`
	Flush            scheduler.FlushMode `mapstructure:"flush"`
	Compare          string              `mapstructure:"compare"`
	ParallelDispatch int                 `mapstructure:"parallel_dispatch"`
	LogLevel         string              `mapstructure:"log_level"`
	LogFormat        string              `mapstructure:"log_format"`
	Schema           string              `mapstructure:"schema"`
	HTTP             HTTP                `mapstructure:"http"`
	Redis            Redis               `mapstructure:"redis"`
	Store            Store               `mapstructure:"store"`
}

// Store configures where page snapshots are kept when Redis is not used.
// An empty Dir keeps them in memory.
type Store struct {
	Dir string `mapstructure:"dir"`
	// EncryptionKey is a base64 AES-256 key. When set, snapshots are encrypted at rest.
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys are older base64 keys still accepted for decryption.
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// Keys decodes the encryption keys. It returns a nil active key when
// encryption is off.
func (s Store) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("store.fallback_keys requires store.encryption_key")
		}
		return nil, nil, nil
	}
	if active, err = decodeKey(s.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// HTTP configures the page server.
type HTTP struct {
	Addr string `mapstructure:"addr"`
}

// Redis configures the Redis-backed adapters. An empty Addr keeps everything in memory.
type Redis struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Threshold:        boundary.DefaultThreshold,
		Flush:            scheduler.FlushSync,
		Compare:          "shallow",
		ParallelDispatch: 1,
		LogLevel:         "info",
		HTTP:             HTTP{Addr: ":8080"},
		Redis:            Redis{Prefix: "arbor:"},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML configuration document over the defaults.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the values a file or flags may have set.
func (c Config) Validate() error {
	if c.Threshold < 1 {
		return fmt.Errorf("threshold must be at least 1, got %d", c.Threshold)
	}
	if _, err := scheduler.ParseFlushMode(string(c.Flush)); err != nil {
		return err
	}
	if _, ok := diff.ComparatorByName(c.Compare); !ok {
		return fmt.Errorf("unknown comparator %q", c.Compare)
	}
	if c.ParallelDispatch < 1 {
		return fmt.Errorf("parallel_dispatch must be at least 1, got %d", c.ParallelDispatch)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return lvl, nil
}
