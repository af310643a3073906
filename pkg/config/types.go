package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config represents the persistent synergy configuration stored as
// config.toml in the .synergy/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Client      ClientConfig      `toml:"client"`
	Storage     StorageConfig     `toml:"storage"`
	Proxy       ProxyConfig       `toml:"proxy"`
	API         APIConfig         `toml:"api"`
	EventStream EventStreamConfig `toml:"eventstream"`
	Upload      UploadConfig      `toml:"upload"`
}

// ClientConfig holds settings for CLI commands that talk to the backend or
// to a running local API. Targets are full URLs (scheme + host + port).
type ClientConfig struct {
	// BackendURL is where questions are sent. Point it at a running gateway
	// to have every answer recorded.
	BackendURL string `toml:"backend_url,omitempty"`
	Model      string `toml:"model,omitempty"`
	APITarget  string `toml:"api_target,omitempty"`
}

// StorageConfig holds shared storage settings used by both gateway and API.
// PostgresDSN takes precedence over SQLitePath; with neither set entries are
// kept in memory.
type StorageConfig struct {
	SQLitePath  string `toml:"sqlite_path,omitempty"`
	PostgresDSN string `toml:"postgres_dsn,omitempty"`
}

// ProxyConfig holds recording gateway settings.
type ProxyConfig struct {
	Upstream string `toml:"upstream,omitempty"`
	Listen   string `toml:"listen,omitempty"`
	Workers  uint   `toml:"workers,omitempty"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen     string `toml:"listen,omitempty"`
	DisableMCP bool   `toml:"disable_mcp,omitempty"`
}

// EventStreamConfig selects where recorded-entry events are published.
type EventStreamConfig struct {
	Provider string   `toml:"provider,omitempty"`
	Brokers  []string `toml:"brokers,omitempty"`
	Topic    string   `toml:"topic,omitempty"`
}

// UploadConfig holds document upload settings.
type UploadConfig struct {
	Workers uint `toml:"workers,omitempty"`
}

// configKey is one user-facing dotted key with its accessors on *Config.
type configKey struct {
	name string
	get  func(c *Config) string
	set  func(c *Config, v string) error
}

func stringKey(name string, field func(c *Config) *string) configKey {
	return configKey{
		name: name,
		get:  func(c *Config) string { return *field(c) },
		set:  func(c *Config, v string) error { *field(c) = v; return nil },
	}
}

func uintKey(name string, field func(c *Config) *uint) configKey {
	return configKey{
		name: name,
		get: func(c *Config) string {
			if *field(c) == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(*field(c)), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = uint(n)
			return nil
		},
	}
}

func boolKey(name string, field func(c *Config) *bool) configKey {
	return configKey{
		name: name,
		get:  func(c *Config) string { return strconv.FormatBool(*field(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", name, err)
			}
			*field(c) = b
			return nil
		},
	}
}

// configKeys lists every supported key in TOML section order.
var configKeys = []configKey{
	stringKey("client.backend_url", func(c *Config) *string { return &c.Client.BackendURL }),
	stringKey("client.model", func(c *Config) *string { return &c.Client.Model }),
	stringKey("client.api_target", func(c *Config) *string { return &c.Client.APITarget }),
	stringKey("storage.sqlite_path", func(c *Config) *string { return &c.Storage.SQLitePath }),
	stringKey("storage.postgres_dsn", func(c *Config) *string { return &c.Storage.PostgresDSN }),
	stringKey("proxy.upstream", func(c *Config) *string { return &c.Proxy.Upstream }),
	stringKey("proxy.listen", func(c *Config) *string { return &c.Proxy.Listen }),
	uintKey("proxy.workers", func(c *Config) *uint { return &c.Proxy.Workers }),
	stringKey("api.listen", func(c *Config) *string { return &c.API.Listen }),
	boolKey("api.disable_mcp", func(c *Config) *bool { return &c.API.DisableMCP }),
	{
		name: "eventstream.provider",
		get:  func(c *Config) string { return c.EventStream.Provider },
		set: func(c *Config, v string) error {
			switch v {
			case EventStreamNop, EventStreamKafka:
				c.EventStream.Provider = v
				return nil
			}
			return fmt.Errorf("invalid value for eventstream.provider: %q (expected %s or %s)", v, EventStreamNop, EventStreamKafka)
		},
	},
	{
		name: "eventstream.brokers",
		get:  func(c *Config) string { return strings.Join(c.EventStream.Brokers, ",") },
		set: func(c *Config, v string) error {
			c.EventStream.Brokers = nil
			for _, b := range strings.Split(v, ",") {
				if b = strings.TrimSpace(b); b != "" {
					c.EventStream.Brokers = append(c.EventStream.Brokers, b)
				}
			}
			return nil
		},
	},
	stringKey("eventstream.topic", func(c *Config) *string { return &c.EventStream.Topic }),
	uintKey("upload.workers", func(c *Config) *uint { return &c.Upload.Workers }),
}

func lookupKey(name string) (configKey, error) {
	for _, k := range configKeys {
		if k.name == name {
			return k, nil
		}
	}
	return configKey{}, fmt.Errorf("unknown config key: %q", name)
}

// ValidConfigKeys returns every supported key in TOML section order.
func ValidConfigKeys() []string {
	names := make([]string, len(configKeys))
	for i, k := range configKeys {
		names[i] = k.name
	}
	return names
}

// IsValidConfigKey reports whether key is a supported dotted key.
func IsValidConfigKey(key string) bool {
	_, err := lookupKey(key)
	return err == nil
}
