package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/synergyreader/synergy/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// CurrentV is the config file version this build reads and writes.
	CurrentV = 1
)

// Configer reads and writes config.toml in a resolved .synergy/ directory.
type Configer struct {
	path string
}

// NewConfiger resolves the config file location. override wins over the
// local and home .synergy/ directories.
func NewConfiger(override string) (*Configer, error) {
	path, err := dotdir.NewManager().Path(override, configFile)
	if err != nil {
		return nil, err
	}
	return &Configer{path: path}, nil
}

// GetTarget returns the config file path.
func (c *Configer) GetTarget() string {
	return c.path
}

// LoadConfig returns the file's settings layered over NewDefaultConfig. A
// missing file yields the defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	cfg := NewDefaultConfig()

	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := decode(data, cfg); err != nil {
		return nil, err
	}

	defaults := NewDefaultConfig()
	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}
	// Zero workers would stall the pools.
	if cfg.Proxy.Workers == 0 {
		cfg.Proxy.Workers = defaults.Proxy.Workers
	}
	if cfg.Upload.Workers == 0 {
		cfg.Upload.Workers = defaults.Upload.Workers
	}

	return cfg, nil
}

// SaveConfig writes cfg to config.toml, readable by the owner only.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// SetConfigValue parses value for the dotted key and saves the result.
func (c *Configer) SetConfigValue(key, value string) error {
	k, err := lookupKey(key)
	if err != nil {
		return err
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}
	if err := k.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue returns the effective value of the dotted key, defaults
// included.
func (c *Configer) GetConfigValue(key string) (string, error) {
	k, err := lookupKey(key)
	if err != nil {
		return "", err
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return k.get(cfg), nil
}

// ParseConfigTOML parses a config document on its own, without defaults.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := decode(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, into *Config) error {
	into.Version = 0
	if err := toml.Unmarshal(data, into); err != nil {
		return fmt.Errorf("parsing config TOML: %w", err)
	}

	switch into.Version {
	case 0, CurrentV:
		return nil
	default:
		return fmt.Errorf("unsupported config version %d (expected %d)", into.Version, CurrentV)
	}
}
