package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/synergyreader/synergy/pkg/dotdir"
)

const envPrefix = "SYNERGY"

// InitViper returns a viper instance layered, lowest first, as defaults,
// config.toml, SYNERGY_* environment variables, then any flags bound later
// with BindRegisteredFlags. SYNERGY_PROXY_LISTEN maps to proxy.listen.
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	if err := setViperDefaults(v); err != nil {
		return nil, err
	}

	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(dir)
	v.SetConfigName(strings.TrimSuffix(configFile, ".toml"))
	v.SetConfigType("toml")

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// setViperDefaults registers NewDefaultConfig under dotted keys by passing
// it through its own TOML encoding, so the file layout and the viper keys
// cannot drift apart.
func setViperDefaults(v *viper.Viper) error {
	data, err := toml.Marshal(NewDefaultConfig())
	if err != nil {
		return fmt.Errorf("encoding defaults: %w", err)
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("decoding defaults: %w", err)
	}

	for name, value := range tree {
		section, ok := value.(map[string]any)
		if !ok {
			v.SetDefault(name, value)
			continue
		}
		for key, val := range section {
			v.SetDefault(name+"."+key, val)
		}
	}
	return nil
}
