package config

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag describes one CLI flag and the config key it overrides. Commands
// refer to flags by registry key, so --backend reads the same on every
// command that has it.
type Flag struct {
	Name        string
	Shorthand   string // optional
	ViperKey    string // dotted config key, e.g. client.backend_url
	Description string
}

// FlagSet maps registry keys to flags. A command package builds its own.
type FlagSet map[string]Flag

// Registry keys.
const (
	FlagBackend       = "backend"
	FlagModel         = "model"
	FlagAPITarget     = "api-target"
	FlagSQLite        = "sqlite"
	FlagPostgres      = "postgres"
	FlagUpstream      = "upstream"
	FlagProxyListen   = "proxy-listen"
	FlagProxyWorkers  = "proxy-workers"
	FlagAPIListen     = "api-listen"
	FlagEventProvider = "eventstream"
	FlagKafkaBrokers  = "kafka-brokers"
	FlagKafkaTopic    = "kafka-topic"
	FlagUploadWorkers = "upload-workers"

	// `serve proxy` and `serve api` both call their flag --listen.
	FlagProxyListenStandalone = "proxy-listen-standalone"
	FlagAPIListenStandalone   = "api-listen-standalone"
)

// AddStringFlag registers fs[key] on cmd as a string flag whose default is
// the config default for its ViperKey. Unknown keys are ignored.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	if f, ok := fs[key]; ok {
		cmd.Flags().StringVarP(target, f.Name, f.Shorthand, defaults().GetString(f.ViperKey), f.Description)
	}
}

// AddUintFlag is AddStringFlag for uint values.
func AddUintFlag(cmd *cobra.Command, fs FlagSet, key string, target *uint) {
	if f, ok := fs[key]; ok {
		cmd.Flags().UintVarP(target, f.Name, f.Shorthand, defaults().GetUint(f.ViperKey), f.Description)
	}
}

// AddStringSliceFlag is AddStringFlag for comma-separated lists.
func AddStringSliceFlag(cmd *cobra.Command, fs FlagSet, key string, target *[]string) {
	if f, ok := fs[key]; ok {
		cmd.Flags().StringSliceVarP(target, f.Name, f.Shorthand, defaults().GetStringSlice(f.ViperKey), f.Description)
	}
}

// BindRegisteredFlags points each ViperKey of keys at its registered flag, so
// a flag the user set wins over env, file and defaults. Call it in PreRunE
// after InitViper. Keys without a registered flag are skipped.
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, keys []string) {
	for _, key := range keys {
		f, ok := fs[key]
		if !ok {
			continue
		}
		if pf := cmd.Flags().Lookup(f.Name); pf != nil {
			_ = v.BindPFlag(f.ViperKey, pf)
		}
	}
}

// defaults holds NewDefaultConfig as viper keys for flag defaults.
var defaults = sync.OnceValue(func() *viper.Viper {
	v := viper.New()
	if err := setViperDefaults(v); err != nil {
		panic(fmt.Sprintf("config: default config does not encode: %v", err))
	}
	return v
})
