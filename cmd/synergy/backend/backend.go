// Package backend resolves configuration, logging and the authenticated
// client shared by every command that talks to the reading assistant.
package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/synergyreader/synergy/pkg/client"
	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/credentials"
	"github.com/synergyreader/synergy/pkg/dotdir"
	"github.com/synergyreader/synergy/pkg/logger"
)

// ErrSignedOut is returned by RequireToken when no session is stored for
// the backend.
var ErrSignedOut = errors.New("not signed in")

// Flags are the client flags shared by backend commands.
var Flags = config.FlagSet{
	config.FlagBackend: {
		Name:        "backend",
		Shorthand:   "b",
		ViperKey:    "client.backend_url",
		Description: "Reading assistant URL (point it at 'synergy serve proxy' to record answers)",
	},
	config.FlagModel: {
		Name:        "model",
		Shorthand:   "m",
		ViperKey:    "client.model",
		Description: "Model the backend answers with",
	},
	config.FlagAPITarget: {
		Name:        "api-target",
		Shorthand:   "a",
		ViperKey:    "client.api_target",
		Description: "Local synergy API server URL",
	},
}

// Conn is the resolved configuration of one command invocation.
type Conn struct {
	ConfigDir string
	Viper     *viper.Viper
	Logger    *slog.Logger
}

// Resolve loads the configuration for cmd and binds the named flags from fs
// so that they take precedence over env and config file values.
func Resolve(cmd *cobra.Command, fs config.FlagSet, keys ...string) (*Conn, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, fs, keys)

	return &Conn{
		ConfigDir: configDir,
		Viper:     v,
		Logger:    logger.Console(cmd.ErrOrStderr(), debug),
	}, nil
}

// BackendURL is the resolved client.backend_url.
func (c *Conn) BackendURL() string {
	return c.Viper.GetString("client.backend_url")
}

// Token returns the stored session token for the backend, or "".
func (c *Conn) Token() (string, error) {
	mgr, err := credentials.NewManager(c.ConfigDir)
	if err != nil {
		return "", fmt.Errorf("loading credentials: %w", err)
	}
	return mgr.Token(c.BackendURL())
}

// RequireToken is Token but fails with ErrSignedOut when there is no session.
func (c *Conn) RequireToken() (string, error) {
	token, err := c.Token()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", fmt.Errorf("%w to %s: run 'synergy auth login'", ErrSignedOut, c.BackendURL())
	}
	return token, nil
}

// Client returns a client for the backend carrying the stored session token.
func (c *Conn) Client(opts ...client.Option) (*client.Client, error) {
	token, err := c.Token()
	if err != nil {
		return nil, err
	}

	base := []client.Option{
		client.WithToken(token),
		client.WithLogger(c.Logger),
	}
	return client.NewClient(c.BackendURL(), append(base, opts...)...), nil
}

// EntryID parses an entry id argument. "last" resolves to the entry of the
// most recent answer from "synergy ask".
func (c *Conn) EntryID(arg string) (int64, error) {
	if arg != "last" {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid entry id %q", arg)
		}
		return id, nil
	}

	last, err := dotdir.NewManager().LoadLastAsk(c.ConfigDir)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 0, errors.New(`no previous answer to refer to as "last"`)
	}
	return last.EntryID, nil
}
