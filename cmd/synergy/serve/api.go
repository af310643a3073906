package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/api"
	"github.com/synergyreader/synergy/pkg/config"
)

const apiLongDesc string = `Run the API server on its own.

The API server reads the store written by the gateway: list, get and search
recorded entries over HTTP, and the same search as an MCP tool at /mcp.
Point it at the same --sqlite or --postgres store as "synergy serve proxy".`

func newAPICmd() *cobra.Command {
	var listen, sqlitePath, postgresDSN string

	cmd := &cobra.Command{
		Use:   "api",
		Short: "Run the synergy API server",
		Long:  apiLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys := append([]string{config.FlagAPIListenStandalone}, storageKeys...)
			s, err := resolve(cmd, keys...)
			if err != nil {
				return err
			}
			defer s.close()

			return runAPI(cmd.Context(), s)
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListenStandalone, &listen)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgres, &postgresDSN)

	return cmd
}

func runAPI(ctx context.Context, s *services) error {
	if ctx == nil {
		ctx = context.Background()
	}

	driver, err := s.openDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	server, err := api.NewServer(apiConfig(s, "api.listen"), driver, s.component("api"))
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	defer func() { _ = server.Shutdown() }()

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	return wait(ctx, s, errChan)
}
