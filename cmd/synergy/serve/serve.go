// Package servecmder provides the serve command with subcommands for
// running the recording gateway and the local API server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/api"
	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/eventstream"
	"github.com/synergyreader/synergy/proxy"
)

const serveLongDesc string = `Run synergy services.

The gateway sits between clients and the reading assistant backend. It
forwards every request and records each answered question, with its entry
id, sources and errors, to the configured store. The API server exposes
the recorded entries for browsing and search, and over MCP.

Use subcommands to run individual services or all services together:
  synergy serve          Run both the gateway and the API server
  synergy serve api      Run just the API server
  synergy serve proxy    Run just the gateway`

const serveShortDesc string = "Run synergy services"

type serveCommander struct {
	upstream    string
	proxyListen string
	apiListen   string
	workers     uint
	sqlitePath  string
	postgresDSN string
	provider    string
	brokers     []string
	topic       string
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys := append([]string{
				config.FlagUpstream,
				config.FlagProxyListen,
				config.FlagProxyWorkers,
				config.FlagAPIListen,
			}, append(storageKeys, eventKeys...)...)

			s, err := resolve(cmd, keys...)
			if err != nil {
				return err
			}
			defer s.close()

			return runAll(cmd.Context(), s)
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, serveFlags, config.FlagProxyListen, &cmder.proxyListen)
	config.AddStringFlag(cmd, serveFlags, config.FlagAPIListen, &cmder.apiListen)
	config.AddUintFlag(cmd, serveFlags, config.FlagProxyWorkers, &cmder.workers)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventProvider, &cmder.provider)
	config.AddStringSliceFlag(cmd, serveFlags, config.FlagKafkaBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, serveFlags, config.FlagKafkaTopic, &cmder.topic)
	cmd.PersistentFlags().String("log-file", "", "Also write JSON logs to this file")

	cmd.AddCommand(newAPICmd())
	cmd.AddCommand(newProxyCmd())

	return cmd
}

func runAll(ctx context.Context, s *services) error {
	if ctx == nil {
		ctx = context.Background()
	}

	driver, err := s.openDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	pub, err := s.openPublisher()
	if err != nil {
		return err
	}
	defer pub.Close()

	p, err := proxy.New(proxyConfig(s, pub, "proxy.listen"), driver, s.component("gateway"))
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}
	defer p.Close()

	apiServer, err := api.NewServer(apiConfig(s, "api.listen"), driver, s.component("api"))
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	defer func() { _ = apiServer.Shutdown() }()

	errChan := make(chan error, 2)

	go func() {
		if err := p.Run(); err != nil {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()

	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	return wait(ctx, s, errChan)
}

// wait blocks until a service fails, ctx ends or SIGINT/SIGTERM arrives.
func wait(ctx context.Context, s *services, errChan <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		s.logger.Info("received signal, shutting down", "signal", sig.String())
		return nil
	case <-ctx.Done():
		s.logger.Info("context done, shutting down")
		return nil
	}
}

func proxyConfig(s *services, pub eventstream.Publisher, listenKey string) proxy.Config {
	return proxy.Config{
		ListenAddr:  s.v.GetString(listenKey),
		UpstreamURL: s.v.GetString("proxy.upstream"),
		Publisher:   pub,
		NumWorkers:  s.v.GetUint("proxy.workers"),
	}
}

func apiConfig(s *services, listenKey string) api.Config {
	return api.Config{
		ListenAddr: s.v.GetString(listenKey),
		DisableMCP: s.v.GetBool("api.disable_mcp"),
	}
}
