package servecmder

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/proxy"
)

const proxyLongDesc string = `Run the recording gateway on its own.

The gateway forwards every request to --upstream unchanged. Answers to
POST /ask are streamed back to the client as they arrive and recorded once
the stream ends, together with the backend entry id, sources and any
errors reported in the stream. Recorded entries are announced on the
configured event stream.`

func newProxyCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "proxy",
		Short: "Run the synergy recording gateway",
		Long:  proxyLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			keys := append([]string{
				config.FlagUpstream,
				config.FlagProxyListenStandalone,
				config.FlagProxyWorkers,
			}, append(storageKeys, eventKeys...)...)

			s, err := resolve(cmd, keys...)
			if err != nil {
				return err
			}
			defer s.close()

			return runProxy(cmd.Context(), s)
		},
	}

	config.AddStringFlag(cmd, serveFlags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, serveFlags, config.FlagProxyListenStandalone, &cmder.proxyListen)
	config.AddUintFlag(cmd, serveFlags, config.FlagProxyWorkers, &cmder.workers)
	config.AddStringFlag(cmd, serveFlags, config.FlagSQLite, &cmder.sqlitePath)
	config.AddStringFlag(cmd, serveFlags, config.FlagPostgres, &cmder.postgresDSN)
	config.AddStringFlag(cmd, serveFlags, config.FlagEventProvider, &cmder.provider)
	config.AddStringSliceFlag(cmd, serveFlags, config.FlagKafkaBrokers, &cmder.brokers)
	config.AddStringFlag(cmd, serveFlags, config.FlagKafkaTopic, &cmder.topic)

	return cmd
}

func runProxy(ctx context.Context, s *services) error {
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

	errChan := make(chan error, 1)
	go func() {
		if err := p.Run(); err != nil {
			errChan <- fmt.Errorf("gateway error: %w", err)
		}
	}()

	return wait(ctx, s, errChan)
}
