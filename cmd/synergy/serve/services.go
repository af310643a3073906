package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/synergyreader/synergy/pkg/config"
	"github.com/synergyreader/synergy/pkg/eventstream"
	"github.com/synergyreader/synergy/pkg/eventstream/kafka"
	"github.com/synergyreader/synergy/pkg/eventstream/nop"
	"github.com/synergyreader/synergy/pkg/logger"
	"github.com/synergyreader/synergy/pkg/storage"
	"github.com/synergyreader/synergy/pkg/storage/inmemory"
	"github.com/synergyreader/synergy/pkg/storage/postgres"
	"github.com/synergyreader/synergy/pkg/storage/sqlite"
)

// services holds what one serve invocation resolved from flags and config.
type services struct {
	v       *viper.Viper
	logger  *slog.Logger
	logFile *os.File
}

// resolve loads config, binds keys from serveFlags and builds the logger.
// With --log-file the terminal gets pretty output and the file gets JSON.
func resolve(cmd *cobra.Command, keys ...string) (*services, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")
	debug, _ := cmd.Flags().GetBool("debug")
	logPath, _ := cmd.Flags().GetString("log-file")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, serveFlags, keys)

	s := &services{v: v}

	console := logger.Console(cmd.ErrOrStderr(), debug)
	if logPath == "" {
		s.logger = console
		return s, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	s.logFile = f
	s.logger = logger.Multi(console, logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithWriter(f),
	))

	return s, nil
}

func (s *services) component(name string) *slog.Logger {
	return s.logger.With("component", name)
}

func (s *services) close() {
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}

// openDriver picks PostgreSQL when a DSN is set, else SQLite when a path is
// set, else an in-memory store.
func (s *services) openDriver(ctx context.Context) (storage.Driver, error) {
	if dsn := s.v.GetString("storage.postgres_dsn"); dsn != "" {
		driver, err := postgres.NewDriver(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("opening postgres storage: %w", err)
		}
		s.logger.Info("using postgres storage")
		return driver, nil
	}

	if path := s.v.GetString("storage.sqlite_path"); path != "" {
		driver, err := sqlite.NewDriver(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite storage: %w", err)
		}
		s.logger.Info("using sqlite storage", "path", path)
		return driver, nil
	}

	s.logger.Info("using in-memory storage")
	return inmemory.NewDriver(), nil
}

func (s *services) openPublisher() (eventstream.Publisher, error) {
	switch provider := s.v.GetString("eventstream.provider"); provider {
	case "", config.EventStreamNop:
		return nop.NewPublisher(), nil

	case config.EventStreamKafka:
		brokers := s.brokers()
		topic := s.v.GetString("eventstream.topic")
		pub, err := kafka.NewPublisher(kafka.Config{Brokers: brokers, Topic: topic})
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		s.logger.Info("publishing entries to kafka", "brokers", brokers, "topic", topic)
		return pub, nil

	default:
		return nil, fmt.Errorf("unknown event stream provider %q (expected %s or %s)",
			provider, config.EventStreamNop, config.EventStreamKafka)
	}
}

// brokers accepts both a list and comma-separated strings, which is how
// SYNERGY_EVENTSTREAM_BROKERS arrives.
func (s *services) brokers() []string {
	var out []string
	for _, item := range s.v.GetStringSlice("eventstream.brokers") {
		for _, b := range strings.Split(item, ",") {
			if b = strings.TrimSpace(b); b != "" {
				out = append(out, b)
			}
		}
	}
	return out
}
