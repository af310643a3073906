package servecmder

import (
	"github.com/synergyreader/synergy/pkg/config"
)

// serveFlags are shared by "serve", "serve api" and "serve proxy". The
// standalone subcommands use --listen for their single address.
var serveFlags = config.FlagSet{
	config.FlagUpstream: {
		Name:        "upstream",
		Shorthand:   "u",
		ViperKey:    "proxy.upstream",
		Description: "Reading assistant backend to forward to",
	},
	config.FlagProxyListen: {
		Name:        "proxy-listen",
		Shorthand:   "p",
		ViperKey:    "proxy.listen",
		Description: "Address for the gateway to listen on",
	},
	config.FlagProxyListenStandalone: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "proxy.listen",
		Description: "Address for the gateway to listen on",
	},
	config.FlagProxyWorkers: {
		Name:        "workers",
		Shorthand:   "w",
		ViperKey:    "proxy.workers",
		Description: "Number of recording workers",
	},
	config.FlagAPIListen: {
		Name:        "api-listen",
		Shorthand:   "a",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagAPIListenStandalone: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "api.listen",
		Description: "Address for the API server to listen on",
	},
	config.FlagSQLite: {
		Name:        "sqlite",
		Shorthand:   "s",
		ViperKey:    "storage.sqlite_path",
		Description: "Path to SQLite database (default: in-memory)",
	},
	config.FlagPostgres: {
		Name:        "postgres",
		ViperKey:    "storage.postgres_dsn",
		Description: "PostgreSQL connection string (takes precedence over --sqlite)",
	},
	config.FlagEventProvider: {
		Name:        "eventstream",
		ViperKey:    "eventstream.provider",
		Description: "Where recorded entries are announced (nop, kafka)",
	},
	config.FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "eventstream.brokers",
		Description: "Kafka bootstrap brokers",
	},
	config.FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "eventstream.topic",
		Description: "Kafka topic for entry events",
	},
}

var storageKeys = []string{config.FlagSQLite, config.FlagPostgres}

var eventKeys = []string{config.FlagEventProvider, config.FlagKafkaBrokers, config.FlagKafkaTopic}
