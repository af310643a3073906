package api

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/synergyreader/synergy/api/mcp"
	"github.com/synergyreader/synergy/pkg/storage"
)

// Server is the API server over the local entry store.
type Server struct {
	config Config
	driver storage.Driver
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The driver is injected to allow sharing with other components
// (e.g., the gateway when both run in one process).
func NewServer(config Config, driver storage.Driver, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		driver: driver,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Get("/v1/entries", s.handleListEntries)
	app.Get("/v1/entries/:id", s.handleGetEntry)
	app.Put("/v1/entries/:id/rating", s.handleRateEntry)
	app.Get("/v1/search", s.handleSearchEndpoint)
	app.Get("/v1/stats", s.handleStats)

	if !config.DisableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Driver: driver,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("could not create MCP server: %w", err)
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", !s.config.DisableMCP,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
