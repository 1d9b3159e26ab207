package api

import (
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/aletheia/pkg/pipeline"
)

// Server is the API server for checking claims and browsing past verdicts.
type Server struct {
	config   Config
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
	app      *fiber.App
}

// NewServer creates a new API server over p.
func NewServer(config Config, p *pipeline.Pipeline, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	if config.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     config.CORSOrigins,
			AllowCredentials: true,
		}))
	}

	s := &Server{
		config:   config,
		pipeline: p,
		logger:   logger,
		app:      app,
	}

	app.Get("/", s.handleRoot)
	app.Get("/ping", s.handlePing)
	app.Post("/api/verify", s.handleVerify)
	app.Get("/api/search", s.handleSearch)
	app.Get("/api/history", s.handleListHistory)
	app.Get("/api/history/:id", s.handleGetHistory)

	if config.MCPHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(config.MCPHandler))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server", "listen", s.config.ListenAddr)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
