// Package api exposes the extraction workflow over HTTP. Uploaded
// statements are processed fully in-memory: the API never writes CSV or
// validation artifacts to the output directory.
package api

import (
	"fmt"
	"time"

	"statement-extraction-service/internal/process"
	"statement-extraction-service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Config holds the HTTP server settings
type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`

	// MaxUploadSize caps the statement upload body, in bytes.
	MaxUploadSize int `json:"max_upload_size"`

	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// DefaultConfig returns the default server settings
func DefaultConfig() *Config {
	return &Config{
		Host:          "0.0.0.0",
		Port:          8080,
		MaxUploadSize: 32 << 20,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  2 * time.Minute,
	}
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}
	return nil
}

// Server wires the fiber application to the extraction processor
type Server struct {
	config    *Config
	app       *fiber.App
	processor *process.Processor
	logger    logger.Logger
}

// NewServer creates the HTTP server and registers its routes
func NewServer(config *Config, processor *process.Processor) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}

	app := fiber.New(fiber.Config{
		AppName:      "statement-extraction-service",
		BodyLimit:    config.MaxUploadSize,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	s := &Server{
		config:    config,
		app:       app,
		processor: processor,
		logger:    logger.GetGlobalLogger().WithComponent("api"),
	}
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up middleware and the versioned API surface
func (s *Server) registerRoutes() {
	s.app.Use(s.requestID)
	s.app.Use(s.requestLog)

	v1 := s.app.Group("/api/v1")
	v1.Get("/health", s.handleHealth)
	v1.Post("/extract", s.handleExtract)
}

// requestID tags every request with a UUID for log correlation
func (s *Server) requestID(c *fiber.Ctx) error {
	id := c.Get("X-Request-ID")
	if id == "" {
		id = uuid.New().String()
	}
	c.Locals("request_id", id)
	c.Set("X-Request-ID", id)
	return c.Next()
}

// requestLog logs one line per completed request
func (s *Server) requestLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	s.logger.WithFields(logger.Fields{
		"request_id": c.Locals("request_id"),
		"method":     c.Method(),
		"path":       c.Path(),
		"status":     c.Response().StatusCode(),
		"duration":   time.Since(start).String(),
	}).Info("Request handled")

	return err
}

// App exposes the fiber application, primarily for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts serving on the configured address and blocks
func (s *Server) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.WithField("addr", addr).Info("Starting HTTP server")
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown() error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.Shutdown()
}
