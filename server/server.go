// Package server exposes the video catalog over HTTP.
package server

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/rs/zerolog"

	"github.com/robertmeta/vidcat/viewer"
)

// MaxPageSize caps the size query parameter.
const MaxPageSize = 100

// Config holds server settings.
type Config struct {
	// CORSOrigins is a comma-separated origin list, or "*".
	CORSOrigins string
	// PageSize is the default number of videos per page.
	PageSize int
}

// Server serves one Viewer.
type Server struct {
	app     *fiber.App
	viewer  *viewer.Viewer
	cfg     Config
	logger  zerolog.Logger
	metrics *metrics
}

// New builds the Fiber app and registers all routes.
func New(v *viewer.Viewer, cfg Config, logger zerolog.Logger) *Server {
	if cfg.PageSize <= 0 || cfg.PageSize > MaxPageSize {
		cfg.PageSize = 0
	}

	s := &Server{
		viewer:  v,
		cfg:     cfg,
		logger:  logger,
		metrics: newMetrics(v.Len),
	}

	s.app = fiber.New(fiber.Config{
		AppName:      "vidcat",
		ServerHeader: "vidcat",
		ErrorHandler: s.handleError,
	})

	s.app.Use(recoverer.New())
	s.app.Use(newRequestLogger(logger))
	s.app.Use(s.metrics.middleware())
	s.app.Use(newCORS(cfg.CORSOrigins))

	s.app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	s.app.Get("/metrics", s.metrics.handler())

	api := s.app.Group("/api")
	api.Get("/videos", s.listVideos)
	api.Post("/videos/more", s.loadMore)
	api.Post("/videos/reload", s.reload)
	api.Get("/videos/:id", s.getVideo)
	api.Get("/channels", s.listChannels)
	api.Get("/topics", s.listTopics)

	return s
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown.
func (s *Server) Listen(addr string) error {
	s.logger.Info().Str("addr", addr).Msg("server listening")
	return s.app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// Shutdown stops accepting connections and waits for active requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// handleError renders errors that escape handlers, including unknown
// routes, in the JSON error envelope.
func (s *Server) handleError(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	} else {
		s.logger.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	return c.Status(status).JSON(errorBody(errorCode(status), message))
}

func errorBody(code, message string) fiber.Map {
	return fiber.Map{"error": fiber.Map{"code": code, "message": message}}
}

func errorCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusServiceUnavailable:
		return "SOURCE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
