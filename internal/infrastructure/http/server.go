package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/railroadmedia/customer-io/internal/adapter/handler/http"
	"github.com/railroadmedia/customer-io/internal/config"
	"github.com/railroadmedia/customer-io/pkg/logger"
)

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
}

func NewServer(cfg *config.Config, logger *zap.Logger, processor handlers.FormProcessor, formNames []string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		config: cfg,
		logger: logger,
		echo:   e,
	}
	s.setupMiddleware()
	s.setupRoutes(handlers.NewFormHandler(processor, formNames, logger))
	return s
}

func (s *Server) setupMiddleware() {
	logger.WithEchoLogger(s.echo, s.logger)
	s.echo.Use(middleware.RequestID())
	s.echo.Use(logger.NewEchoRequestLogger(s.logger))
	s.echo.Use(middleware.Recover())
}

func (s *Server) setupRoutes(formHandler *handlers.FormHandler) {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	s.echo.POST("/customer-io/submit-email-form", formHandler.SubmitEmailForm)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := s.config.Server.HTTP.Address()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
