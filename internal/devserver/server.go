package devserver

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hookview/dashboard/internal/config"
)

// Server is the assembled development backend.
type Server struct {
	echo  *echo.Echo
	store *LogStore
	hub   *Hub
	addr  string
}

// New builds the server: sqlite store, room hub, routes, middleware.
func New(cfg config.DevServerConfig) (*Server, error) {
	store, err := NewLogStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("initializing log store: %w", err)
	}

	hub := NewHub()
	h := NewHandler(store, hub, cfg.ExpectedEvents)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" ||
				strings.HasSuffix(path, "/stats") ||
				strings.HasSuffix(path, "/coverage")
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("8M"))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	e.GET("/health", h.HandleHealth)
	e.GET("/ws/live", h.HandleLive)

	app := e.Group("/app/:id")
	app.POST("/logs", h.HandleIngestLog)
	app.GET("/logs", h.HandleGetLogs)
	app.GET("/stats", h.HandleStats)
	app.GET("/coverage", h.HandleCoverage)
	app.GET("/event-names", h.HandleEventNames)
	app.POST("/download-report", h.HandleDownloadReport)
	app.POST("/download-valid-events", h.HandleDownloadValidEvents)
	app.POST("/delete-logs", h.HandleDeleteLogs)

	return &Server{echo: e, store: store, hub: hub, addr: cfg.ListenAddr}, nil
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         s.addr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if err := s.echo.StartServer(srv); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("starting dev server: %w", err)
	}
	return nil
}

// Shutdown stops the HTTP server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.echo.Shutdown(ctx)
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}
