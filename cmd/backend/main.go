// Command backend serves only the PDF Manager API; pair it with cmd/frontend
// when the web app runs on another origin.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/pdfmanager/config"
	database "github.com/drummonds/pdfmanager/database"
	engine "github.com/drummonds/pdfmanager/engine"
	"github.com/drummonds/pdfmanager/engine/pdfrenderer"
	"github.com/drummonds/pdfmanager/internal/build"
	"github.com/drummonds/pdfmanager/pagecache"
	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/pdfops"
	"github.com/drummonds/pdfmanager/workspace"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

func injectGlobals(logger *slog.Logger) {
	Logger = logger
	for _, target := range []**slog.Logger{
		&database.Logger, &config.Logger, &engine.Logger, &pdfrenderer.Logger,
		&pagecache.Logger, &pdf.Logger, &pdfops.Logger, &workspace.Logger,
	} {
		*target = logger
	}
}

// @title PDF Manager Backend API
// @version 1.0
// @description PDF library, page rendering and PDF tools
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8000
// @BasePath /api
// @schemes http https
// @tag.name PDFs
// @tag.description Library listing, page images and per-file tools
// @tag.name Workspace
// @tag.description Selection, merge, split, images and preview state
// @tag.name Jobs
// @tag.description Background job tracking

// newBackend is the API alone: JSON for every error, open CORS for the
// frontend server, plus /api/health. A nil renderer means the configured one
func newBackend(serverConfig config.ServerConfig, repo database.Repository, renderer pdfrenderer.Renderer) (*echo.Echo, *engine.ServerHandler, error) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if he, ok := err.(*echo.HTTPError); ok && he.Code == http.StatusNotFound {
			c.JSON(http.StatusNotFound, map[string]string{"error": "Not Found", "path": c.Request().URL.Path})
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodPatch},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	serverHandler, err := engine.NewServerHandler(repo, e, serverConfig, renderer)
	if err != nil {
		return nil, nil, err
	}
	serverHandler.RegisterRoutes()
	e.GET("/api/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "healthy", "version": build.Version})
	})
	return e, serverHandler, nil
}

func main() {
	port := flag.String("port", "", "Port to listen on (overrides SERVER_PORT)")
	flag.Parse()

	serverConfig, logger := config.SetupServer()
	injectGlobals(logger)
	if *port != "" {
		serverConfig.ListenAddrPort = *port
	}

	repo, err := database.NewRepository(serverConfig)
	if err != nil {
		Logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	e, serverHandler, err := newBackend(serverConfig, repo, nil)
	if err != nil {
		Logger.Error("Failed to create server handler", "error", err)
		os.Exit(1)
	}
	defer serverHandler.Close()
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	if err := serverHandler.StartupChecks(); err != nil {
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}
	scheduler := serverHandler.InitializeSchedules()
	defer scheduler.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		e.Shutdown(shutdownCtx)
	}()

	addr := net.JoinHostPort(serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
	Logger.Info("Starting backend API", "address", addr, "database", serverConfig.DatabaseType)
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
	}
}
