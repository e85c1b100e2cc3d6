package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/pdfmanager/config"
	database "github.com/drummonds/pdfmanager/database"
	engine "github.com/drummonds/pdfmanager/engine"
	"github.com/drummonds/pdfmanager/engine/pdfrenderer"
	"github.com/drummonds/pdfmanager/pagecache"
	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/pdfops"
	"github.com/drummonds/pdfmanager/webapp"
	"github.com/drummonds/pdfmanager/workspace"
)

//go:embed webapp/webapp.css
var webappFS embed.FS

//go:embed public/built/favicon.svg public/built/404.html
var publicFS embed.FS

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	database.Logger = Logger
	config.Logger = Logger
	engine.Logger = Logger
	pdfrenderer.Logger = Logger
	pagecache.Logger = Logger
	pdf.Logger = Logger
	pdfops.Logger = Logger
	workspace.Logger = Logger
}

// configJS is served at /config.js and read by the web app at startup
func configJS(frontend config.FrontEndConfig) string {
	return fmt.Sprintf(`
// PDF Manager Frontend Configuration
window.pdfManagerConfig = {
    apiURL: "%s",
    previewWidth: %d
};
`, frontend.ServerAPIURL, frontend.PreviewWidth)
}

// embeddedAssets are compiled into the binary and served by route
var embeddedAssets = map[string]struct {
	fs          embed.FS
	file        string
	contentType string
}{
	"/webapp/webapp.css": {webappFS, "webapp/webapp.css", "text/css; charset=utf-8"},
	"/favicon.svg":       {publicFS, "public/built/favicon.svg", "image/svg+xml"},
}

// notFoundHandler answers unknown /api/ paths with JSON and any other
// unknown asset with the embedded 404 page
func notFoundHandler(e *echo.Echo) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusNotFound {
			e.DefaultHTTPErrorHandler(err, c)
			return
		}
		path := c.Request().URL.Path
		if strings.HasPrefix(path, "/api/") {
			c.JSON(http.StatusNotFound, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    path,
			})
			return
		}
		if page, err := publicFS.ReadFile("public/built/404.html"); err == nil {
			c.HTMLBlob(http.StatusNotFound, page)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
}

// newServer wires the API, the web app and its static assets onto one Echo
// instance. The caller owns the returned handler and must Close it.
func newServer(serverConfig config.ServerConfig, db database.Repository, renderer pdfrenderer.Renderer) (*echo.Echo, *engine.ServerHandler, error) {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = notFoundHandler(e)

	serverHandler, err := engine.NewServerHandler(db, e, serverConfig, renderer)
	if err != nil {
		return nil, nil, fmt.Errorf("create server handler: %w", err)
	}
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))
	serverHandler.RegisterRoutes()

	appHandler := webapp.Handler()

	// go-app runtime files; app.wasm is built into web/ by cmd/webapp
	e.File("/wasm_exec.js", "web/wasm_exec.js")
	e.Static("/web", "web")
	e.GET("/app.js", echo.WrapHandler(appHandler))
	e.GET("/app.css", echo.WrapHandler(appHandler))
	e.GET("/manifest.webmanifest", echo.WrapHandler(appHandler))

	for route, asset := range embeddedAssets {
		data, err := asset.fs.ReadFile(asset.file)
		if err != nil {
			serverHandler.Close()
			return nil, nil, fmt.Errorf("read embedded %s: %w", asset.file, err)
		}
		e.GET(route, func(c echo.Context) error {
			return c.Blob(http.StatusOK, asset.contentType, data)
		})
	}

	script := []byte(configJS(serverConfig.FrontEndConfig))
	e.GET("/config.js", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/javascript", script)
	})

	// The WASM app handles its own client-side routing and 404s via NotFoundPage
	e.Any("/*", echo.WrapHandler(appHandler))

	return e, serverHandler, nil
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	if serverConfig.DatabaseType == "ephemeral" {
		fmt.Println("\n" + strings.Repeat("=", 50))
		fmt.Println("🚀  EPHEMERAL DATABASE MODE")
		fmt.Println(strings.Repeat("=", 50))
		fmt.Println("• Database will be destroyed on exit")
		fmt.Println("• Job history and settings are not kept")
		fmt.Println(strings.Repeat("=", 50) + "\n")
	}

	Logger.Info("Setting up database", "type", serverConfig.DatabaseType)
	db, err := database.NewRepository(serverConfig)
	if err != nil {
		Logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	Logger.Info("Database setup complete")

	e, serverHandler, err := newServer(serverConfig, db, nil)
	if err != nil {
		Logger.Error("Failed to create server", "error", err)
		os.Exit(1)
	}
	defer serverHandler.Close()

	if err := serverHandler.StartupChecks(); err != nil {
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}
	scheduler := serverHandler.InitializeSchedules() //initial scan plus the cron jobs
	defer scheduler.Stop()

	if serverConfig.ListenAddrIP == "" {
		Logger.Info("No IP address set, binding on all interfaces")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			Logger.Warn("Server shutdown did not finish cleanly", "error", err)
		}
	}()

	if err := listen(e, serverConfig.ListenAddrIP, serverConfig.ListenAddrPort, 5); err != nil {
		Logger.Error("Failed to start server", "error", err)
	}
}

// listen starts the server, moving to the next port while the current one
// is taken, for at most attempts ports
func listen(e *echo.Echo, ip, port string, attempts int) error {
	for attempt := 1; ; attempt++ {
		addr := net.JoinHostPort(ip, port)
		Logger.Info("Starting server", "address", addr, "attempt", attempt)
		err := e.Start(addr)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			return nil
		case !isAddressInUse(err) || attempt == attempts:
			return err
		}
		next, perr := nextPort(port)
		if perr != nil {
			return perr
		}
		Logger.Warn("Port already in use, trying next port", "port", port, "next", next)
		port = next
	}
}

func nextPort(port string) (string, error) {
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n >= 65535 {
		return "", fmt.Errorf("cannot step past port %q", port)
	}
	return strconv.Itoa(n + 1), nil
}

// isAddressInUse checks if the error is due to address already in use
func isAddressInUse(err error) bool {
	return err != nil && strings.Contains(err.Error(), "address already in use")
}
