package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	config "github.com/drummonds/pdfmanager/config"
	"github.com/drummonds/pdfmanager/webapp"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// proxiedPrefixes are answered by the backend; page images live under /api
var proxiedPrefixes = []string{"/api", "/document"}

// browserConfig is config.js for a browser that only ever talks to this
// server, so apiURL stays relative and the proxy forwards it
func browserConfig(previewWidth int) string {
	return fmt.Sprintf("window.pdfManagerConfig = {\n    apiURL: \"\",\n    previewWidth: %d\n};\n", previewWidth)
}

// newFrontend serves the wasm shell from disk and proxies everything the
// backend owns
func newFrontend(frontendConfig config.FrontEndConfig) (*echo.Echo, error) {
	backendURL, err := url.Parse(frontendConfig.ServerAPIURL)
	if err != nil || backendURL.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", frontendConfig.ServerAPIURL)
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORS())

	proxy := middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{{URL: backendURL}}),
	})
	for _, prefix := range proxiedPrefixes {
		e.Group(prefix, proxy)
	}

	shell := echo.WrapHandler(webapp.Handler())
	for _, path := range []string{"/app.js", "/app.css", "/manifest.webmanifest"} {
		e.GET(path, shell)
	}
	e.File("/wasm_exec.js", "web/wasm_exec.js")
	e.Static("/web", "web")
	e.File("/webapp/webapp.css", "webapp/webapp.css")
	e.File("/favicon.svg", "public/built/favicon.svg")

	script := browserConfig(frontendConfig.PreviewWidth)
	e.GET("/config.js", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/javascript", []byte(script))
	})

	// client routes, must be last
	e.Any("/*", shell)
	return e, nil
}

func main() {
	port := flag.String("port", "3000", "Port to run frontend server on")
	apiURL := flag.String("api", "", "Backend API URL (overrides SERVER_API_URL)")
	flag.Parse()

	frontendConfig, logger := config.SetupFrontend()
	Logger = logger
	config.Logger = logger
	if *apiURL != "" {
		frontendConfig.ServerAPIURL = *apiURL
	}

	e, err := newFrontend(frontendConfig)
	if err != nil {
		Logger.Error("Failed to build frontend server", "error", err)
		os.Exit(1)
	}
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	addr := ":" + *port
	Logger.Info("Starting frontend server", "address", addr, "backendAPI", frontendConfig.ServerAPIURL)
	fmt.Printf("\n🎨  PDF Manager frontend on http://localhost:%s (API at %s)\n\n", *port, frontendConfig.ServerAPIURL)

	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
	}
}
