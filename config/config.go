package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP      string
	ListenAddrPort    string
	DatabaseType      string
	DatabaseHost      string
	DatabasePort      string
	DatabaseUser      string
	DatabasePassword  string `json:"-"`
	DatabaseDbname    string
	DatabaseSslmode   string
	LibraryPaths      []string // absolute folders scanned for PDFs
	OutputPath        string   // merge/split/images results land here
	UploadPath        string   // picked documents and images are stored here
	ScanInterval      int      // minutes between library rescans
	Renderer          string   // "pdfium" or "fitz"
	RenderCacheMax    int      // 0 means unbounded
	ScanWorkers      int
	JobRetentionHours int
	FrontEndConfig
}

// FrontEndConfig stores all of the frontend settings
type FrontEndConfig struct {
	PreviewWidth int
	ServerAPIURL string
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvList splits an environment variable on the OS list separator
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range filepath.SplitList(value) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// absPath resolves a path from the environment, logging rather than failing
func absPath(logger *slog.Logger, name, path string) string {
	abs, err := filepath.Abs(filepath.ToSlash(path))
	if err != nil {
		logger.Error("Failed creating absolute path", "setting", name, "path", path, "error", err)
		return path
	}
	return abs
}

// SetupServer reads .env and config.env, then the environment, and opens
// the logger every package shares
func SetupServer() (ServerConfig, *slog.Logger) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")
	logger := setupLogging()
	Logger = logger

	serverConfig := ServerConfig{
		ListenAddrIP:      getEnv("SERVER_ADDR", ""),
		ListenAddrPort:    getEnv("SERVER_PORT", "8000"),
		DatabaseType:      getEnv("DATABASE_TYPE", "sqlite"),
		DatabaseHost:      getEnv("DATABASE_HOST", "localhost"),
		DatabasePort:      getEnv("DATABASE_PORT", "5432"),
		DatabaseUser:      getEnv("DATABASE_USER", "pdfmanager"),
		DatabasePassword:  getEnv("DATABASE_PASSWORD", ""),
		DatabaseDbname:    getEnv("DATABASE_NAME", "databases/pdfmanager.sqlite"),
		DatabaseSslmode:   getEnv("DATABASE_SSLMODE", "disable"),
		OutputPath:        absPath(logger, "OUTPUT_PATH", getEnv("OUTPUT_PATH", "documents/output")),
		UploadPath:        absPath(logger, "UPLOAD_PATH", getEnv("UPLOAD_PATH", "documents/uploads")),
		ScanInterval:      getEnvInt("SCAN_INTERVAL", 10),
		Renderer:          strings.ToLower(getEnv("RENDERER", "pdfium")),
		RenderCacheMax:    getEnvInt("RENDER_CACHE_MAX_DOCUMENTS", 16),
		ScanWorkers:      getEnvInt("SCAN_WORKERS", 4),
		JobRetentionHours: getEnvInt("JOB_RETENTION_HOURS", 72),
		FrontEndConfig: FrontEndConfig{
			PreviewWidth: getEnvInt("PREVIEW_WIDTH", 800),
			ServerAPIURL: getEnv("SERVER_API_URL", ""),
		},
	}
	for _, libraryPath := range getEnvList("LIBRARY_PATHS", []string{"documents"}) {
		serverConfig.LibraryPaths = append(serverConfig.LibraryPaths, absPath(logger, "LIBRARY_PATHS", libraryPath))
	}

	listenOn := serverConfig.ListenAddrIP
	if listenOn == "" {
		listenOn = "all interfaces"
	}
	fmt.Printf("\n📄  PDF Manager on %s port %s\n", listenOn, serverConfig.ListenAddrPort)
	fmt.Printf("    library: %s\n", strings.Join(serverConfig.LibraryPaths, ", "))
	fmt.Printf("    database: %s, renderer: %s\n\n", serverConfig.DatabaseType, serverConfig.Renderer)

	logger.Info("Configuration loaded",
		"database", serverConfig.DatabaseType,
		"libraries", serverConfig.LibraryPaths,
		"output", serverConfig.OutputPath,
		"renderer", serverConfig.Renderer,
		"renderCacheMax", serverConfig.RenderCacheMax,
		"scanIntervalMinutes", serverConfig.ScanInterval)
	return serverConfig, logger
}

// SetupFrontend loads configuration for frontend-only server
func SetupFrontend() (FrontEndConfig, *slog.Logger) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")
	_ = godotenv.Load("frontend.env")

	logger := setupLogging()
	Logger = logger

	frontendConfig := FrontEndConfig{}
	frontendConfig.PreviewWidth = getEnvInt("PREVIEW_WIDTH", 800)
	frontendConfig.ServerAPIURL = getEnv("SERVER_API_URL", "http://localhost:8000")

	logger.Info("Frontend configuration loaded",
		"apiURL", frontendConfig.ServerAPIURL,
		"previewWidth", frontendConfig.PreviewWidth)

	return frontendConfig, logger
}

// parseLevel maps a LOG_LEVEL value to a slog level, defaulting to debug
func parseLevel(logLevel string) slog.Level {
	switch strings.ToLower(logLevel) {
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

// logWriter is stdout for LOG_OUTPUT=stdout, otherwise LOG_FILE opened for
// append; any failure falls back to stdout
func logWriter() io.Writer {
	if getEnv("LOG_OUTPUT", "file") == "stdout" {
		return os.Stdout
	}
	logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "pdfmanager.log")))
	if err == nil {
		var logFile *os.File
		if logFile, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666); err == nil {
			fmt.Println("Logging to file:", logPath)
			return logFile
		}
	}
	fmt.Printf("Logging to stdout, log file unavailable: %v\n", err)
	return os.Stdout
}

func setupLogging() *slog.Logger {
	options := &slog.HandlerOptions{Level: parseLevel(getEnv("LOG_LEVEL", "debug"))}
	return slog.New(slog.NewTextHandler(logWriter(), options))
}
