package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	config "github.com/drummonds/pdfmanager/config"
	database "github.com/drummonds/pdfmanager/database"
	"github.com/drummonds/pdfmanager/internal/rendertest"
)

func TestBackendHealthAndNotFound(t *testing.T) {
	injectGlobals(slog.Default())
	serverConfig := config.ServerConfig{
		DatabaseType:   "sqlite",
		DatabaseDbname: filepath.Join(t.TempDir(), "backend.sqlite"),
		LibraryPaths:   []string{t.TempDir()},
		OutputPath:     t.TempDir(),
		UploadPath:     t.TempDir(),
		Renderer:       "pdfium",
		RenderCacheMax: 2,
		ScanWorkers:   1,
	}
	repo, err := database.NewRepository(serverConfig)
	if err != nil {
		t.Fatalf("Failed to setup database: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	e, serverHandler, err := newBackend(serverConfig, repo, rendertest.New())
	if err != nil {
		t.Fatalf("Failed to create backend: %v", err)
	}
	t.Cleanup(func() { serverHandler.Close() })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["path"] != "/nowhere" {
		t.Errorf("Expected path /nowhere, got %v", body)
	}
}
