package engine

import (
	"errors"
	"fmt"
	"os"
)

// StartupChecks makes sure every folder the server reads or writes exists
func (serverHandler *ServerHandler) StartupChecks() error {
	cfg := serverHandler.ServerConfig
	var errs []error
	for _, libraryPath := range cfg.LibraryPaths {
		errs = append(errs, directoryCheck("library", libraryPath))
	}
	errs = append(errs,
		directoryCheck("output", cfg.OutputPath),
		directoryCheck("upload", cfg.UploadPath),
	)
	if err := errors.Join(errs...); err != nil {
		Logger.Error("Startup checks failed", "error", err)
		return err
	}
	Logger.Info("Startup checks passed", "renderer", cfg.Renderer)
	return nil
}

// directoryCheck creates path when missing and fails when it is not a directory
func directoryCheck(kind, path string) error {
	if path == "" {
		Logger.Warn("Path not configured", "kind", kind)
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			Logger.Info("Creating directory", "kind", kind, "path", path)
			if err := os.MkdirAll(path, 0755); err != nil {
				Logger.Error("Failed to create directory", "kind", kind, "path", path, "error", err)
				return err
			}
			return nil
		}
		Logger.Error("Error checking directory", "kind", kind, "path", path, "error", err)
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("%s path is not a directory: %s", kind, path)
	}
	Logger.Info("Directory exists", "kind", kind, "path", path)
	return nil
}
