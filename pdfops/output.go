package pdfops

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// UniquePath returns dir/<stem><ext>, adding " (n)" to the stem until the
// name is free. dir is created if needed.
func UniquePath(dir, stem, ext string) (string, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", fmt.Errorf("unable to create output folder: %w", err)
	}
	candidate := filepath.Join(dir, stem+ext)
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
}
