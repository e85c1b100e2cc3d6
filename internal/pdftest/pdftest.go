// Package pdftest fabricates small PDFs and images for tests.
package pdftest

import (
	"fmt"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	api.DisableConfigDir()
}

// WritePNG writes a solid image of the given size and returns its path
func WritePNG(t testing.TB, dir, name string, width, height int) string {
	t.Helper()
	path := filepath.Join(dir, name)
	img := imaging.New(width, height, color.NRGBA{R: 40, G: 90, B: 160, A: 255})
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Failed to write image %s: %v", path, err)
	}
	return path
}

// WritePDF writes a PDF with the given number of pages, one image per page
func WritePDF(t testing.TB, dir, name string, pages int) string {
	t.Helper()
	if pages < 1 {
		t.Fatalf("WritePDF needs at least one page, got %d", pages)
	}
	imgDir := t.TempDir()
	var images []string
	for i := 0; i < pages; i++ {
		images = append(images, WritePNG(t, imgDir, fmt.Sprintf("page%03d.png", i), 120, 160))
	}

	path := filepath.Join(dir, name)
	if err := api.ImportImagesFile(images, path, pdfcpu.DefaultImportConfig(), model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("Failed to write PDF %s: %v", path, err)
	}
	return path
}

// WriteLockedPDF writes a PDF that cannot be opened without userPassword
func WriteLockedPDF(t testing.TB, dir, name string, pages int, userPassword string) string {
	t.Helper()
	plain := WritePDF(t, t.TempDir(), "plain.pdf", pages)
	path := filepath.Join(dir, name)
	conf := model.NewAESConfiguration(userPassword, userPassword+"-owner", 256)
	if err := api.EncryptFile(plain, path, conf); err != nil {
		t.Fatalf("Failed to encrypt PDF %s: %v", path, err)
	}
	return path
}

// PageCount reads the page count with pdfcpu
func PageCount(t testing.TB, path string) int {
	t.Helper()
	count, err := api.PageCountFile(path)
	if err != nil {
		t.Fatalf("Failed to count pages of %s: %v", path, err)
	}
	return count
}
