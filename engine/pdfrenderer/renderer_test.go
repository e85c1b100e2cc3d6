package pdfrenderer

import (
	"errors"
	"testing"

	"github.com/drummonds/pdfmanager/internal/pdftest"
)

func TestTargetSize(t *testing.T) {
	tests := []struct {
		name         string
		pageW, pageH float64
		width        int
		wantW, wantH int
	}{
		{"A4 portrait", 595, 842, 595, 595, 842},
		{"half width", 600, 800, 300, 300, 400},
		{"landscape", 800, 600, 400, 400, 300},
		{"zero width clamps to one", 100, 100, 0, 1, 1},
		{"sliver keeps one row", 1000, 1, 10, 10, 1},
		{"degenerate page", 0, 100, 50, 50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := TargetSize(tt.pageW, tt.pageH, tt.width)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Expected %dx%d, got %dx%d", tt.wantW, tt.wantH, w, h)
			}
		})
	}
}

func TestNewRendererUnknown(t *testing.T) {
	if _, err := NewRenderer("ghostscript"); err == nil {
		t.Error("Expected error for unknown renderer")
	}
}

func exerciseRenderer(t *testing.T, r Renderer) {
	dir := t.TempDir()
	path := pdftest.WritePDF(t, dir, "three.pdf", 3)

	doc, err := r.Open(path)
	if err != nil {
		t.Fatalf("Failed to open PDF: %v", err)
	}
	defer doc.Close()

	if doc.PageCount() != 3 {
		t.Fatalf("Expected 3 pages, got %d", doc.PageCount())
	}

	pageW, pageH, err := doc.PageSize(0)
	if err != nil {
		t.Fatalf("Failed to read page size: %v", err)
	}
	wantW, wantH := TargetSize(pageW, pageH, 200)

	img, err := doc.RenderPage(0, 200)
	if err != nil {
		t.Fatalf("Failed to render page: %v", err)
	}
	if img.Bounds().Dx() != wantW || img.Bounds().Dy() != wantH {
		t.Errorf("Expected %dx%d, got %dx%d", wantW, wantH, img.Bounds().Dx(), img.Bounds().Dy())
	}

	if _, err := doc.RenderPage(3, 200); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("Expected ErrPageOutOfRange, got %v", err)
	}
	if _, err := doc.RenderPage(-1, 200); !errors.Is(err, ErrPageOutOfRange) {
		t.Errorf("Expected ErrPageOutOfRange for negative index, got %v", err)
	}

	locked := pdftest.WriteLockedPDF(t, dir, "locked.pdf", 1, "secret")
	if lockedDoc, err := r.Open(locked); err == nil {
		lockedDoc.Close()
		t.Error("Expected opening a password protected PDF to fail")
	} else if !errors.Is(err, ErrPasswordRequired) {
		t.Logf("Locked PDF failed with a generic error: %v", err)
	}
}

func TestFitzRenderer(t *testing.T) {
	r, err := NewFitzRenderer()
	if err != nil {
		t.Fatalf("Failed to create fitz renderer: %v", err)
	}
	defer r.Close()
	exerciseRenderer(t, r)
}

func TestPDFiumRenderer(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping pdfium WebAssembly test in short mode")
	}
	r, err := NewPDFiumRenderer()
	if err != nil {
		t.Skipf("PDFium WebAssembly unavailable: %v", err)
	}
	defer r.Close()
	exerciseRenderer(t, r)
}
