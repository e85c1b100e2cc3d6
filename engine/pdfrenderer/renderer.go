package pdfrenderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"strings"

	"github.com/disintegration/imaging"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

// ErrPasswordRequired is returned by Open when the document is encrypted
var ErrPasswordRequired = errors.New("pdfrenderer: document requires a password")

// ErrPageOutOfRange is returned when a page index is outside [0, PageCount)
var ErrPageOutOfRange = errors.New("pdfrenderer: page index out of range")

// Renderer opens PDF documents for rasterizing
type Renderer interface {
	// Open prepares a document for page rendering. The caller owns the
	// returned Document and must Close it.
	Open(path string) (Document, error)

	// Close cleans up any resources used by the renderer
	Close() error
}

// Document is one open renderer session. Implementations are not safe for
// concurrent use; callers serialize access.
type Document interface {
	PageCount() int
	// PageSize returns the page dimensions in points
	PageSize(index int) (width, height float64, err error)
	// RenderPage rasterizes a page scaled to widthPx on a white background
	RenderPage(index int, widthPx int) (image.Image, error)
	Close() error
}

// NewRenderer creates the renderer named by kind, "pdfium" (pure Go) or "fitz" (cgo)
func NewRenderer(kind string) (Renderer, error) {
	switch strings.ToLower(kind) {
	case "fitz", "mupdf":
		Logger.Info("Using go-fitz PDF renderer")
		return NewFitzRenderer()
	case "", "pdfium":
		Logger.Info("Using go-pdfium WebAssembly PDF renderer")
		return NewPDFiumRenderer()
	default:
		return nil, fmt.Errorf("unknown renderer %q", kind)
	}
}

// TargetSize scales a page of the given point size to widthPx, keeping the aspect ratio
func TargetSize(pageWidth, pageHeight float64, widthPx int) (int, int) {
	if widthPx < 1 {
		widthPx = 1
	}
	if pageWidth <= 0 {
		return widthPx, 1
	}
	scale := float64(widthPx) / pageWidth
	height := int(pageHeight * scale)
	if height < 1 {
		height = 1
	}
	return widthPx, height
}

// onWhite resizes img to exactly width x height and flattens it onto an opaque white canvas
func onWhite(img image.Image, width, height int) *image.NRGBA {
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		img = imaging.Resize(img, width, height, imaging.Lanczos)
	}
	canvas := imaging.New(width, height, color.White)
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

func checkIndex(index, count int) error {
	if index < 0 || index >= count {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrPageOutOfRange, index, count)
	}
	return nil
}
