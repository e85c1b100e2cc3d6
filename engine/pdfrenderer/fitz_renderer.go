package pdfrenderer

import (
	"errors"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer implements PDF rendering using go-fitz (requires CGo and MuPDF)
type FitzRenderer struct {
}

// NewFitzRenderer creates a new Fitz-based PDF renderer
func NewFitzRenderer() (*FitzRenderer, error) {
	return &FitzRenderer{}, nil
}

// Open opens a document with MuPDF; each document carries its own fitz context
func (r *FitzRenderer) Open(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		if errors.Is(err, fitz.ErrNeedsPassword) {
			return nil, ErrPasswordRequired
		}
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}
	return &fitzDocument{doc: doc, pages: doc.NumPage()}, nil
}

// Close is a no-op, documents are closed individually
func (r *FitzRenderer) Close() error {
	return nil
}

type fitzDocument struct {
	doc   *fitz.Document
	pages int
}

func (d *fitzDocument) PageCount() int {
	return d.pages
}

func (d *fitzDocument) PageSize(index int) (float64, float64, error) {
	if err := checkIndex(index, d.pages); err != nil {
		return 0, 0, err
	}
	// Bound is reported at 72 DPI, i.e. in points
	bound, err := d.doc.Bound(index)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to read page %d bounds: %w", index, err)
	}
	return float64(bound.Dx()), float64(bound.Dy()), nil
}

func (d *fitzDocument) RenderPage(index int, widthPx int) (image.Image, error) {
	pageW, pageH, err := d.PageSize(index)
	if err != nil {
		return nil, err
	}
	width, height := TargetSize(pageW, pageH, widthPx)

	dpi := 72.0
	if pageW > 0 {
		dpi = 72.0 * float64(width) / pageW
	}
	img, err := d.doc.ImageDPI(index, dpi)
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", index, err)
	}
	return onWhite(img, width, height), nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
