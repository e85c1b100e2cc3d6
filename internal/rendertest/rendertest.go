// Package rendertest provides a pure Go pdfrenderer.Renderer for tests. It
// reads page counts with pdfcpu and renders blank pages.
package rendertest

import (
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/drummonds/pdfmanager/engine/pdfrenderer"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageWidth and PageHeight are the point size reported for every page
const (
	PageWidth  = 612.0
	PageHeight = 792.0
)

// Renderer counts opens per path
type Renderer struct {
	mu    sync.Mutex
	opens map[string]int
	open  int
}

// New returns an empty Renderer
func New() *Renderer {
	return &Renderer{opens: make(map[string]int)}
}

// Open reads the page count; encrypted files report ErrPasswordRequired
func (r *Renderer) Open(path string) (pdfrenderer.Document, error) {
	r.mu.Lock()
	r.opens[path]++
	r.mu.Unlock()

	count, err := api.PageCountFile(path)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "password") {
			return nil, pdfrenderer.ErrPasswordRequired
		}
		return nil, fmt.Errorf("rendertest: %w", err)
	}

	r.mu.Lock()
	r.open++
	r.mu.Unlock()
	return &document{renderer: r, pages: count}, nil
}

// Close is a no-op
func (r *Renderer) Close() error { return nil }

// Opens reports how many times path was opened
func (r *Renderer) Opens(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens[path]
}

// OpenDocuments is the number of documents opened and not yet closed
func (r *Renderer) OpenDocuments() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

type document struct {
	renderer *Renderer
	pages    int
	closed   bool
}

func (d *document) PageCount() int { return d.pages }

func (d *document) PageSize(index int) (float64, float64, error) {
	if index < 0 || index >= d.pages {
		return 0, 0, pdfrenderer.ErrPageOutOfRange
	}
	return PageWidth, PageHeight, nil
}

func (d *document) RenderPage(index int, widthPx int) (image.Image, error) {
	if index < 0 || index >= d.pages {
		return nil, pdfrenderer.ErrPageOutOfRange
	}
	w, h := pdfrenderer.TargetSize(PageWidth, PageHeight, widthPx)
	return imaging.New(w, h, color.White), nil
}

func (d *document) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.renderer.mu.Lock()
	d.renderer.open--
	d.renderer.mu.Unlock()
	return nil
}
