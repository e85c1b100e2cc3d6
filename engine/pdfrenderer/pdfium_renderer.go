package pdfrenderer

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	pdfiumerrors "github.com/klippa-app/go-pdfium/errors"
	"github.com/klippa-app/go-pdfium/references"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

// PDFiumRenderer implements PDF rendering using go-pdfium with WebAssembly (pure Go, no CGo).
// A single pdfium instance serves every open document, so all calls into it
// go through mu.
type PDFiumRenderer struct {
	mu       sync.Mutex
	pool     pdfium.Pool
	instance pdfium.Pdfium
}

// NewPDFiumRenderer creates a new PDFium-based PDF renderer using WebAssembly
func NewPDFiumRenderer() (*PDFiumRenderer, error) {
	pool, err := webassembly.Init(webassembly.Config{
		MinIdle:  1, // Minimum idle workers
		MaxIdle:  1, // Maximum idle workers
		MaxTotal: 1, // Total worker limit
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PDFium WebAssembly: %w", err)
	}

	instance, err := pool.GetInstance(time.Second * 30)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to get PDFium instance: %w", err)
	}

	return &PDFiumRenderer{
		pool:     pool,
		instance: instance,
	}, nil
}

// Open loads the file into the pdfium instance
func (r *PDFiumRenderer) Open(path string) (Document, error) {
	pdfBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read PDF file: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance == nil {
		return nil, errors.New("pdfium renderer is closed")
	}

	doc, err := r.instance.OpenDocument(&requests.OpenDocument{
		File: &pdfBytes,
	})
	if err != nil {
		if errors.Is(err, pdfiumerrors.ErrPassword) {
			return nil, ErrPasswordRequired
		}
		return nil, fmt.Errorf("unable to open PDF document: %w", err)
	}

	pageCount, err := r.instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{
		Document: doc.Document,
	})
	if err != nil {
		r.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})
		return nil, fmt.Errorf("unable to get page count: %w", err)
	}

	return &pdfiumDocument{renderer: r, ref: doc.Document, pages: pageCount.PageCount}, nil
}

// Close cleans up resources used by the PDFium renderer
func (r *PDFiumRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.instance != nil {
		r.instance.Close()
		r.instance = nil
	}
	if r.pool != nil {
		r.pool.Close()
		r.pool = nil
	}
	return nil
}

type pdfiumDocument struct {
	renderer *PDFiumRenderer
	ref      references.FPDF_DOCUMENT
	pages    int
}

func (d *pdfiumDocument) PageCount() int {
	return d.pages
}

func (d *pdfiumDocument) PageSize(index int) (float64, float64, error) {
	if err := checkIndex(index, d.pages); err != nil {
		return 0, 0, err
	}
	d.renderer.mu.Lock()
	defer d.renderer.mu.Unlock()
	return d.pageSizeLocked(index)
}

func (d *pdfiumDocument) pageSizeLocked(index int) (float64, float64, error) {
	if d.renderer.instance == nil {
		return 0, 0, errors.New("pdfium renderer is closed")
	}
	size, err := d.renderer.instance.FPDF_GetPageSizeByIndex(&requests.FPDF_GetPageSizeByIndex{
		Document: d.ref,
		Index:    index,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("unable to read page %d size: %w", index, err)
	}
	return size.Width, size.Height, nil
}

func (d *pdfiumDocument) RenderPage(index int, widthPx int) (image.Image, error) {
	if err := checkIndex(index, d.pages); err != nil {
		return nil, err
	}
	d.renderer.mu.Lock()
	defer d.renderer.mu.Unlock()

	pageW, pageH, err := d.pageSizeLocked(index)
	if err != nil {
		return nil, err
	}
	width, height := TargetSize(pageW, pageH, widthPx)

	pageRender, err := d.renderer.instance.RenderPageInPixels(&requests.RenderPageInPixels{
		Page: requests.Page{
			ByIndex: &requests.PageByIndex{
				Document: d.ref,
				Index:    index,
			},
		},
		Width:  width,
		Height: height,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to render page %d: %w", index, err)
	}
	// The result image lives in WebAssembly memory; copy it out before Cleanup
	img := onWhite(pageRender.Result.Image, width, height)
	pageRender.Cleanup()
	return img, nil
}

func (d *pdfiumDocument) Close() error {
	d.renderer.mu.Lock()
	defer d.renderer.mu.Unlock()
	if d.renderer.instance == nil {
		return nil
	}
	_, err := d.renderer.instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{
		Document: d.ref,
	})
	return err
}
