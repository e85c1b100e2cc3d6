package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/oklog/ulid/v2"

	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/pdfops"
	"github.com/drummonds/pdfmanager/toast"
)

// ImageItem is one picked image
type ImageItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	WidthPx  int    `json:"widthPx"`
	HeightPx int    `json:"heightPx"`
	Path     string `json:"-"`
}

// ImageSet is the ordered list of images on the Images tab
type ImageSet struct {
	toast.Binding

	library   Library
	outputDir string

	mu      sync.Mutex
	items   []ImageItem
	running bool
}

// NewImageSet writes converted documents to outputDir
func NewImageSet(library Library, outputDir string) *ImageSet {
	return &ImageSet{library: library, outputDir: outputDir}
}

// Add decodes each image for its dimensions and appends it. Nothing is added
// if any image cannot be read.
func (s *ImageSet) Add(paths ...string) ([]ImageItem, error) {
	added := make([]ImageItem, 0, len(paths))
	for _, p := range paths {
		img, err := imaging.Open(p, imaging.AutoOrientation(true))
		if err != nil {
			s.Show("Unable to read " + filepath.Base(p))
			return nil, fmt.Errorf("unable to read image %s: %w", filepath.Base(p), err)
		}
		bounds := img.Bounds()
		added = append(added, ImageItem{
			ID:       ulid.Make().String(),
			Name:     filepath.Base(p),
			WidthPx:  bounds.Dx(),
			HeightPx: bounds.Dy(),
			Path:     p,
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, added...)
	return added, nil
}

// Remove drops an image by id
func (s *ImageSet) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Move reorders the images; from == to is a no-op
func (s *ImageSet) Move(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return move(s.items, from, to)
}

func (s *ImageSet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Items returns the images in page order
func (s *ImageSet) Items() []ImageItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ImageItem(nil), s.items...)
}

func (s *ImageSet) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items) > 0
}

func (s *ImageSet) SelectedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Convert writes one page per image to a new document, indexes it and clears
// the set
func (s *ImageSet) Convert(ctx context.Context) (pdf.PdfFile, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return pdf.PdfFile{}, ErrBusy
	}
	items := append([]ImageItem(nil), s.items...)
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if len(items) == 0 {
		return pdf.PdfFile{}, fmt.Errorf("%w: no images", ErrNoSelection)
	}
	paths := make([]string, 0, len(items))
	for _, item := range items {
		paths = append(paths, item.Path)
	}
	outPath, err := pdfops.UniquePath(s.outputDir, timestampStem("Images", time.Now()), ".pdf")
	if err != nil {
		return pdf.PdfFile{}, err
	}
	if err := pdfops.ImagesToPDF(ctx, paths, outPath); err != nil {
		s.Show("Conversion failed")
		return pdf.PdfFile{}, err
	}
	file, err := s.library.LoadMetadata(ctx, pdf.FileURI(outPath))
	if err != nil {
		return pdf.PdfFile{}, fmt.Errorf("converted but unable to index %s: %w", outPath, err)
	}

	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
	s.Show(fmt.Sprintf("Created %s from %d images", file.Name, len(items)))
	return file, nil
}

// ImagesState is a snapshot of the Images tab
type ImagesState struct {
	Items         []ImageItem `json:"items"`
	SelectedCount int         `json:"selectedCount"`
	IsActive      bool        `json:"isActive"`
	Running       bool        `json:"running"`
}

func (s *ImageSet) State() ImagesState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ImagesState{
		Items:         append([]ImageItem{}, s.items...),
		SelectedCount: len(s.items),
		IsActive:      len(s.items) > 0,
		Running:       s.running,
	}
}
