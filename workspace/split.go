package workspace

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/pdfops"
	"github.com/drummonds/pdfmanager/toast"
)

// SplitSelection is the state behind the Split tab
type SplitSelection struct {
	toast.Binding

	library   Library
	outputDir string

	mu               sync.Mutex
	pdf              *pdf.PdfFile
	method           pdfops.SplitMethod
	rangesText       string
	pagesPerFileText string
	running          bool
}

// NewSplitSelection writes split results under outputDir
func NewSplitSelection(library Library, outputDir string) *SplitSelection {
	return &SplitSelection{library: library, outputDir: outputDir, pagesPerFileText: "1"}
}

// Select makes p the document to split. Locked documents cannot be split.
func (s *SplitSelection) Select(p pdf.PdfFile) error {
	if p.IsLocked {
		s.Show(lockedOneText)
		return ErrLocked
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pdf = &p
	return nil
}

// ClearSelection forgets the selected document
func (s *SplitSelection) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pdf = nil
}

// Selected returns the document to split, if any
func (s *SplitSelection) Selected() (pdf.PdfFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pdf == nil {
		return pdf.PdfFile{}, false
	}
	return *s.pdf, true
}

// SetMethod picks the split method by id
func (s *SplitSelection) SetMethod(method pdfops.SplitMethod) error {
	switch method {
	case pdfops.SplitByRanges, pdfops.SplitOnePagePerFile, pdfops.SplitEveryNPages:
	default:
		return fmt.Errorf("%w: %d", pdfops.ErrInvalidMethod, int(method))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.method = method
	return nil
}

func (s *SplitSelection) SetRangesText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rangesText = text
}

func (s *SplitSelection) SetPagesPerFileText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pagesPerFileText = text
}

// Plan resolves the current inputs into output ranges
func (s *SplitSelection) Plan() ([]pdfops.PageRange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planLocked()
}

func (s *SplitSelection) planLocked() ([]pdfops.PageRange, error) {
	if s.pdf == nil {
		return nil, ErrNoSelection
	}
	return pdfops.Plan(s.method, s.rangesText, s.pagesPerFileText, s.pdf.PagesCount)
}

// Preview describes the pages of the planned output files
func (s *SplitSelection) Preview() (PreviewRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, err := s.planLocked()
	if err != nil {
		return PreviewRequest{}, err
	}
	return SplitPreview(*s.pdf, s.method, plan), nil
}

// Split cuts the selected document into files under a fresh folder of the
// output directory and indexes each of them.
func (s *SplitSelection) Split(ctx context.Context) ([]pdf.PdfFile, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	plan, err := s.planLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	source := *s.pdf
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	inPath, err := pdf.PathFromURI(source.URI)
	if err != nil {
		return nil, err
	}
	outDir, err := pdfops.UniquePath(s.outputDir, timestampStem(baseName(source.Name)+"_split", time.Now()), "")
	if err != nil {
		return nil, err
	}
	paths, err := pdfops.Split(ctx, inPath, plan, outDir)
	if err != nil {
		s.Show("Split failed")
		return nil, err
	}

	files := make([]pdf.PdfFile, 0, len(paths))
	for _, p := range paths {
		file, err := s.library.LoadMetadata(ctx, pdf.FileURI(p))
		if err != nil {
			return files, fmt.Errorf("split but unable to index %s: %w", filepath.Base(p), err)
		}
		files = append(files, file)
	}
	s.Show(fmt.Sprintf("Split %s into %d files", source.Name, len(files)))
	return files, nil
}

// SplitState is a snapshot of the Split tab
type SplitState struct {
	Pdf              *pdf.Summary       `json:"pdf,omitempty"`
	Method           pdfops.SplitMethod `json:"method"`
	MethodName       string             `json:"methodName"`
	RangesText       string             `json:"rangesText"`
	PagesPerFileText string             `json:"pagesPerFileText"`
	Plan             []pdfops.PageRange `json:"plan"`
	PlanError        string             `json:"planError,omitempty"`
	Running          bool               `json:"running"`
}

// State snapshots the selection along with the plan it currently resolves to
func (s *SplitSelection) State() SplitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := SplitState{
		Method:           s.method,
		MethodName:       s.method.String(),
		RangesText:       s.rangesText,
		PagesPerFileText: s.pagesPerFileText,
		Plan:             []pdfops.PageRange{},
		Running:          s.running,
	}
	if s.pdf == nil {
		return state
	}
	summary := s.pdf.Summary()
	state.Pdf = &summary
	plan, err := s.planLocked()
	if err != nil {
		state.PlanError = err.Error()
		return state
	}
	state.Plan = plan
	return state
}
