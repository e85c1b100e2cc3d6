package workspace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/drummonds/pdfmanager/pdf"
	"github.com/drummonds/pdfmanager/pdfops"
	"github.com/drummonds/pdfmanager/toast"
)

const (
	lockedOneText  = "This PDF is password-protected and can't be selected"
	lockedManyText = "Some PDFs are password-protected and can't be selected"
)

// MergeSet is the ordered list of documents on the Merge tab
type MergeSet struct {
	toast.Binding

	library   Library
	outputDir string

	mu      sync.Mutex
	pdfs    []pdf.PdfFile
	running bool
}

// NewMergeSet writes merge results to outputDir and indexes them in library
func NewMergeSet(library Library, outputDir string) *MergeSet {
	return &MergeSet{library: library, outputDir: outputDir}
}

// Add appends the documents not already present. A batch containing a locked
// document is rejected as a whole.
func (m *MergeSet) Add(pdfs ...pdf.PdfFile) bool {
	locked := 0
	for _, p := range pdfs {
		if p.IsLocked {
			locked++
		}
	}
	if locked > 0 {
		if len(pdfs) == 1 {
			m.Show(lockedOneText)
		} else {
			m.Show(lockedManyText)
		}
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range pdfs {
		if m.indexLocked(p.URI) < 0 {
			m.pdfs = append(m.pdfs, p)
		}
	}
	return true
}

func (m *MergeSet) indexLocked(uri string) int {
	for i, p := range m.pdfs {
		if p.URI == uri {
			return i
		}
	}
	return -1
}

// Remove drops a document by id
func (m *MergeSet) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.pdfs {
		if p.ID == id {
			m.pdfs = append(m.pdfs[:i], m.pdfs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Clear empties the set
func (m *MergeSet) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pdfs = nil
}

// Move reorders the set; from == to is a no-op
func (m *MergeSet) Move(from, to int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return move(m.pdfs, from, to)
}

func move[T any](items []T, from, to int) error {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return fmt.Errorf("%w: move %d to %d of %d", ErrIndexOutOfRange, from, to, len(items))
	}
	if from == to {
		return nil
	}
	item := items[from]
	if from < to {
		copy(items[from:to], items[from+1:to+1])
	} else {
		copy(items[to+1:from+1], items[to:from])
	}
	items[to] = item
	return nil
}

// Pdfs returns the documents in merge order
func (m *MergeSet) Pdfs() []pdf.PdfFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]pdf.PdfFile(nil), m.pdfs...)
}

// IsActive reports whether the set has anything in it
func (m *MergeSet) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pdfs) > 0
}

// Total is the number of documents in the set
func (m *MergeSet) Total() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pdfs)
}

// TotalPages sums the page counts of the set
func (m *MergeSet) TotalPages() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, p := range m.pdfs {
		total += p.PagesCount
	}
	return total
}

// Merge writes the set to a new document in the output folder, indexes it and
// clears the set. The set is left untouched on failure.
func (m *MergeSet) Merge(ctx context.Context) (pdf.PdfFile, error) {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return pdf.PdfFile{}, ErrBusy
	}
	pdfs := append([]pdf.PdfFile(nil), m.pdfs...)
	m.running = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	if len(pdfs) < 2 {
		return pdf.PdfFile{}, fmt.Errorf("%w: merge needs at least two PDFs", ErrNoSelection)
	}
	inputs := make([]string, 0, len(pdfs))
	for _, p := range pdfs {
		path, err := pdf.PathFromURI(p.URI)
		if err != nil {
			return pdf.PdfFile{}, err
		}
		inputs = append(inputs, path)
	}

	outPath, err := pdfops.UniquePath(m.outputDir, timestampStem("Merged", time.Now()), ".pdf")
	if err != nil {
		return pdf.PdfFile{}, err
	}
	if err := pdfops.Merge(ctx, inputs, outPath); err != nil {
		m.Show("Merge failed")
		return pdf.PdfFile{}, err
	}
	merged, err := m.library.LoadMetadata(ctx, pdf.FileURI(outPath))
	if err != nil {
		return pdf.PdfFile{}, fmt.Errorf("merged but unable to index %s: %w", outPath, err)
	}

	m.mu.Lock()
	m.pdfs = nil
	m.mu.Unlock()
	m.Show(fmt.Sprintf("Merged %d PDFs into %s", len(pdfs), merged.Name))
	return merged, nil
}

// MergeState is a snapshot of the Merge tab
type MergeState struct {
	Pdfs       []pdf.Summary `json:"pdfs"`
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
	IsActive   bool          `json:"isActive"`
	Running    bool          `json:"running"`
}

// State snapshots the set
func (m *MergeSet) State() MergeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	state := MergeState{
		Pdfs:     make([]pdf.Summary, 0, len(m.pdfs)),
		Total:    len(m.pdfs),
		IsActive: len(m.pdfs) > 0,
		Running:  m.running,
	}
	for _, p := range m.pdfs {
		state.Pdfs = append(state.Pdfs, p.Summary())
		state.TotalPages += p.PagesCount
	}
	return state
}
